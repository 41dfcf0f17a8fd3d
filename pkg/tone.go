package filters

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

func drawGift(g *gift.GIFT, im image.Image) *image.NRGBA {
	dst := image.NewNRGBA(g.Bounds(im.Bounds()))
	g.Draw(dst, im)
	return dst
}

// hueDegrees converts radians into a hue shift in (-180, 180].
func hueDegrees(angle float64) float64 {
	return math.Remainder(angle*180/math.Pi, 360)
}

// HueAdjust rotates the hue of every pixel by p.Angle radians.
func HueAdjust(im image.Image, p Hue) *image.NRGBA {
	deg := hueDegrees(p.Angle)
	if deg == 0 {
		return imaging.Clone(im)
	}
	return drawGift(gift.New(gift.Hue(float32(deg))), imaging.Clone(im))
}

func newXRayPipeline() *gift.GIFT {
	return gift.New(
		gift.Grayscale(),
		gift.Invert(),
		gift.Colorize(210, 40, 30),
	)
}

var xrayPipeline = newXRayPipeline()

// XRayTone renders im as a negative with a cold tint. It takes no parameters.
func XRayTone(im image.Image) *image.NRGBA {
	return drawGift(xrayPipeline, imaging.Clone(im))
}

func clampChannel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// SepiaTone mixes im with its full sepia rendition. Intensity 0 keeps the
// original, 1 is full sepia and larger values push further, clamped per channel.
func SepiaTone(im image.Image, p Sepia) *image.NRGBA {
	return sepiaTone(im, p, defaultWorkers())
}

func sepiaTone(im image.Image, p Sepia, workers int) *image.NRGBA {
	orig := imaging.Clone(im)
	if p.Intensity == 0 {
		return orig
	}
	// bild works on premultiplied colour, so tone an opaque copy and take
	// alpha from orig.
	opaque := imaging.Clone(orig)
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 255
	}
	toned := imaging.Clone(effect.Sepia(opaque))
	t := p.Intensity
	res := image.NewNRGBA(orig.Bounds())
	w := orig.Bounds().Dx()
	forEachRow(orig.Bounds().Dy(), workers, func(y int) {
		i := y * orig.Stride
		for x := 0; x < w; x, i = x+1, i+4 {
			for c := 0; c < 3; c++ {
				o := float64(orig.Pix[i+c])
				s := float64(toned.Pix[i+c])
				res.Pix[i+c] = clampChannel(o + t*(s-o))
			}
			res.Pix[i+3] = orig.Pix[i+3]
		}
	})
	return res
}
