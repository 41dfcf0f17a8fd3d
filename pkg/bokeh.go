package filters

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

const (
	// Radius of the largest kernel convolved directly. Bigger blurs are
	// rendered on a downscaled copy and scaled back.
	maxKernelRadius = 8
	// Upper bound of pixels times kernel taps for one convolution.
	maxBokehCost = 1 << 27
)

func bokehWeight(d float64, p Bokeh) float64 {
	var w float64
	if p.Softness > 0 {
		w = (p.Radius + p.Softness/2 - d) / p.Softness
		w = math.Max(0, math.Min(1, w))
	} else if d <= p.Radius {
		w = 1
	}
	if w > 0 && p.RingSize > 0 && d >= p.Radius-p.RingSize {
		w *= 1 + p.RingAmount
	}
	return w
}

func bokehHalf(p Bokeh) int {
	return max(1, int(math.Ceil(p.Radius+p.Softness/2)))
}

// bokehKernel builds a disc kernel with a soft rim and an optional bright
// ring on its edge. The centre tap is always positive for Radius > 0.
func bokehKernel(p Bokeh) *convolution.Kernel {
	half := bokehHalf(p)
	side := 2*half + 1
	k := convolution.NewKernel(side, side)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			d := math.Hypot(float64(x-half), float64(y-half))
			k.Matrix[y*k.Width+x] = bokehWeight(d, p)
		}
	}
	return k
}

func scaleBokeh(p Bokeh, scale float64) Bokeh {
	return Bokeh{
		Radius:     p.Radius * scale,
		RingAmount: p.RingAmount,
		RingSize:   p.RingSize * scale,
		Softness:   p.Softness * scale,
	}
}

func bokehCost(w, h int, p Bokeh) float64 {
	side := float64(2*bokehHalf(p) + 1)
	return float64(w) * float64(h) * side * side
}

// bokehScale is the factor the image is shrunk by before convolving, 1 when
// the blur is rendered at full size.
func bokehScale(w, h int, p Bokeh) float64 {
	scale := math.Min(1, maxKernelRadius/(p.Radius+p.Softness/2))
	for scale > 0.01 && bokehCost(int(float64(w)*scale), int(float64(h)*scale), scaleBokeh(p, scale)) > maxBokehCost {
		scale *= 0.9
	}
	return scale
}

// BokehBlur blurs im with a lens-like disc kernel. Alpha is kept as is.
func BokehBlur(im image.Image, p Bokeh) *image.NRGBA {
	src := imaging.Clone(im)
	if p.Radius <= 0 {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	scale := bokehScale(w, h, p)
	if scale == 1 {
		return convolveBokeh(src, p)
	}

	sw := max(1, int(math.Round(float64(w)*scale)))
	sh := max(1, int(math.Round(float64(h)*scale)))
	small := imaging.Resize(src, sw, sh, imaging.Linear)
	res := imaging.Resize(convolveBokeh(small, scaleBokeh(p, scale)), w, h, imaging.Linear)
	copyAlpha(res, src)
	return res
}

// convolveBokeh blurs premultiplied colour together with alpha, then returns
// straight colour with the alpha of src.
func convolveBokeh(src *image.NRGBA, p Bokeh) *image.NRGBA {
	kernel := bokehKernel(p)
	blurred := convolution.Convolve(src, kernel.Normalized(), &convolution.Options{
		Bias:      0,
		Wrap:      false,
		KeepAlpha: false,
	})

	res := image.NewNRGBA(src.Bounds())
	w := src.Bounds().Dx()
	for y := 0; y < src.Bounds().Dy(); y++ {
		i, j := y*res.Stride, y*blurred.Stride
		for x := 0; x < w; x, i, j = x+1, i+4, j+4 {
			if a := float64(blurred.Pix[j+3]); a > 0 {
				for c := 0; c < 3; c++ {
					res.Pix[i+c] = clampChannel(float64(blurred.Pix[j+c]) * 255 / a)
				}
			}
			res.Pix[i+3] = src.Pix[i+3]
		}
	}
	return res
}

func copyAlpha(dst, src *image.NRGBA) {
	w := dst.Bounds().Dx()
	for y := 0; y < dst.Bounds().Dy(); y++ {
		i, j := y*dst.Stride, y*src.Stride
		for x := 0; x < w; x, i, j = x+1, i+4, j+4 {
			dst.Pix[i+3] = src.Pix[j+3]
		}
	}
}
