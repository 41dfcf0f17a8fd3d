package filters

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}

// VignetteEffect darkens (or, for negative intensity, brightens) the periphery.
// Radius is relative: the falloff starts at Radius/2 of the half-diagonal
// and reaches full strength half a diagonal later.
func VignetteEffect(im image.Image, p Vignette) *image.NRGBA {
	return vignette(im, p, defaultWorkers())
}

func vignette(im image.Image, p Vignette, workers int) *image.NRGBA {
	src := imaging.Clone(im)
	if p.Intensity == 0 {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	cx, cy := float64(w)/2, float64(h)/2
	halfDiagonal := math.Hypot(cx, cy)
	start := p.Radius / 2
	end := start + 0.5

	res := image.NewNRGBA(src.Bounds())
	forEachRow(h, workers, func(y int) {
		i := y * src.Stride
		dy := float64(y) + 0.5 - cy
		for x := 0; x < w; x, i = x+1, i+4 {
			d := math.Hypot(float64(x)+0.5-cx, dy) / halfDiagonal
			factor := 1 - p.Intensity*smoothstep(start, end, d)
			res.Pix[i+0] = clampChannel(float64(src.Pix[i+0]) * factor)
			res.Pix[i+1] = clampChannel(float64(src.Pix[i+1]) * factor)
			res.Pix[i+2] = clampChannel(float64(src.Pix[i+2]) * factor)
			res.Pix[i+3] = src.Pix[i+3]
		}
	})
	return res
}
