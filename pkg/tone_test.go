package filters

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.SetNRGBA(x, y, c)
		}
	}
	return im
}

func TestHueDegrees(t *testing.T) {
	for _, tc := range []struct {
		angle, want float64
	}{
		{0, 0},
		{math.Pi / 2, 90},
		{math.Pi, 180},
		{2 * math.Pi, 0},
		{3 * math.Pi / 2, -90},
	} {
		if got := hueDegrees(tc.angle); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("hueDegrees(%v) = %v, want %v", tc.angle, got, tc.want)
		}
	}
}

func TestHueAdjustRotatesRed(t *testing.T) {
	red := solidImage(4, 4, color.NRGBA{255, 0, 0, 255})
	res := HueAdjust(red, Hue{Angle: 2 * math.Pi / 3})
	c := res.NRGBAAt(1, 1)
	if c.R > 50 || (c.G < 200 && c.B < 200) {
		t.Errorf("red rotated by 120 degrees = %v, want a primary other than red", c)
	}
	if c.A != 255 {
		t.Errorf("alpha = %d", c.A)
	}
}

func TestVignetteDarkensCorners(t *testing.T) {
	gray := solidImage(20, 20, color.NRGBA{200, 200, 200, 255})
	res := VignetteEffect(gray, Vignette{Intensity: 1, Radius: 1})
	if c := res.NRGBAAt(10, 10); c.R != 200 {
		t.Errorf("centre = %v, want untouched", c)
	}
	if c := res.NRGBAAt(0, 0); c.R >= 100 {
		t.Errorf("corner = %v, want darkened", c)
	}

	bright := VignetteEffect(gray, Vignette{Intensity: -1, Radius: 1})
	if c := bright.NRGBAAt(0, 0); c.R <= 200 {
		t.Errorf("negative intensity corner = %v, want brightened", c)
	}
}

func TestSepiaTone(t *testing.T) {
	src := gradientImage(8, 8)
	full := SepiaTone(src, Sepia{Intensity: 1})
	half := SepiaTone(src, Sepia{Intensity: 0.5})
	o, f, h := src.NRGBAAt(5, 2), full.NRGBAAt(5, 2), half.NRGBAAt(5, 2)
	mid := (int(o.B) + int(f.B)) / 2
	if d := int(h.B) - mid; d > 1 || d < -1 {
		t.Errorf("half sepia blue = %d, want about %d", h.B, mid)
	}
	// sepia keeps red above blue
	if f.R < f.B {
		t.Errorf("full sepia = %v, want warm tone", f)
	}

	strong := SepiaTone(src, Sepia{Intensity: 10})
	if strong.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v", strong.Bounds())
	}
}

func TestXRayInverts(t *testing.T) {
	white := solidImage(3, 3, color.NRGBA{255, 255, 255, 255})
	black := solidImage(3, 3, color.NRGBA{0, 0, 0, 255})
	w, b := XRayTone(white).NRGBAAt(1, 1), XRayTone(black).NRGBAAt(1, 1)
	lum := func(c color.NRGBA) int { return int(c.R) + int(c.G) + int(c.B) }
	if lum(w) >= lum(b) {
		t.Errorf("x-ray of white %v is not darker than x-ray of black %v", w, b)
	}
}

func TestSepiaToneSemiTransparent(t *testing.T) {
	im := solidImage(3, 3, color.NRGBA{200, 120, 40, 255})
	im.SetNRGBA(1, 1, color.NRGBA{200, 120, 40, 20})

	res := SepiaTone(im, Sepia{Intensity: 1})
	opaque, faint := res.NRGBAAt(0, 0), res.NRGBAAt(1, 1)
	if faint.A != 20 {
		t.Errorf("alpha = %d, want 20", faint.A)
	}
	faint.A = 255
	if faint != opaque {
		t.Errorf("sepia of a faint pixel = %v, want the colour of the opaque one %v", faint, opaque)
	}
}
