package filters

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func gradientImage(w, h int) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: uint8((x + y) * 7 % 256),
				A: 255,
			})
		}
	}
	return im
}

func encodePNG(t testing.TB, im image.Image) []byte {
	t.Helper()
	var b bytes.Buffer
	if err := png.Encode(&b, im); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b.Bytes()
}

func decodePNG(t testing.TB, data []byte) image.Image {
	t.Helper()
	im, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return im
}

func samePixels(a, b image.Image) bool {
	if a.Bounds().Size() != b.Bounds().Size() {
		return false
	}
	ab, bb := a.Bounds(), b.Bounds()
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			r1, g1, b1, a1 := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

func TestApplyFilterKeepsDimensions(t *testing.T) {
	src := encodePNG(t, gradientImage(23, 17))
	for _, kind := range Kinds() {
		for _, tc := range []struct {
			name string
			pick func(Field) float64
		}{
			{"min", func(f Field) float64 { return f.Range.Min }},
			{"default", func(f Field) float64 { return f.Default }},
			{"max", func(f Field) float64 { return f.Range.Max }},
		} {
			fields := Fields(kind)
			values := make([]float64, len(fields))
			for i, f := range fields {
				values[i] = tc.pick(f)
			}
			params, err := FromValues(kind, values)
			if err != nil {
				t.Fatalf("%s/%s: %v", kind, tc.name, err)
			}

			t.Run(kind.String()+"/"+tc.name, func(t *testing.T) {
				out, err := ApplyFilter(src, params)
				if err != nil {
					t.Fatalf("ApplyFilter: %v", err)
				}
				if len(out) == 0 {
					t.Fatal("empty result")
				}
				if got := decodePNG(t, out).Bounds().Size(); got != image.Pt(23, 17) {
					t.Errorf("size = %v, want 23x17", got)
				}
			})
		}
	}
}

func TestApplyFilterDecodeFailed(t *testing.T) {
	for name, data := range map[string][]byte{
		"nil":       nil,
		"garbage":   []byte("definitely not an image"),
		"truncated": encodePNG(t, gradientImage(8, 8))[:20],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ApplyFilter(data, Sepia{Intensity: 1})
			if !errors.Is(err, ErrDecodeFailed) {
				t.Errorf("err = %v, want ErrDecodeFailed", err)
			}
		})
	}
}

func TestApplyRenderFailed(t *testing.T) {
	f := New()
	if _, err := f.Apply(gradientImage(4, 4), nil); !errors.Is(err, ErrRenderFailed) {
		t.Errorf("nil params: err = %v, want ErrRenderFailed", err)
	}
	if _, err := f.Apply(image.NewNRGBA(image.Rect(0, 0, 0, 0)), XRay{}); !errors.Is(err, ErrRenderFailed) {
		t.Errorf("empty image: err = %v, want ErrRenderFailed", err)
	}
}

func TestXRayDependsOnlyOnImage(t *testing.T) {
	src := encodePNG(t, gradientImage(16, 12))
	first, err := ApplyFilter(src, XRay{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(WithWorkers(1)).ApplyBytes(src, XRay{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("x-ray output differs between renders of the same image")
	}
	if !samePixels(decodePNG(t, first), XRayTone(gradientImage(16, 12))) {
		t.Error("ApplyFilter x-ray differs from XRay")
	}
}

func TestIdentityParams(t *testing.T) {
	src := gradientImage(10, 10)
	f := New()
	for _, p := range []Params{
		Bokeh{Radius: 0, RingAmount: 1, RingSize: 5, Softness: 3},
		Hue{Angle: 0},
		Vignette{Intensity: 0, Radius: 1},
		Sepia{Intensity: 0},
	} {
		res, err := f.Apply(src, p)
		if err != nil {
			t.Fatalf("%s: %v", p.Kind(), err)
		}
		if !samePixels(src, res) {
			t.Errorf("%s with identity params changed the image", p.Kind())
		}
	}
}

func TestFiltersKeepOpaqueAlpha(t *testing.T) {
	src := gradientImage(12, 9)
	f := New()
	for _, kind := range Kinds() {
		res, err := f.Apply(src, Default(kind))
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		b := res.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if _, _, _, a := res.At(x, y).RGBA(); a != 0xFFFF {
					t.Fatalf("%s: alpha at (%d,%d) = %#x", kind, x, y, a)
				}
			}
		}
	}
}

func TestFiltersKeepAlpha(t *testing.T) {
	src := gradientImage(15, 11)
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = uint8(i * 13 % 256)
	}
	f := New()
	for _, p := range []Params{
		Bokeh{Radius: 3, RingAmount: 0.5, RingSize: 1, Softness: 1},
		Bokeh{Radius: 400, Softness: 5},
		Hue{Angle: 1},
		Vignette{Intensity: 0.7, Radius: 0.4},
		XRay{},
		Sepia{Intensity: 4},
	} {
		res, err := f.Apply(src, p)
		if err != nil {
			t.Fatalf("%s: %v", p.Kind(), err)
		}
		got := imaging.Clone(res)
		for i := 3; i < len(src.Pix); i += 4 {
			if got.Pix[i] != src.Pix[i] {
				t.Errorf("%#v: alpha of pixel %d = %d, want %d", p, i/4, got.Pix[i], src.Pix[i])
				break
			}
		}
	}
}

func TestApplyWorkersAgree(t *testing.T) {
	src := gradientImage(31, 29)
	one, many := New(WithWorkers(1)), New(WithWorkers(8))
	for _, p := range []Params{
		Vignette{Intensity: 0.8, Radius: 0.5},
		Sepia{Intensity: 3},
	} {
		a, err := one.Apply(src, p)
		if err != nil {
			t.Fatal(err)
		}
		b, err := many.Apply(src, p)
		if err != nil {
			t.Fatal(err)
		}
		if !samePixels(a, b) {
			t.Errorf("%s differs between 1 and 8 workers", p.Kind())
		}
	}
}

func TestApplyFilterFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "orig.png")
	if err := os.WriteFile(source, encodePNG(t, gradientImage(8, 6)), 0o644); err != nil {
		t.Fatal(err)
	}
	result := filepath.Join(dir, "res.jpg")
	if err := ApplyFilterFile(source, result, Hue{Angle: 1}); err != nil {
		t.Fatalf("ApplyFilterFile: %v", err)
	}
	im, err := LoadImageFile(result)
	if err != nil {
		t.Fatalf("LoadImageFile: %v", err)
	}
	if im.Bounds().Size() != image.Pt(8, 6) {
		t.Errorf("size = %v", im.Bounds().Size())
	}

	if err := ApplyFilterFile(filepath.Join(dir, "missing.png"), result, XRay{}); err == nil {
		t.Error("expected error for missing source")
	}
}

func BenchmarkApply(b *testing.B) {
	src := gradientImage(256, 256)
	f := New()
	for _, kind := range Kinds() {
		p := Default(kind)
		b.Run(kind.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := f.Apply(src, p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
