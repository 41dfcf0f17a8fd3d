// Package filters applies the photo post filters: bokeh blur, hue rotation,
// vignette, X-ray and sepia tone.
package filters

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"time"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrDecodeFailed = errors.New("image can't be decoded")
	ErrRenderFailed = errors.New("filter produced no image")
)

func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// forEachRow calls fn for every y in [0, height) using up to workers goroutines.
func forEachRow(height, workers int, fn func(y int)) {
	if workers <= 1 || height < 2 {
		for y := 0; y < height; y++ {
			fn(y)
		}
		return
	}
	workers = min(workers, height)
	p := pool.New().WithMaxGoroutines(workers)
	for w := 0; w < workers; w++ {
		w := w
		p.Go(func() {
			for y := w; y < height; y += workers {
				fn(y)
			}
		})
	}
	p.Wait()
}

// Filterer holds the filter handles shared between renders. It is safe for
// concurrent use.
type Filterer struct {
	workers int
	format  imaging.Format
	logger  *slog.Logger
	xray    *gift.GIFT
}

type Option func(*Filterer)

// WithWorkers limits the goroutines used per render.
func WithWorkers(n int) Option {
	return func(f *Filterer) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithFormat sets the encoding used by ApplyBytes. PNG by default.
func WithFormat(format imaging.Format) Option {
	return func(f *Filterer) {
		f.format = format
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Filterer) {
		f.logger = l
	}
}

func New(opts ...Option) *Filterer {
	f := &Filterer{
		workers: defaultWorkers(),
		format:  imaging.PNG,
		xray:    newXRayPipeline(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filterer) log() *slog.Logger {
	if f.logger != nil {
		return f.logger
	}
	return Logger()
}

func (f *Filterer) Format() imaging.Format {
	return f.format
}

func (f *Filterer) render(im image.Image, params Params) *image.NRGBA {
	switch p := params.(type) {
	case Bokeh:
		return BokehBlur(im, p)
	case Hue:
		return HueAdjust(im, p)
	case Vignette:
		return vignette(im, p, f.workers)
	case XRay:
		return drawGift(f.xray, imaging.Clone(im))
	case Sepia:
		return sepiaTone(im, p, f.workers)
	default:
		return nil
	}
}

// Apply renders params over im. The result has the same size as im.
func (f *Filterer) Apply(im image.Image, params Params) (image.Image, error) {
	if im == nil || im.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrRenderFailed)
	}
	if params == nil {
		return nil, fmt.Errorf("%w: no filter selected", ErrRenderFailed)
	}
	start := time.Now()
	res := f.render(im, params)
	if res == nil || res.Bounds().Dx() != im.Bounds().Dx() || res.Bounds().Dy() != im.Bounds().Dy() {
		return nil, fmt.Errorf("%w: %s", ErrRenderFailed, params.Kind())
	}
	f.log().Debug("filter applied",
		"filter", params.Kind().String(),
		"params", Values(params),
		"size", im.Bounds().Size().String(),
		"took", time.Since(start),
	)
	return res, nil
}

// ApplyBytes decodes data, renders params over it and encodes the result.
func (f *Filterer) ApplyBytes(data []byte, params Params) ([]byte, error) {
	im, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	res, err := f.Apply(im, params)
	if err != nil {
		return nil, err
	}
	out, err := EncodeBytes(res, f.format)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %v", ErrRenderFailed, f.format, err)
	}
	return out, nil
}

var defaultFilterer = New()

// ApplyFilter decodes image, applies params and returns the result encoded as PNG.
func ApplyFilter(image []byte, params Params) ([]byte, error) {
	return defaultFilterer.ApplyBytes(image, params)
}

// ApplyFilterFile is ApplyFilter over files, the result format follows the
// extension of resultImageFilename.
func ApplyFilterFile(sourceImageFilename, resultImageFilename string, params Params) error {
	im, err := LoadImageFile(sourceImageFilename)
	if err != nil {
		return fmt.Errorf("error occured during loading image: %w", err)
	}
	res, err := defaultFilterer.Apply(im, params)
	if err != nil {
		return err
	}
	return SaveImageFile(res, resultImageFilename)
}
