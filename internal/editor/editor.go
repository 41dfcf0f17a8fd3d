// Package editor holds the state of the post editing screen: the selected
// filter, the five label/slider slots and the live preview.
package editor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/rprtr258/timeline/internal/post"
	filters "github.com/rprtr258/timeline/pkg"
)

// Slots is the number of label/slider pairs on the screen.
const Slots = 5

const noAdjustment = "No adjustment needed for this one 🙂"

// Control is one label/slider pair.
type Control struct {
	Name         string
	Label        string
	LabelHidden  bool
	Range        filters.Range
	Value        float64
	SliderHidden bool
}

// LayoutFor returns the controls shown for kind, with values unset.
func LayoutFor(kind filters.Kind) [Slots]Control {
	var layout [Slots]Control
	for i := range layout {
		layout[i] = Control{LabelHidden: true, SliderHidden: true}
	}
	fields := filters.Fields(kind)
	if len(fields) == 0 {
		layout[0].Label = noAdjustment
		layout[0].LabelHidden = false
		return layout
	}
	for i, f := range fields {
		layout[i] = Control{
			Name:  f.Name,
			Label: f.Label,
			Range: f.Range,
		}
	}
	return layout
}

type Option func(*Editor)

// WithPreviewSide bounds the longest side of the preview image. Zero renders
// previews at full size.
func WithPreviewSide(side int) Option {
	return func(e *Editor) {
		e.previewSide = side
	}
}

// Editor is not safe for concurrent use.
type Editor struct {
	filterer    *filters.Filterer
	previewSide int

	selected filters.Kind
	sliders  [Slots]float64

	source        image.Image
	previewSource image.Image
	preview       image.Image
}

func New(f *filters.Filterer, opts ...Option) *Editor {
	if f == nil {
		f = filters.New()
	}
	e := &Editor{
		filterer:    f,
		previewSide: 1024,
		selected:    filters.KindBokeh,
	}
	for _, opt := range opts {
		opt(e)
	}
	for i, f := range filters.Fields(e.selected) {
		e.sliders[i] = f.Default
	}
	return e
}

func (e *Editor) Selected() filters.Kind {
	return e.selected
}

// Controls returns the current layout with slider values filled in.
func (e *Editor) Controls() [Slots]Control {
	layout := LayoutFor(e.selected)
	for i := range layout {
		if !layout[i].SliderHidden {
			layout[i].Value = e.sliders[i]
		}
	}
	return layout
}

// Select switches the filter. Slider values are kept, clamped to the new
// ranges, and the preview is re-rendered.
func (e *Editor) Select(kind filters.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown filter %s", kind)
	}
	e.selected = kind
	for i, c := range LayoutFor(kind) {
		if !c.SliderHidden {
			e.sliders[i] = c.Range.Clamp(e.sliders[i])
		}
	}
	return e.render()
}

// SelectSegment selects the filter by its position on the segment control.
func (e *Editor) SelectSegment(index int) error {
	kinds := filters.Kinds()
	if index < 0 || index >= len(kinds) {
		return fmt.Errorf("could not detect selected filter segment %d", index)
	}
	return e.Select(kinds[index])
}

// SetSlider moves the slider in slot to v, clamped to the slider range,
// and re-renders the preview.
func (e *Editor) SetSlider(slot int, v float64) (filters.Params, error) {
	if slot < 0 || slot >= Slots {
		return nil, fmt.Errorf("no slider %d", slot+1)
	}
	c := LayoutFor(e.selected)[slot]
	if c.SliderHidden {
		return nil, fmt.Errorf("slider %d is not used by %s", slot+1, e.selected)
	}
	e.sliders[slot] = c.Range.Clamp(v)
	return e.Params(), e.render()
}

// Params maps the visible sliders onto the selected filter parameters.
func (e *Editor) Params() filters.Params {
	n := len(filters.Fields(e.selected))
	p, err := filters.FromValues(e.selected, e.sliders[:n])
	if err != nil {
		// selected is always valid and n matches its fields
		panic(err)
	}
	return p
}

// SetImage loads the picked photo and renders its preview.
func (e *Editor) SetImage(data []byte) error {
	im, err := filters.DecodeBytes(data)
	if err != nil {
		return err
	}
	return e.SetDecodedImage(im)
}

func (e *Editor) SetDecodedImage(im image.Image) error {
	e.source = im
	e.previewSource = im
	b := im.Bounds()
	if e.previewSide > 0 && (b.Dx() > e.previewSide || b.Dy() > e.previewSide) {
		e.previewSource = imaging.Fit(im, e.previewSide, e.previewSide, imaging.Linear)
	}
	return e.render()
}

func (e *Editor) HasImage() bool {
	return e.source != nil
}

func (e *Editor) render() error {
	if e.previewSource == nil {
		return nil
	}
	res, err := e.filterer.Apply(e.previewSource, e.Params())
	if err != nil {
		e.preview = nil
		return err
	}
	e.preview = res
	return nil
}

// Preview is the filtered preview, nil until an image is set.
func (e *Editor) Preview() image.Image {
	return e.preview
}

// AspectRatio is height over width of the picked photo, 1 without one.
func (e *Editor) AspectRatio() float64 {
	return post.Ratio(e.source)
}

// Draft renders the full size image and bundles it with title for posting.
func (e *Editor) Draft(title string) (post.Draft, error) {
	d := post.Draft{Title: title, Image: e.source, Params: e.Params()}
	if err := d.Validate(); err != nil {
		return post.Draft{}, err
	}
	res, err := e.filterer.Apply(e.source, d.Params)
	if err != nil {
		return post.Draft{}, err
	}
	d.Image = res
	return d, nil
}
