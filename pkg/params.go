package filters

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindBokeh Kind = iota
	KindHue
	KindVignette
	KindXRay
	KindSepia
)

var kindNames = [...]string{
	KindBokeh:    "bokeh",
	KindHue:      "hue",
	KindVignette: "vignette",
	KindXRay:     "xray",
	KindSepia:    "sepia",
}

var kindTitles = [...]string{
	KindBokeh:    "Bokeh",
	KindHue:      "Hue",
	KindVignette: "Vignette",
	KindXRay:     "X-Ray",
	KindSepia:    "Sepia",
}

// Kinds returns all filter kinds in segment order.
func Kinds() []Kind {
	return []Kind{KindBokeh, KindHue, KindVignette, KindXRay, KindSepia}
}

func (k Kind) Valid() bool {
	return k >= KindBokeh && k <= KindSepia
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Title is the human readable name shown on segment controls.
func (k Kind) Title() string {
	if !k.Valid() {
		return k.String()
	}
	return kindTitles[k]
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

// Params is one of Bokeh, Hue, Vignette, XRay or Sepia.
type Params interface {
	Kind() Kind
	values() []float64
}

type Bokeh struct {
	Radius     float64
	RingAmount float64
	RingSize   float64
	Softness   float64
}

type Hue struct {
	// Angle in radians.
	Angle float64
}

type Vignette struct {
	Intensity float64
	Radius    float64
}

type XRay struct{}

type Sepia struct {
	Intensity float64
}

func (Bokeh) Kind() Kind    { return KindBokeh }
func (Hue) Kind() Kind      { return KindHue }
func (Vignette) Kind() Kind { return KindVignette }
func (XRay) Kind() Kind     { return KindXRay }
func (Sepia) Kind() Kind    { return KindSepia }

func (p Bokeh) values() []float64 {
	return []float64{p.Radius, p.RingAmount, p.RingSize, p.Softness}
}
func (p Hue) values() []float64      { return []float64{p.Angle} }
func (p Vignette) values() []float64 { return []float64{p.Intensity, p.Radius} }
func (XRay) values() []float64       { return nil }
func (p Sepia) values() []float64    { return []float64{p.Intensity} }

type Range struct {
	Min, Max float64
}

func (r Range) Clamp(v float64) float64 {
	switch {
	case v < r.Min:
		return r.Min
	case v > r.Max:
		return r.Max
	default:
		return v
	}
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Field describes one adjustable parameter of a filter, in the order the
// sliders present them.
type Field struct {
	Name    string
	Label   string
	Range   Range
	Default float64
}

var kindFields = [...][]Field{
	KindBokeh: {
		{"radius", "Radius", Range{0, 500}, 20},
		{"ring_amount", "Ring Amount", Range{0, 1}, 0},
		{"ring_size", "Ring Size", Range{0, 100}, 0.1},
		{"softness", "Softness", Range{0, 10}, 1},
	},
	KindHue: {
		{"angle", "Angle", Range{0, 90}, 0},
	},
	KindVignette: {
		{"intensity", "Intensity", Range{-1, 1}, 0},
		{"radius", "Radius", Range{0, 2}, 1},
	},
	KindXRay: nil,
	KindSepia: {
		{"intensity", "Intensity", Range{0, 10}, 1},
	},
}

// Fields lists the adjustable parameters of kind. X-ray has none.
func Fields(kind Kind) []Field {
	if !kind.Valid() {
		return nil
	}
	return kindFields[kind]
}

// Default returns params of kind with every field at its default value.
func Default(kind Kind) Params {
	p, _ := FromValues(kind, nil)
	return p
}

// Values returns the fields of p in Fields order.
func Values(p Params) []float64 {
	if p == nil {
		return nil
	}
	return p.values()
}

// FromValues builds params of kind from values given in Fields order.
// Missing values take the field default, extra values are an error.
// Values are not clamped.
func FromValues(kind Kind, values []float64) (Params, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown filter kind %d", int(kind))
	}
	fields := kindFields[kind]
	if len(values) > len(fields) {
		return nil, fmt.Errorf("%s takes %d parameters, got %d", kind, len(fields), len(values))
	}
	v := make([]float64, len(fields))
	for i, f := range fields {
		if i < len(values) {
			v[i] = values[i]
		} else {
			v[i] = f.Default
		}
	}
	switch kind {
	case KindBokeh:
		return Bokeh{Radius: v[0], RingAmount: v[1], RingSize: v[2], Softness: v[3]}, nil
	case KindHue:
		return Hue{Angle: v[0]}, nil
	case KindVignette:
		return Vignette{Intensity: v[0], Radius: v[1]}, nil
	case KindXRay:
		return XRay{}, nil
	default:
		return Sepia{Intensity: v[0]}, nil
	}
}
