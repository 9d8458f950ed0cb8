package protocol

import (
	"errors"
	"fmt"
)

const (
	ScaleMin  = 10
	ScaleMax  = 100
	ScaleStep = 10

	// MinPageSize is the smallest page dimension engines accept.
	MinPageSize = 100
)

var ErrInvalidOptions = errors.New("invalid render options")

// RenderOptions is owned by one view and copied into every setOptions
// request. The 0/1 fields are integers on purpose: engines read them as
// numeric flags.
type RenderOptions struct {
	PageHeight       int    `json:"pageHeight"`
	PageWidth        int    `json:"pageWidth"`
	InputFormat      string `json:"inputFormat"`
	Scale            int    `json:"scale"`
	Border           int    `json:"border"`
	NoLayout         int    `json:"noLayout"`
	IgnoreLayout     int    `json:"ignoreLayout"`
	AdjustPageHeight int    `json:"adjustPageHeight"`
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		PageHeight:       100,
		PageWidth:        100,
		InputFormat:      "mei",
		Scale:            40,
		Border:           50,
		NoLayout:         0,
		IgnoreLayout:     1,
		AdjustPageHeight: 1,
	}
}

// Horizontal is true when the document is laid out as a single strip.
func (o RenderOptions) Horizontal() bool {
	return o.NoLayout == 1
}

// StepScale moves the scale by delta. It returns false and leaves the
// options untouched when the result would leave [ScaleMin, ScaleMax].
func (o *RenderOptions) StepScale(delta int) bool {
	next := o.Scale + delta
	if next < ScaleMin || next > ScaleMax {
		return false
	}
	o.Scale = next
	return true
}

func (o *RenderOptions) ToggleLayout() {
	if o.NoLayout == 1 {
		o.NoLayout = 0
	} else {
		o.NoLayout = 1
	}
}

// FitViewport derives the page size, in engine units, from the pixel size
// of the display region.
func (o *RenderOptions) FitViewport(width, height float64) {
	factor := 100 / float64(o.Scale)
	o.PageHeight = int(max(height*factor-float64(o.Border), MinPageSize))
	o.PageWidth = int(max(width*factor-float64(o.Border), MinPageSize))
}

func (o RenderOptions) Validate() error {
	if o.Scale < ScaleMin || o.Scale > ScaleMax || o.Scale%ScaleStep != 0 {
		return fmt.Errorf("%w: scale %d not in [%d,%d] step %d", ErrInvalidOptions, o.Scale, ScaleMin, ScaleMax, ScaleStep)
	}
	if o.Border < 0 {
		return fmt.Errorf("%w: negative border", ErrInvalidOptions)
	}
	for name, flag := range map[string]int{
		"noLayout":         o.NoLayout,
		"ignoreLayout":     o.IgnoreLayout,
		"adjustPageHeight": o.AdjustPageHeight,
	} {
		if flag != 0 && flag != 1 {
			return fmt.Errorf("%w: %s must be 0 or 1", ErrInvalidOptions, name)
		}
	}
	return nil
}
