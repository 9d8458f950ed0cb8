package view

import (
	"errors"
	"fmt"

	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/surface"
)

// Navigation is what the presentation layer needs to draw its controls. It
// is computed on demand, never stored.
type Navigation struct {
	Horizontal    bool    `json:"horizontal"`
	CurrentSystem int     `json:"currentSystem"`
	TotalSystems  int     `json:"totalSystems"`
	Scale         int     `json:"scale"`
	ScrollTop     float64 `json:"scrollTop"`
	CanPrev       bool    `json:"canPrev"`
	CanNext       bool    `json:"canNext"`
	CanZoomIn     bool    `json:"canZoomIn"`
	CanZoomOut    bool    `json:"canZoomOut"`
}

func (v *View) Navigation() Navigation {
	current := v.index.Current()
	total := v.index.Total()
	return Navigation{
		Horizontal:    v.options.Horizontal(),
		CurrentSystem: current,
		TotalSystems:  total,
		Scale:         v.options.Scale,
		ScrollTop:     v.scrollTop,
		CanPrev:       !v.options.Horizontal() && current > 0,
		CanNext:       !v.options.Horizontal() && current < total-1,
		CanZoomIn:     v.options.Scale+protocol.ScaleStep <= protocol.ScaleMax,
		CanZoomOut:    v.options.Scale-protocol.ScaleStep >= protocol.ScaleMin,
	}
}

// Scroll records the scroll position of the display region and finds the
// system now current.
func (v *View) Scroll(top, left float64) Navigation {
	v.scrollTop = top
	v.scrollLeft = left
	v.index.Scan(top)
	return v.Navigation()
}

func (v *View) NextPage() Navigation {
	v.scrollToSystem(v.index.Current() + 1)
	return v.Navigation()
}

func (v *View) PrevPage() Navigation {
	v.scrollToSystem(v.index.Current() - 1)
	return v.Navigation()
}

func (v *View) ScrollToPage(pageIndex int) error {
	n, found := v.index.FirstOfPage(pageIndex)
	if !found {
		return fmt.Errorf("%w: page %d", surface.ErrPageOutOfRange, pageIndex)
	}
	v.scrollToSystem(n)
	return nil
}

// ScrollToObject brings the system holding the object into view.
func (v *View) ScrollToObject(id string) error {
	system, err := v.content.Enclosing(id, surface.SystemClass)
	if err != nil {
		return err
	}
	n, found := v.index.Lookup(system)
	if !found {
		return fmt.Errorf("%w: '%s' is not inside a system", surface.ErrNotFound, id)
	}
	v.scrollToSystem(n)
	return nil
}

func (v *View) scrollToSystem(n int) {
	if !v.index.SetCurrent(n) {
		return
	}
	offset, _ := v.index.Offset(n)
	v.scrollTop = max(offset, 0)
}

// ZoomIn returns false, rendering nothing, when the scale is already at
// its maximum.
func (v *View) ZoomIn() (bool, error) {
	return v.zoom(protocol.ScaleStep)
}

func (v *View) ZoomOut() (bool, error) {
	return v.zoom(-protocol.ScaleStep)
}

func (v *View) zoom(delta int) (bool, error) {
	if !v.options.StepScale(delta) {
		return false, nil
	}
	return true, v.refresh()
}

func (v *View) ToggleOrientation() error {
	v.options.ToggleLayout()
	return v.refresh()
}

// refresh renders again if there is something to render. New options are
// kept for the next load otherwise.
func (v *View) refresh() error {
	err := v.reload()
	if errors.Is(err, ErrNoDocument) {
		return nil
	}
	return err
}

// Resize records the new viewport. The document is rendered again once no
// other resize arrived for the settle interval.
func (v *View) Resize(width, height float64) {
	v.viewport = Viewport{Width: width, Height: height}
	if v.router == nil {
		return
	}

	if v.resizeTimer != nil {
		v.resizeTimer.Stop()
	}
	v.resizeSeq++
	seq := v.resizeSeq

	v.resizeTimer = v.config.Clock.AfterFunc(v.config.ResizeSettle, func() {
		v.router.Post(func() {
			if seq != v.resizeSeq || v.closed {
				return
			}
			v.resizeTimer = nil
			if err := v.refresh(); err != nil {
				v.fail("resize", err)
			}
		})
	})
}

func (v *View) Options() protocol.RenderOptions {
	return v.options
}

func (v *View) Viewport() Viewport {
	return v.viewport
}
