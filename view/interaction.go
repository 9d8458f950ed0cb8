package view

import (
	"fmt"

	"github.com/fulldump/scorepane/broker"
	"github.com/fulldump/scorepane/drag"
	"github.com/fulldump/scorepane/events"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/surface"
)

// PointerDown presses the pointer on an object of the overlay.
func (v *View) PointerDown(id string, pointerY float64) error {
	if v.overlay.Captured() {
		// a gesture whose pointer up never arrived
		v.overlay.Release()
	}

	handled := v.overlay.Dispatch(surface.Event{
		Type:   surface.PointerDown,
		Target: id,
		Y:      pointerY,
	})
	if !handled {
		if !v.overlay.Has(id) {
			return fmt.Errorf("%w: '%s'", surface.ErrNotFound, id)
		}
		return fmt.Errorf("%w: '%s'", surface.ErrNotInteractive, id)
	}
	if v.drag.State() != drag.Armed {
		return fmt.Errorf("%w: '%s'", surface.ErrNotInteractive, id)
	}
	return nil
}

func (v *View) PointerMove(pointerY float64) error {
	return v.captured(surface.PointerMove, pointerY)
}

func (v *View) PointerUp(pointerY float64) error {
	return v.captured(surface.PointerUp, pointerY)
}

func (v *View) captured(t surface.EventType, pointerY float64) error {
	if !v.overlay.Captured() {
		return drag.ErrNotArmed
	}
	v.overlay.Dispatch(surface.Event{Type: t, Y: pointerY})
	return nil
}

// Click notifies ObjectClicked when the object lies inside a measure.
func (v *View) Click(id string) (*events.ObjectClicked, error) {
	measure, err := v.content.Enclosing(id, surface.MeasureClass)
	if err != nil {
		return nil, err
	}
	if measure == "" {
		return nil, nil
	}

	clicked := events.ObjectClicked{Target: id, Measure: measure}
	v.bus.Publish(clicked)
	return &clicked, nil
}

// FetchDocument asks the engine for the current document. The response is
// resolved on the loop, so never wait for the future from it.
func (v *View) FetchDocument() (*broker.Future, error) {
	if v.router == nil {
		return nil, ErrNotBound
	}
	return v.router.RouteFuture(v.handle, protocol.GetDocument{})
}

func (v *View) Highlights() []string {
	return v.highlights.Active()
}

func (v *View) DragState() drag.State {
	return v.drag.State()
}

func (v *View) ContentMarkup() string {
	return v.content.Markup()
}

func (v *View) OverlayMarkup() string {
	return v.overlay.Markup()
}

// PageMarkup returns the markup of one page wrapper of the content surface.
func (v *View) PageMarkup(pageIndex int) (string, error) {
	return v.content.PageMarkup(pageIndex)
}
