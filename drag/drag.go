// Package drag turns one pointer gesture on the interaction overlay into at
// most one edit per highlighted object.
//
// Idle -> Armed on pointer down over an object. Armed -> Idle on pointer up
// without movement, which leaves the object selected. Armed -> Dragging on
// the first move; while dragging only the overlay moves. Dragging -> Idle
// on pointer up, which commits the edits and asks for the page again.
package drag

import (
	"errors"
	"math"
	"strconv"

	"github.com/fulldump/scorepane/highlight"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/surface"
)

type State int

const (
	Idle State = iota
	Armed
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

var ErrNotArmed = errors.New("no gesture in progress")

// Editor receives the requests produced by a committed gesture.
type Editor interface {
	Edit(pageIndex int, action protocol.EditAction)
	RenderPage(pageIndex int)
}

// Gesture is the state recorded at pointer down.
type Gesture struct {
	OriginID        string
	OriginX         float64
	InitialPointerY float64
	InitialObjectY  float64
	ScaleFactor     float64
	PageIndex       int

	// objects holds the content-space y of every highlighted id at
	// pointer down.
	objects map[string]float64

	// offset is the last live displacement shown on the overlay.
	offset float64
}

type Transaction struct {
	overlay    *surface.Surface
	highlights *highlight.Coordinator
	editor     Editor

	state   State
	gesture *Gesture
}

func New(overlay *surface.Surface, highlights *highlight.Coordinator, editor Editor) *Transaction {
	return &Transaction{
		overlay:    overlay,
		highlights: highlights,
		editor:     editor,
	}
}

func (t *Transaction) State() State {
	return t.state
}

func (t *Transaction) Gesture() *Gesture {
	return t.gesture
}

// Handle is the overlay listener: it feeds pointer events into the state
// machine.
func (t *Transaction) Handle(evt surface.Event) {
	switch evt.Type {
	case surface.PointerDown:
		t.PointerDown(evt.Target, evt.Y)
	case surface.PointerMove:
		t.PointerMove(evt.Y)
	case surface.PointerUp:
		t.PointerUp(evt.Y)
	}
}

// PointerDown arms a gesture on the object with the given id. Any gesture
// still in progress is abandoned.
func (t *Transaction) PointerDown(id string, pointerY float64) error {
	target, err := t.overlay.Target(id)
	if err != nil {
		return err
	}

	if t.state != Idle {
		t.abandon()
	}

	t.highlights.ResetAll()
	t.highlights.Activate(id)

	t.gesture = &Gesture{
		OriginID:        id,
		OriginX:         target.X,
		InitialPointerY: pointerY,
		InitialObjectY:  target.Y,
		ScaleFactor:     target.ScaleFactor,
		PageIndex:       target.Page,
		objects:         map[string]float64{},
	}
	for _, active := range t.highlights.Active() {
		if other, err := t.overlay.Target(active); err == nil {
			t.gesture.objects[active] = other.Y
		}
	}

	t.overlay.Capture(t.Handle)
	t.state = Armed
	return nil
}

// PointerMove gives live feedback on the overlay. Nothing is sent.
func (t *Transaction) PointerMove(pointerY float64) error {
	if t.state == Idle {
		return ErrNotArmed
	}
	t.state = Dragging

	t.gesture.offset = t.displacement(pointerY)
	t.translate()
	return nil
}

// Refresh shows the live displacement again on a rebuilt overlay.
func (t *Transaction) Refresh() {
	if t.state != Dragging {
		return
	}
	t.translate()
}

// Cancel abandons the gesture in progress, if any, without sending anything.
func (t *Transaction) Cancel() {
	if t.state != Idle {
		t.abandon()
	}
}

func (t *Transaction) translate() {
	offset := "translate(0, " + strconv.FormatFloat(t.gesture.offset, 'f', -1, 64) + ")"
	for _, id := range t.highlights.Active() {
		t.overlay.SetTransform(id, offset)
	}
}

// PointerUp ends the gesture. It returns the edits sent, none when the
// pointer never moved.
func (t *Transaction) PointerUp(pointerY float64) ([]protocol.EditAction, error) {
	if t.state == Idle {
		return nil, ErrNotArmed
	}

	defer func() {
		t.overlay.Release()
		t.state = Idle
		t.gesture = nil
	}()

	if t.state == Armed {
		return nil, nil
	}

	g := t.gesture
	offset := t.displacement(pointerY)
	x := int(math.Round(g.OriginX))

	edits := []protocol.EditAction{}
	for _, id := range t.highlights.Active() {
		initialY, known := g.objects[id]
		if !known {
			continue
		}
		action := protocol.Drag(id, x, int(math.Round(initialY+offset)))
		t.editor.Edit(g.PageIndex, action)
		t.highlights.Deactivate(id)
		edits = append(edits, action)
	}
	t.editor.RenderPage(g.PageIndex)

	return edits, nil
}

// displacement converts the pointer travel into content units.
func (t *Transaction) displacement(pointerY float64) float64 {
	return (pointerY - t.gesture.InitialPointerY) * t.gesture.ScaleFactor
}

func (t *Transaction) abandon() {
	for _, id := range t.highlights.Active() {
		t.overlay.SetTransform(id, "")
	}
	t.overlay.Release()
	t.state = Idle
	t.gesture = nil
}
