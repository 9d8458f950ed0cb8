package surface

import (
	"golang.org/x/net/html"
)

type EventType string

const (
	PointerDown EventType = "pointerdown"
	PointerMove EventType = "pointermove"
	PointerUp   EventType = "pointerup"
)

// Event is a pointer event. Target is the id of the object under the
// pointer, Y is the pointer position in document pixels.
type Event struct {
	Type   EventType
	Target string
	X      float64
	Y      float64
}

type Handler func(evt Event)

// Listen attaches h to every element carrying class and an id.
func (s *Surface) Listen(class string, h Handler) int {
	attached := 0
	walk(s.root, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasClass(n, class) {
			return
		}
		if id, _ := getAttr(n, "id"); id == "" {
			return
		}
		s.listeners[n] = h
		attached++
	})
	return attached
}

// Unlisten detaches every listener.
func (s *Surface) Unlisten() {
	s.listeners = map[*html.Node]Handler{}
}

func (s *Surface) ListenerCount() int {
	return len(s.listeners)
}

func (s *Surface) detachListeners(under *html.Node) {
	walk(under, func(n *html.Node) {
		delete(s.listeners, n)
	})
}

// Capture routes every following event to h, wherever it happens, until
// Release.
func (s *Surface) Capture(h Handler) {
	s.capture = h
}

func (s *Surface) Release() {
	s.capture = nil
}

func (s *Surface) Captured() bool {
	return s.capture != nil
}

// Dispatch delivers evt to the capturing handler if any, otherwise to the
// listener of the target element or its closest listening ancestor. It
// returns false when nobody handled it.
func (s *Surface) Dispatch(evt Event) bool {
	if s.capture != nil {
		s.capture(evt)
		return true
	}

	for n := s.find(evt.Target); n != nil; n = n.Parent {
		if h, exists := s.listeners[n]; exists {
			h(evt)
			return true
		}
	}
	return false
}
