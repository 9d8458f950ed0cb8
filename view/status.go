package view

import (
	"github.com/fulldump/scorepane/pageindex"
	"github.com/fulldump/scorepane/protocol"
)

type Status struct {
	Handle     int                     `json:"handle"`
	PageCount  int                     `json:"pageCount"`
	Rendered   int                     `json:"rendered"`
	Options    protocol.RenderOptions  `json:"options"`
	Viewport   Viewport                `json:"viewport"`
	Navigation Navigation              `json:"navigation"`
	Systems    []pageindex.SystemEntry `json:"systems"`
	Highlights []string                `json:"highlights"`
	Drag       string                  `json:"drag"`
	Listeners  int                     `json:"listeners"`
	LastError  string                  `json:"lastError,omitempty"`
}

func (v *View) Status() *Status {
	rendered := 0
	for i := 0; i < v.content.Pages(); i++ {
		if v.content.Rendered(i) {
			rendered++
		}
	}

	return &Status{
		Handle:     int(v.handle),
		PageCount:  v.pageCount,
		Rendered:   rendered,
		Options:    v.options,
		Viewport:   v.viewport,
		Navigation: v.Navigation(),
		Systems:    v.index.Entries(),
		Highlights: v.highlights.Active(),
		Drag:       v.drag.State().String(),
		Listeners:  v.overlay.ListenerCount(),
		LastError:  v.lastError,
	}
}

// Document is the latest document known, as reported by the engine after
// each render.
func (v *View) Document() string {
	return v.document
}
