// Package view holds the interactive state of one displayed document and
// drives its execution context through the controller.
//
// Every method must run on the controller loop.
package view

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fulldump/scorepane/clock"
	"github.com/fulldump/scorepane/controller"
	"github.com/fulldump/scorepane/drag"
	"github.com/fulldump/scorepane/events"
	"github.com/fulldump/scorepane/highlight"
	"github.com/fulldump/scorepane/metrics"
	"github.com/fulldump/scorepane/pageindex"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/surface"
)

const (
	DefaultResizeSettle     = 200 * time.Millisecond
	DefaultInteractiveClass = "note"
)

var ErrNoDocument = errors.New("no document loaded")
var ErrNotBound = errors.New("view is not registered")

// Viewport is the pixel size of the display region.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Config struct {
	Options          protocol.RenderOptions
	Viewport         Viewport
	ResizeSettle     time.Duration
	InteractiveClass string
	Clock            clock.Clock
	Logger           *slog.Logger
}

type View struct {
	config *Config
	logger *slog.Logger

	handle controller.Handle
	router controller.Router

	options   protocol.RenderOptions
	document  string
	pageCount int

	// generation changes on every load; responses of older loads are
	// ignored.
	generation int

	content    *surface.Surface
	overlay    *surface.Surface
	index      *pageindex.PageIndex
	highlights *highlight.Coordinator
	drag       *drag.Transaction
	bus        *events.Bus

	viewport   Viewport
	scrollTop  float64
	scrollLeft float64

	resizeTimer *clock.Timer
	resizeSeq   int

	lastError string
	closed    bool
}

func New(config *Config) *View {
	if config.ResizeSettle == 0 {
		config.ResizeSettle = DefaultResizeSettle
	}
	if config.InteractiveClass == "" {
		config.InteractiveClass = DefaultInteractiveClass
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	v := &View{
		config:   config,
		logger:   config.Logger,
		options:  config.Options,
		content:  surface.New(),
		overlay:  surface.New(),
		index:    pageindex.New(),
		bus:      events.New(config.Logger),
		viewport: config.Viewport,
	}
	v.highlights = highlight.New(v.content, v.overlay)
	v.drag = drag.New(v.overlay, v.highlights, v)

	return v
}

func (v *View) Bind(handle controller.Handle, router controller.Router) {
	v.handle = handle
	v.router = router
	v.logger = v.config.Logger.With("view", int(handle))
}

func (v *View) Handle() controller.Handle {
	return v.handle
}

func (v *View) Bus() *events.Bus {
	return v.bus
}

// Load replaces the document and renders it from scratch.
func (v *View) Load(document string) error {
	v.document = document
	return v.reload()
}

// reload sends the current options and document and renders every page
// again once the engine reports how many there are.
func (v *View) reload() error {
	if v.router == nil {
		return ErrNotBound
	}
	if v.document == "" {
		return ErrNoDocument
	}

	v.generation++
	generation := v.generation

	v.drag.Cancel()
	v.highlights.ResetAll()
	v.content.Clear()
	v.overlay.Clear()
	v.index.Rebuild(nil)
	v.pageCount = 0

	v.options.FitViewport(v.viewport.Width, v.viewport.Height)

	if _, err := v.router.Route(v.handle, protocol.SetOptions{Options: v.options}, nil); err != nil {
		return err
	}

	_, err := v.router.Route(v.handle, protocol.LoadDocument{Content: v.document}, func(msg protocol.Message) {
		if generation != v.generation {
			return
		}
		loaded, ok := msg.(protocol.DocumentLoaded)
		if !ok {
			v.unexpected(msg)
			return
		}
		v.documentLoaded(loaded)
	})
	return err
}

func (v *View) documentLoaded(loaded protocol.DocumentLoaded) {
	v.pageCount = loaded.PageCount
	v.content.EnsurePages(loaded.PageCount)
	v.bus.Publish(events.DocumentLoaded{PageCount: loaded.PageCount})

	for i := 0; i < loaded.PageCount; i++ {
		v.RenderPage(i)
	}
}

// RenderPage asks for page i again. The answer replaces that page only.
func (v *View) RenderPage(pageIndex int) {
	generation := v.generation
	_, err := v.router.Route(v.handle, protocol.RenderPage{PageIndex: pageIndex}, func(msg protocol.Message) {
		if generation != v.generation {
			return
		}
		v.pageRendered(msg)
	})
	if err != nil {
		v.fail("render page", err)
	}
}

// Edit forwards an edit action. The engine answers with the page rendered
// again, without a new overlay. EditCommitted is published once the engine
// has applied it; a rejected edit only logs.
func (v *View) Edit(pageIndex int, action protocol.EditAction) {
	generation := v.generation
	_, err := v.router.Route(v.handle, protocol.Edit{Action: action, PageIndex: pageIndex}, func(msg protocol.Message) {
		metrics.EditsCommitted.Inc()
		v.bus.Publish(events.EditCommitted{
			Target:    action.Target,
			PageIndex: pageIndex,
			X:         action.X,
			Y:         action.Y,
		})

		if generation != v.generation {
			return
		}
		v.pageRendered(msg)
	})
	if err != nil {
		v.fail("edit", err)
	}
}

func (v *View) pageRendered(msg protocol.Message) {
	rendered, ok := msg.(protocol.PageRendered)
	if !ok {
		v.unexpected(msg)
		return
	}

	if err := v.content.SetPage(rendered.PageIndex, rendered.Markup); err != nil {
		v.fail("apply page", err)
		return
	}
	if rendered.Document != "" {
		v.document = rendered.Document
	}
	metrics.PagesRendered.Inc()

	v.RebuildIndex()

	if rendered.RebuildOverlay {
		v.highlights.RebuildOverlay(v.config.InteractiveClass, v.drag.Handle)
	}
	v.highlights.Reapply()
	v.drag.Refresh()

	v.bus.Publish(events.PageRendered{
		Document:  v.document,
		PageIndex: rendered.PageIndex,
	})
}

// RebuildIndex measures the content surface and rebuilds the page index
// from scratch.
func (v *View) RebuildIndex() {
	boxes := v.content.Systems(float64(v.options.Border))
	entries := make([]pageindex.SystemEntry, 0, len(boxes))
	for _, box := range boxes {
		entries = append(entries, pageindex.SystemEntry{
			TopOffset: box.Top,
			ID:        box.ID,
			Page:      box.Page,
		})
	}
	v.index.Rebuild(entries)
	v.index.Scan(v.scrollTop)
}

// Close releases listeners, subscriptions and timers.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.generation++

	if v.resizeTimer != nil {
		v.resizeTimer.Stop()
		v.resizeTimer = nil
	}
	v.overlay.Release()
	v.overlay.Unlisten()
	v.bus.UnsubscribeAll()
}

func (v *View) unexpected(msg protocol.Message) {
	v.fail("response", fmt.Errorf("unexpected %s", msg.Kind()))
}

func (v *View) fail(operation string, err error) {
	v.lastError = fmt.Sprintf("%s: %s", operation, err)
	v.logger.Error(operation, "err", err)
}
