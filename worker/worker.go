// Package worker hosts one notation engine behind an asynchronous message
// boundary. A Worker owns its toolkit exclusively; the only way in is
// PostMessage and the only way out is the reply function.
package worker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fulldump/scorepane/metrics"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/toolkit"
)

// MessageEngineNotSet is the error text for any request that precedes setEngine.
const MessageEngineNotSet = "setEngine must be called before the worker is used"

type Worker struct {
	loader toolkit.Loader
	reply  func(data []byte)
	logger *slog.Logger

	mutex   sync.Mutex
	mailbox [][]byte
	closed  bool
	wake    chan struct{}
	done    chan struct{}

	toolkit toolkit.Toolkit
}

// New starts a worker. Replies are delivered through reply from the
// worker goroutine.
func New(loader toolkit.Loader, reply func(data []byte), logger *slog.Logger) *Worker {
	if loader == nil {
		loader = toolkit.Load
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		loader: loader,
		reply:  reply,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()

	return w
}

// PostMessage enqueues data and returns immediately.
func (w *Worker) PostMessage(data []byte) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return
	}
	w.mailbox = append(w.mailbox, data)

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Terminate stops the worker. Queued messages are discarded.
func (w *Worker) Terminate() {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return
	}
	w.closed = true
	w.mailbox = nil
	close(w.wake)
	w.mutex.Unlock()

	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	for range w.wake {
		for {
			data, ok := w.next()
			if !ok {
				break
			}
			w.handle(data)
		}
	}
}

func (w *Worker) next() ([]byte, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed || len(w.mailbox) == 0 {
		return nil, false
	}
	data := w.mailbox[0]
	w.mailbox[0] = nil
	w.mailbox = w.mailbox[1:]
	return data, true
}

func (w *Worker) handle(data []byte) {
	ticket, msg, err := protocol.Decode(data)
	if err != nil {
		w.fail(ticket, "unknown", fmt.Sprintf("did not recognize input: %s", err))
		return
	}

	kind := string(msg.Kind())

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("engine panic", "ticket", ticket, "kind", kind, "panic", r)
			w.fail(ticket, kind, fmt.Sprintf("engine failure: %v", r))
		}
	}()

	if _, isSetEngine := msg.(protocol.SetEngine); !isSetEngine && w.toolkit == nil {
		w.fail(ticket, kind, MessageEngineNotSet)
		return
	}

	switch m := msg.(type) {
	case protocol.SetEngine:
		t, err := w.loader(m.Location)
		if err != nil {
			w.fail(ticket, kind, err.Error())
			return
		}
		w.toolkit = t

	case protocol.SetOptions:
		if err := w.toolkit.SetOptions(m.Options); err != nil {
			w.fail(ticket, kind, err.Error())
			return
		}

	case protocol.LoadDocument:
		if err := w.toolkit.LoadData(m.Content); err != nil {
			w.fail(ticket, kind, err.Error())
			return
		}
		w.send(ticket, protocol.DocumentLoaded{PageCount: w.toolkit.PageCount()})

	case protocol.RenderPage:
		w.render(ticket, kind, m.PageIndex, true)

	case protocol.Edit:
		if err := w.toolkit.Edit(m.Action); err != nil {
			w.fail(ticket, kind, fmt.Sprintf("edit %s '%s' failed: %s", m.Action.Action, m.Action.Target, err))
			return
		}
		w.render(ticket, kind, m.PageIndex, false)

	case protocol.GetDocument:
		document, err := w.toolkit.Document()
		if err != nil {
			w.fail(ticket, kind, err.Error())
			return
		}
		w.send(ticket, protocol.Document{Document: document})

	default:
		// responses are never addressed to a worker
		w.fail(ticket, kind, fmt.Sprintf("did not recognize input %s", kind))
		return
	}

	metrics.WorkerMessages.WithLabelValues(kind, "ok").Inc()
}

func (w *Worker) render(ticket protocol.Ticket, kind string, pageIndex int, rebuildOverlay bool) {
	started := time.Now()
	markup, err := w.toolkit.RenderPage(pageIndex + 1)
	metrics.WorkerRenderDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		w.fail(ticket, kind, fmt.Sprintf("render of page %d failed: %s", pageIndex, err))
		return
	}

	document, err := w.toolkit.Document()
	if err != nil {
		w.logger.Warn("document unavailable after render", "ticket", ticket, "err", err)
	}

	w.send(ticket, protocol.PageRendered{
		PageIndex:      pageIndex,
		Markup:         markup,
		RebuildOverlay: rebuildOverlay,
		Document:       document,
	})
}

func (w *Worker) fail(ticket protocol.Ticket, kind, reason string) {
	metrics.WorkerMessages.WithLabelValues(kind, "error").Inc()
	w.logger.Debug("worker error", "ticket", ticket, "kind", kind, "error", reason)
	w.send(ticket, protocol.Error{Error: reason})
}

func (w *Worker) send(ticket protocol.Ticket, msg protocol.Message) {
	data, err := protocol.Encode(ticket, msg)
	if err != nil {
		w.logger.Error("encode reply", "ticket", ticket, "kind", msg.Kind(), "err", err)
		return
	}
	w.reply(data)
}
