package view

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fulldump/biff"

	"github.com/fulldump/scorepane/broker"
	"github.com/fulldump/scorepane/clock"
	"github.com/fulldump/scorepane/controller"
	"github.com/fulldump/scorepane/drag"
	"github.com/fulldump/scorepane/events"
	"github.com/fulldump/scorepane/protocol"
)

type request struct {
	ticket protocol.Ticket
	msg    protocol.Message
}

// fakeRouter sends through a real broker to a context that only records.
// Tests answer by hand, in whatever order they like.
type fakeRouter struct {
	broker   *broker.Broker
	requests []request
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{broker: broker.New(nil)}
}

func (r *fakeRouter) PostMessage(data []byte) {
	ticket, msg, err := protocol.Decode(data)
	if err != nil {
		panic(err)
	}
	r.requests = append(r.requests, request{ticket, msg})
}

func (r *fakeRouter) Route(handle controller.Handle, msg protocol.Message, continuation broker.Continuation) (protocol.Ticket, error) {
	return r.broker.Send(r, msg, continuation)
}

func (r *fakeRouter) RouteFuture(handle controller.Handle, msg protocol.Message) (*broker.Future, error) {
	return r.broker.SendFuture(r, msg)
}

func (r *fakeRouter) Post(task func()) bool {
	task()
	return true
}

func (r *fakeRouter) respond(ticket protocol.Ticket, msg protocol.Message) {
	data, err := protocol.Encode(ticket, msg)
	if err != nil {
		panic(err)
	}
	r.broker.Resolve(data)
}

func (r *fakeRouter) since(n int) []request {
	return r.requests[n:]
}

func (r *fakeRouter) find(kind protocol.Kind, from int) []request {
	found := []request{}
	for _, req := range r.requests[from:] {
		if req.msg.Kind() == kind {
			found = append(found, req)
		}
	}
	return found
}

// pageSVG draws a page 200 pixels high over 1000 content units with two
// systems, at content y 100 and 600. The note of the first system is at
// noteY.
func pageSVG(i int, noteY int) string {
	return fmt.Sprintf(`<svg width="100px" height="200px"><svg class="definition-scale" viewBox="0 0 500 1000">`+
		`<g class="page-margin" transform="translate(0, 0)">`+
		`<g class="system" id="s%[1]d-1"><path d="M0 100 L500 100"/>`+
		`<g class="measure" id="m%[1]d-1"><text x="0" y="120">%[1]d</text>`+
		`<g class="note" id="note%[1]d"><rect x="10" y="%[2]d"/></g></g></g>`+
		`<g class="system" id="s%[1]d-2"><path d="M0 600 L500 600"/></g>`+
		`</g></svg></svg>`, i, noteY)
}

func TestView(t *testing.T) {

	biff.Alternative("View", func(a *biff.A) {

		fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		v := New(&Config{
			Options:  protocol.DefaultRenderOptions(),
			Viewport: Viewport{Width: 800, Height: 600},
			Clock:    fake,
		})

		a.Alternative("Load before register", func(a *biff.A) {
			biff.AssertEqual(v.Load("<mei/>"), ErrNotBound)
		})

		router := newFakeRouter()
		v.Bind(1, router)

		a.Alternative("Nothing to render yet", func(a *biff.A) {
			biff.AssertEqual(v.reload(), ErrNoDocument)

			changed, err := v.ZoomIn()
			biff.AssertTrue(changed)
			biff.AssertNil(err)
			biff.AssertEqual(len(router.requests), 0)
		})

		a.Alternative("Load", func(a *biff.A) {
			biff.AssertNil(v.Load("<mei/>"))

			biff.AssertEqual(len(router.requests), 2)
			setOptions := router.requests[0].msg.(protocol.SetOptions)
			biff.AssertEqual(setOptions.Options.PageHeight, 1450) // 600 * 100/40 - 50
			biff.AssertEqual(setOptions.Options.PageWidth, 1950)
			biff.AssertEqual(router.requests[1].msg, protocol.LoadDocument{Content: "<mei/>"})

			loaded := []int{}
			v.Bus().Subscribe(events.TopicDocumentLoaded, func(evt events.Event) {
				loaded = append(loaded, evt.(events.DocumentLoaded).PageCount)
			})
			router.respond(router.requests[1].ticket, protocol.DocumentLoaded{PageCount: 3})
			biff.AssertEqual(loaded, []int{3})

			renders := router.find(protocol.KindRenderPage, 2)
			biff.AssertEqual(len(renders), 3)
			for i, r := range renders {
				biff.AssertEqual(r.msg, protocol.RenderPage{PageIndex: i})
			}

			a.Alternative("Pages arriving out of order", func(a *biff.A) {
				published := []int{}
				v.Bus().Subscribe(events.TopicPageRendered, func(evt events.Event) {
					published = append(published, evt.(events.PageRendered).PageIndex)
				})

				for _, page := range []int{2, 0, 1} {
					router.respond(renders[page].ticket, protocol.PageRendered{
						PageIndex:      page,
						Markup:         pageSVG(page, 100),
						RebuildOverlay: true,
						Document:       "<mei rev='1'/>",
					})
				}

				biff.AssertEqual(published, []int{2, 0, 1})

				status := v.Status()
				biff.AssertEqual(status.Rendered, 3)
				biff.AssertEqual(status.Navigation.TotalSystems, len(status.Systems))
				biff.AssertEqual(len(status.Systems), 6)
				for i, entry := range status.Systems {
					biff.AssertEqual(entry.Page, i/2)
					if i > 0 {
						biff.AssertTrue(entry.TopOffset > status.Systems[i-1].TopOffset)
					}
				}
				biff.AssertEqual(status.Systems[0].TopOffset, float64(-30))
				biff.AssertEqual(status.Systems[5].TopOffset, float64(470))
				biff.AssertEqual(v.Document(), "<mei rev='1'/>")

				a.Alternative("Navigation", func(a *biff.A) {
					// the first system is more than the tolerance above the top
					biff.AssertEqual(v.Navigation().CurrentSystem, 1)

					nav := v.NextPage()
					biff.AssertEqual(nav.CurrentSystem, 2)
					biff.AssertEqual(nav.ScrollTop, float64(170))

					nav = v.Scroll(400, 0)
					biff.AssertEqual(nav.CurrentSystem, 5)
					biff.AssertFalse(nav.CanNext)

					nav = v.PrevPage()
					biff.AssertEqual(nav.CurrentSystem, 4)

					biff.AssertNil(v.ScrollToObject("note1"))
					biff.AssertEqual(v.Navigation().CurrentSystem, 2)

					biff.AssertNil(v.ScrollToPage(2))
					biff.AssertEqual(v.Navigation().CurrentSystem, 4)
					biff.AssertNotNil(v.ScrollToPage(7))
				})

				a.Alternative("Click", func(a *biff.A) {
					var clicked events.ObjectClicked
					v.Bus().Subscribe(events.TopicObjectClicked, func(evt events.Event) {
						clicked = evt.(events.ObjectClicked)
					})

					result, err := v.Click("note1")
					biff.AssertNil(err)
					biff.AssertEqual(*result, events.ObjectClicked{Target: "note1", Measure: "m1-1"})
					biff.AssertEqual(clicked, *result)

					result, err = v.Click("s1-2")
					biff.AssertNil(err)
					biff.AssertNil(result)
				})

				a.Alternative("Zoom beyond the maximum", func(a *biff.A) {
					v.options.Scale = protocol.ScaleMax
					before := len(router.requests)

					changed, err := v.ZoomIn()
					biff.AssertNil(err)
					biff.AssertFalse(changed)
					biff.AssertEqual(v.Options().Scale, protocol.ScaleMax)
					biff.AssertEqual(len(router.requests), before)
					biff.AssertFalse(v.Navigation().CanZoomIn)
				})

				a.Alternative("Zoom out renders again", func(a *biff.A) {
					before := len(router.requests)

					changed, err := v.ZoomOut()
					biff.AssertNil(err)
					biff.AssertTrue(changed)

					sent := router.since(before)
					biff.AssertEqual(len(sent), 2)
					biff.AssertEqual(sent[0].msg.(protocol.SetOptions).Options.Scale, 30)
					biff.AssertEqual(len(v.Status().Systems), 0)
				})

				a.Alternative("Drag a note", func(a *biff.A) {
					before := len(router.requests)

					// 200 pixels show 1000 units: 5 units per pixel
					biff.AssertNil(v.PointerDown("note1", 300))
					biff.AssertEqual(v.DragState(), drag.Armed)
					biff.AssertEqual(v.Highlights(), []string{"note1"})

					biff.AssertNil(v.PointerMove(302))
					biff.AssertNil(v.PointerUp(303))

					sent := router.since(before)
					biff.AssertEqual(len(sent), 2)
					biff.AssertEqual(sent[0].msg, protocol.Edit{
						Action:    protocol.EditAction{Action: "drag", Target: "note1", X: 10, Y: 115},
						PageIndex: 1,
					})
					biff.AssertEqual(sent[1].msg, protocol.RenderPage{PageIndex: 1})
					biff.AssertEqual(len(v.Highlights()), 0)
					biff.AssertEqual(v.DragState(), drag.Idle)
				})

				a.Alternative("Click without drag keeps the selection", func(a *biff.A) {
					before := len(router.requests)

					biff.AssertNil(v.PointerDown("note2", 10))
					biff.AssertNil(v.PointerUp(10))

					biff.AssertEqual(len(router.since(before)), 0)
					biff.AssertEqual(v.Highlights(), []string{"note2"})
				})

				a.Alternative("Pointer events out of order", func(a *biff.A) {
					biff.AssertEqual(v.PointerMove(10), drag.ErrNotArmed)
					biff.AssertEqual(v.PointerUp(10), drag.ErrNotArmed)
					biff.AssertNotNil(v.PointerDown("m1-1", 10))
					biff.AssertNotNil(v.PointerDown("ghost", 10))
				})

				a.Alternative("Edit is committed only once the engine applies it", func(a *biff.A) {
					committed := []events.EditCommitted{}
					v.Bus().Subscribe(events.TopicEditCommitted, func(evt events.Event) {
						committed = append(committed, evt.(events.EditCommitted))
					})

					v.Edit(0, protocol.Drag("note0", 10, 200))
					rejected := router.requests[len(router.requests)-1]
					v.Edit(0, protocol.Drag("note0", 10, 300))
					applied := router.requests[len(router.requests)-1]
					biff.AssertEqual(len(committed), 0)

					router.respond(rejected.ticket, protocol.Error{Error: "cannot drag"})
					biff.AssertEqual(len(committed), 0)

					router.respond(applied.ticket, protocol.PageRendered{PageIndex: 0, Markup: pageSVG(0, 300)})
					biff.AssertEqual(committed, []events.EditCommitted{
						{Target: "note0", PageIndex: 0, X: 10, Y: 300},
					})
				})

				a.Alternative("Edit answer keeps the overlay", func(a *biff.A) {
					listeners := v.Status().Listeners
					v.Edit(0, protocol.Drag("note0", 10, 200))
					edit := router.requests[len(router.requests)-1]
					router.respond(edit.ticket, protocol.PageRendered{
						PageIndex: 0,
						Markup:    pageSVG(0, 200),
					})

					biff.AssertEqual(v.Status().Listeners, listeners)
					biff.AssertEqual(len(v.Status().Systems), 6)
				})

				a.Alternative("Close", func(a *biff.A) {
					v.Close()
					biff.AssertEqual(v.Status().Listeners, 0)
					biff.AssertEqual(v.Bus().ActiveTopics(), []events.Topic{})
				})
			})

			a.Alternative("Overlay rebuilt mid-drag still commits", func(a *biff.A) {
				router.respond(renders[0].ticket, protocol.PageRendered{PageIndex: 0, Markup: pageSVG(0, 100), RebuildOverlay: true})
				before := len(router.requests)

				biff.AssertNil(v.PointerDown("note0", 300))
				biff.AssertNil(v.PointerMove(302))
				biff.AssertEqual(v.overlay.Transform("note0"), "translate(0, 10)")

				// the page arrives while the pointer is still down
				router.respond(renders[1].ticket, protocol.PageRendered{PageIndex: 1, Markup: pageSVG(1, 100), RebuildOverlay: true})
				biff.AssertEqual(v.DragState(), drag.Dragging)
				biff.AssertEqual(v.overlay.Transform("note0"), "translate(0, 10)")

				biff.AssertNil(v.PointerUp(303))

				sent := router.since(before)
				biff.AssertEqual(len(sent), 2)
				biff.AssertEqual(sent[0].msg, protocol.Edit{
					Action:    protocol.EditAction{Action: "drag", Target: "note0", X: 10, Y: 115},
					PageIndex: 0,
				})
				biff.AssertEqual(sent[1].msg, protocol.RenderPage{PageIndex: 0})
				biff.AssertEqual(len(v.Highlights()), 0)
				biff.AssertEqual(v.DragState(), drag.Idle)
			})

			a.Alternative("Reload drops the gesture in progress", func(a *biff.A) {
				router.respond(renders[0].ticket, protocol.PageRendered{PageIndex: 0, Markup: pageSVG(0, 100), RebuildOverlay: true})

				biff.AssertNil(v.PointerDown("note0", 300))
				biff.AssertNil(v.PointerMove(302))
				biff.AssertNil(v.ToggleOrientation())

				before := len(router.requests)
				biff.AssertEqual(v.DragState(), drag.Idle)
				biff.AssertEqual(v.PointerUp(303), drag.ErrNotArmed)
				biff.AssertEqual(len(router.since(before)), 0)
			})

			a.Alternative("Responses of a previous load are ignored", func(a *biff.A) {
				published := 0
				v.Bus().Subscribe(events.TopicPageRendered, func(evt events.Event) {
					published++
				})

				biff.AssertNil(v.ToggleOrientation())
				biff.AssertTrue(v.Options().Horizontal())

				for page, r := range renders {
					router.respond(r.ticket, protocol.PageRendered{PageIndex: page, Markup: pageSVG(page, 100)})
				}

				biff.AssertEqual(published, 0)
				biff.AssertEqual(v.Status().Rendered, 0)
				biff.AssertEqual(router.broker.Pending(), 1) // the new loadDocument
			})

			a.Alternative("A failed page does not disturb the others", func(a *biff.A) {
				router.respond(renders[1].ticket, protocol.Error{Error: "render of page 1 failed"})
				router.respond(renders[0].ticket, protocol.PageRendered{PageIndex: 0, Markup: pageSVG(0, 100), RebuildOverlay: true})
				router.respond(renders[2].ticket, protocol.PageRendered{PageIndex: 2, Markup: pageSVG(2, 100), RebuildOverlay: true})

				status := v.Status()
				biff.AssertEqual(status.Rendered, 2)
				biff.AssertEqual(len(status.Systems), 4)
				biff.AssertEqual(status.Systems[2].Page, 2)
				biff.AssertEqual(router.broker.Pending(), 0)
			})

			a.Alternative("Fetch document", func(a *biff.A) {
				future, err := v.FetchDocument()
				biff.AssertNil(err)
				router.respond(future.Ticket(), protocol.Document{Document: "<mei/>"})

				msg, err := future.Wait(context.Background())
				biff.AssertNil(err)
				biff.AssertEqual(msg, protocol.Document{Document: "<mei/>"})
			})

			a.Alternative("Resize is debounced", func(a *biff.A) {
				before := len(router.requests)

				v.Resize(1000, 800)
				fake.Advance(100 * time.Millisecond)
				v.Resize(1200, 800)
				fake.Advance(100 * time.Millisecond)
				v.Resize(1200, 1000)
				fake.Advance(150 * time.Millisecond)
				biff.AssertEqual(len(router.since(before)), 0)

				fake.Advance(50 * time.Millisecond)
				sent := router.since(before)
				biff.AssertEqual(len(sent), 2)
				biff.AssertEqual(sent[0].msg.(protocol.SetOptions).Options.PageHeight, 2450) // 1000 * 100/40 - 50

				fake.Advance(time.Second)
				biff.AssertEqual(len(router.since(before)), 2)
			})
		})
	})
}
