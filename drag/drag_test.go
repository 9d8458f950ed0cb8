package drag

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/scorepane/highlight"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/surface"
)

// 100 pixels show 150 content units: scale factor 1.5
const page = `<svg width="100px" height="100px"><svg class="definition-scale" viewBox="0 0 150 150">` +
	`<g class="page-margin"><g class="system" id="s1"><g class="measure" id="m1">` +
	`<g class="note" id="note12"><rect x="10" y="40"/></g>` +
	`<g class="note" id="note13"><rect x="30" y="70"/></g>` +
	`</g></g></g></svg></svg>`

type request struct {
	kind   protocol.Kind
	page   int
	action protocol.EditAction
}

type recordingEditor struct {
	requests []request
}

func (r *recordingEditor) Edit(pageIndex int, action protocol.EditAction) {
	r.requests = append(r.requests, request{kind: protocol.KindEdit, page: pageIndex, action: action})
}

func (r *recordingEditor) RenderPage(pageIndex int) {
	r.requests = append(r.requests, request{kind: protocol.KindRenderPage, page: pageIndex})
}

func TestTransaction(t *testing.T) {

	biff.Alternative("Drag transaction", func(a *biff.A) {

		content := surface.New()
		content.EnsurePages(3)
		biff.AssertNil(content.SetPage(2, page))

		overlay := surface.New()
		highlights := highlight.New(content, overlay)
		editor := &recordingEditor{}
		tx := New(overlay, highlights, editor)
		highlights.RebuildOverlay("note", tx.Handle)

		a.Alternative("Events before pointer down are rejected", func(a *biff.A) {
			biff.AssertTrue(errors.Is(tx.PointerMove(10), ErrNotArmed))
			_, err := tx.PointerUp(10)
			biff.AssertTrue(errors.Is(err, ErrNotArmed))
		})

		a.Alternative("Pointer down on something that is not there", func(a *biff.A) {
			err := tx.PointerDown("ghost", 10)
			biff.AssertTrue(errors.Is(err, surface.ErrNotFound))
			biff.AssertEqual(tx.State(), Idle)
		})

		a.Alternative("Pointer down through the overlay", func(a *biff.A) {
			handled := overlay.Dispatch(surface.Event{Type: surface.PointerDown, Target: "note12", Y: 100})
			biff.AssertTrue(handled)
			biff.AssertEqual(tx.State(), Armed)
			biff.AssertTrue(overlay.Captured())
			biff.AssertEqual(highlights.Active(), []string{"note12"})

			g := tx.Gesture()
			biff.AssertEqual(g.OriginX, float64(10))
			biff.AssertEqual(g.InitialObjectY, float64(40))
			biff.AssertEqual(g.ScaleFactor, 1.5)
			biff.AssertEqual(g.PageIndex, 2)

			a.Alternative("Click without drag", func(a *biff.A) {
				overlay.Dispatch(surface.Event{Type: surface.PointerUp, Y: 100})

				biff.AssertEqual(len(editor.requests), 0)
				biff.AssertEqual(tx.State(), Idle)
				biff.AssertFalse(overlay.Captured())
				biff.AssertTrue(highlights.IsActive("note12"))
			})

			a.Alternative("Drag and commit", func(a *biff.A) {
				// moves outside the note are still captured
				overlay.Dispatch(surface.Event{Type: surface.PointerMove, Target: "m1", Y: 104})
				biff.AssertEqual(tx.State(), Dragging)
				biff.AssertEqual(overlay.Transform("note12"), "translate(0, 6)")
				biff.AssertEqual(len(editor.requests), 0)

				overlay.Dispatch(surface.Event{Type: surface.PointerMove, Y: 110})
				overlay.Dispatch(surface.Event{Type: surface.PointerUp, Y: 110})

				biff.AssertEqual(editor.requests, []request{
					{kind: protocol.KindEdit, page: 2, action: protocol.EditAction{
						Action: "drag", Target: "note12", X: 10, Y: 55,
					}},
					{kind: protocol.KindRenderPage, page: 2},
				})
				biff.AssertEqual(tx.State(), Idle)
				biff.AssertFalse(highlights.IsActive("note12"))
				biff.AssertEqual(overlay.Transform("note12"), "")
			})

			a.Alternative("Overlay rebuilt while dragging", func(a *biff.A) {
				overlay.Dispatch(surface.Event{Type: surface.PointerMove, Y: 104})

				highlights.RebuildOverlay("note", tx.Handle)
				biff.AssertTrue(overlay.Captured())
				biff.AssertEqual(overlay.Transform("note12"), "")

				tx.Refresh()
				biff.AssertEqual(overlay.Transform("note12"), "translate(0, 6)")

				overlay.Dispatch(surface.Event{Type: surface.PointerUp, Y: 110})
				biff.AssertEqual(len(editor.requests), 2)
				biff.AssertEqual(editor.requests[0].action.Y, 55)
				biff.AssertEqual(tx.State(), Idle)
			})

			a.Alternative("Cancel", func(a *biff.A) {
				tx.PointerMove(104)
				tx.Cancel()

				biff.AssertEqual(tx.State(), Idle)
				biff.AssertFalse(overlay.Captured())
				biff.AssertEqual(overlay.Transform("note12"), "")
				biff.AssertEqual(len(editor.requests), 0)
			})

			a.Alternative("A new pointer down replaces the gesture", func(a *biff.A) {
				tx.PointerMove(120)
				biff.AssertNil(tx.PointerDown("note13", 50))

				biff.AssertEqual(highlights.Active(), []string{"note13"})
				biff.AssertEqual(overlay.Transform("note12"), "")
				biff.AssertEqual(tx.State(), Armed)
			})
		})
	})
}
