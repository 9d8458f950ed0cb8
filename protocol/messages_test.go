package protocol

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"
)

func TestDecode(t *testing.T) {

	biff.Alternative("Decode", func(a *biff.A) {

		a.Alternative("Tagged triple keeps ticket and params", func(a *biff.A) {
			data, err := Encode(7, PageRendered{PageIndex: 2, Markup: "<svg/>", RebuildOverlay: true})
			biff.AssertNil(err)

			ticket, msg, err := Decode(data)
			biff.AssertNil(err)
			biff.AssertEqual(ticket, Ticket(7))
			biff.AssertEqual(msg, PageRendered{PageIndex: 2, Markup: "<svg/>", RebuildOverlay: true})
		})

		a.Alternative("Empty params", func(a *biff.A) {
			data, err := Encode(3, GetDocument{})
			biff.AssertNil(err)

			_, msg, err := Decode(data)
			biff.AssertNil(err)
			biff.AssertEqual(msg.Kind(), KindGetDocument)
		})

		a.Alternative("Unknown kind is rejected but ticket survives", func(a *biff.A) {
			data, err := EncodeRaw("mei", 11, map[string]any{})
			biff.AssertNil(err)

			ticket, msg, err := Decode(data)
			biff.AssertTrue(errors.Is(err, ErrUnknownKind))
			biff.AssertEqual(ticket, Ticket(11))
			biff.AssertTrue(msg == nil)
		})

		a.Alternative("Garbage", func(a *biff.A) {
			_, _, err := Decode([]byte{0xff, 0x00, 0x13})
			biff.AssertTrue(errors.Is(err, ErrMalformed))
		})

		a.Alternative("Params of the wrong shape", func(a *biff.A) {
			data, err := EncodeRaw(KindRenderPage, 5, "not a map")
			biff.AssertNil(err)

			ticket, _, err := Decode(data)
			biff.AssertTrue(errors.Is(err, ErrMalformed))
			biff.AssertEqual(ticket, Ticket(5))
		})
	})
}

func TestIsRequest(t *testing.T) {
	for _, kind := range []Kind{KindSetEngine, KindSetOptions, KindLoadDocument, KindRenderPage, KindEdit, KindGetDocument} {
		if !IsRequest(kind) {
			t.Errorf("%s should be a request", kind)
		}
	}
	for _, kind := range []Kind{KindError, KindDocumentLoaded, KindPageRendered, KindDocument, "other"} {
		if IsRequest(kind) {
			t.Errorf("%s should not be a request", kind)
		}
	}
}

func TestRenderOptions(t *testing.T) {

	biff.Alternative("Render options", func(a *biff.A) {
		o := DefaultRenderOptions()
		biff.AssertNil(o.Validate())

		a.Alternative("Scale is clamped", func(a *biff.A) {
			o.Scale = ScaleMax
			biff.AssertFalse(o.StepScale(ScaleStep))
			biff.AssertEqual(o.Scale, ScaleMax)

			o.Scale = ScaleMin
			biff.AssertFalse(o.StepScale(-ScaleStep))
			biff.AssertEqual(o.Scale, ScaleMin)

			biff.AssertTrue(o.StepScale(ScaleStep))
			biff.AssertEqual(o.Scale, ScaleMin+ScaleStep)
		})

		a.Alternative("Toggle layout", func(a *biff.A) {
			o.ToggleLayout()
			biff.AssertTrue(o.Horizontal())
			o.ToggleLayout()
			biff.AssertFalse(o.Horizontal())
		})

		a.Alternative("Fit viewport", func(a *biff.A) {
			o.Scale = 50
			o.Border = 50
			o.FitViewport(800, 600)
			biff.AssertEqual(o.PageWidth, 1550)
			biff.AssertEqual(o.PageHeight, 1150)

			o.FitViewport(10, 10)
			biff.AssertEqual(o.PageWidth, MinPageSize)
			biff.AssertEqual(o.PageHeight, MinPageSize)
		})

		a.Alternative("Invalid flag", func(a *biff.A) {
			o.NoLayout = 2
			biff.AssertTrue(errors.Is(o.Validate(), ErrInvalidOptions))
		})
	})
}
