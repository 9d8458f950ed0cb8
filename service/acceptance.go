package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
	"github.com/go-json-experiment/json"

	"github.com/fulldump/scorepane/view"
)

type JSON = map[string]interface{}

// Score builds a document the draft engine understands, with one note per
// measure at y 600.
func Score(measures int) string {
	b := &strings.Builder{}
	b.WriteString(`<mei><music><body><mdiv><score><section>`)
	for i := 1; i <= measures; i++ {
		fmt.Fprintf(b, `<measure xml:id="m%d"><note xml:id="n%d" y="600"/></measure>`, i, i)
	}
	b.WriteString(`</section></score></mdiv></body></music></mei>`)
	return b.String()
}

func decode[T any](resp *apitest.Response) *T {
	v := new(T)
	if err := json.Unmarshal(resp.BodyBytes(), v); err != nil {
		panic(fmt.Sprintf("decode %T: %s: %s", v, err, resp.BodyString()))
	}
	return v
}

// waitFor polls path until check holds or a few seconds pass.
func waitFor[T any](apiRequest func(method, path string) *apitest.Request, method, path string, check func(v *T) bool) *T {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := apiRequest(method, path).Do()
		if resp.StatusCode == http.StatusOK {
			if v := decode[T](resp); check(v) {
				return v
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func rendered(s *view.Status) bool {
	return s.PageCount > 0 && s.Rendered == s.PageCount
}

// Acceptance expects a fresh service running the draft engine with a
// 400x300 default viewport.
func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Create view", func(a *biff.A) {
		resp := apiRequest("POST", "/views").
			WithBodyJson(JSON{
				"document": Score(12),
			}).Do()
		Save(resp, "Create view", `
			Registers a view and starts rendering the document. Pages arrive
			in the background; poll the view or listen to its events.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		created := decode[view.Status](resp)
		biff.AssertEqual(created.Handle, 1)
		biff.AssertEqual(created.Options.Scale, 40)

		status := waitFor(apiRequest, "GET", "/views/1", rendered)
		biff.AssertNotNil(status)
		biff.AssertEqual(status.PageCount, 2)

		a.Alternative("Retrieve view", func(a *biff.A) {
			resp := apiRequest("GET", "/views/1").Do()
			Save(resp, "Retrieve view", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			status := decode[view.Status](resp)
			biff.AssertEqual(status.Drag, "idle")
			biff.AssertEqual(len(status.Systems), 4)
			for i := 1; i < len(status.Systems); i++ {
				biff.AssertTrue(status.Systems[i].TopOffset > status.Systems[i-1].TopOffset)
			}
			biff.AssertEqual(status.Systems[0].ID, "system-1-1")
			biff.AssertEqual(status.Systems[3].Page, 1)
		})

		a.Alternative("List views", func(a *biff.A) {
			resp := apiRequest("GET", "/views").Do()
			Save(resp, "List views", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			list := decode[[]view.Status](resp)
			biff.AssertEqual(len(*list), 1)
			biff.AssertEqual((*list)[0].Handle, 1)
		})

		a.Alternative("Content", func(a *biff.A) {
			resp := apiRequest("GET", "/views/1/content").Do()
			Save(resp, "Content", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(strings.Count(resp.BodyString(), `class="page-wrapper"`), 2)
			biff.AssertTrue(strings.Contains(resp.BodyString(), `id="n7"`))

			a.Alternative("One page", func(a *biff.A) {
				resp := apiRequest("GET", "/views/1/content").WithQuery("page", "1").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertFalse(strings.Contains(resp.BodyString(), `id="n1"`))
				biff.AssertTrue(strings.Contains(resp.BodyString(), `id="n12"`))
			})

			a.Alternative("Page out of range", func(a *biff.A) {
				resp := apiRequest("GET", "/views/1/content").WithQuery("page", "9").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})
		})

		a.Alternative("Overlay", func(a *biff.A) {
			resp := apiRequest("GET", "/views/1/overlay").Do()
			Save(resp, "Overlay", `
				The overlay is a copy of the content without text, painted
				transparent except for the highlighted objects.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertTrue(strings.Contains(resp.BodyString(), `id="n1"`))
			biff.AssertFalse(strings.Contains(resp.BodyString(), `<text`))
		})

		a.Alternative("Zoom in", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:zoomIn").Do()
			Save(resp, "Zoom in", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["changed"], true)
			biff.AssertEqualJson(resp.BodyJsonMap()["navigation"].(JSON)["scale"], 50)

			status := waitFor(apiRequest, "GET", "/views/1", rendered)
			biff.AssertNotNil(status)
			biff.AssertEqual(status.Options.Scale, 50)
		})

		a.Alternative("Zoom beyond the maximum", func(a *biff.A) {
			for i := 0; i < 6; i++ {
				apiRequest("POST", "/views/1:zoomIn").Do()
			}
			resp := apiRequest("POST", "/views/1:zoomIn").Do()
			Save(resp, "Zoom in - at maximum", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["changed"], false)
			biff.AssertEqualJson(resp.BodyJsonMap()["navigation"].(JSON)["canZoomIn"], false)
		})

		a.Alternative("Toggle orientation", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:toggleOrientation").Do()
			Save(resp, "Toggle orientation", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["horizontal"], true)

			status := waitFor(apiRequest, "GET", "/views/1", rendered)
			biff.AssertNotNil(status)
			biff.AssertEqual(status.PageCount, 1)
			biff.AssertFalse(status.Navigation.CanNext)
		})

		a.Alternative("Next page", func(a *biff.A) {
			before := status.Navigation.CurrentSystem
			resp := apiRequest("POST", "/views/1:nextPage").Do()
			Save(resp, "Next page", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["currentSystem"], before+1)
		})

		a.Alternative("Scroll to an object", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:scrollTo").
				WithBodyJson(JSON{"target": "n12"}).Do()
			Save(resp, "Scroll to object", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["currentSystem"], 3)
			biff.AssertEqualJson(resp.BodyJsonMap()["canNext"], false)
		})

		a.Alternative("Click", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:click").
				WithBodyJson(JSON{"target": "n5"}).Do()
			Save(resp, "Click", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"target": "n5", "measure": "m5"})

			a.Alternative("Outside a measure", func(a *biff.A) {
				resp := apiRequest("POST", "/views/1:click").
					WithBodyJson(JSON{"target": "system-1-1"}).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusNoContent)
			})
		})

		a.Alternative("Drag a note", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:pointerDown").
				WithBodyJson(JSON{"target": "n1", "y": 100}).Do()
			Save(resp, "Pointer down", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"drag": "armed", "highlights": []string{"n1"}})

			resp = apiRequest("POST", "/views/1:pointerMove").
				WithBodyJson(JSON{"y": 110}).Do()
			biff.AssertEqualJson(resp.BodyJsonMap()["drag"], "dragging")

			resp = apiRequest("POST", "/views/1:pointerUp").
				WithBodyJson(JSON{"y": 110}).Do()
			Save(resp, "Pointer up", `
				Releasing after a move sends one edit per highlighted object
				and renders the page again.
			`)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"drag": "idle", "highlights": []string{}})

			type document struct {
				Document string `json:"document"`
			}
			moved := waitFor(apiRequest, "POST", "/views/1:document", func(d *document) bool {
				return !strings.Contains(d.Document, `xml:id="n1" y="600"`)
			})
			biff.AssertNotNil(moved)
			biff.AssertTrue(strings.Contains(moved.Document, `xml:id="n2" y="600"`))
		})

		a.Alternative("Pointer move without a gesture", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:pointerMove").
				WithBodyJson(JSON{"y": 110}).Do()
			Save(resp, "Pointer move - conflict", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Pointer down outside any object", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:pointerDown").
				WithBodyJson(JSON{"target": "ghost", "y": 10}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Document", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:document").Do()
			Save(resp, "Document", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertTrue(strings.Contains(resp.BodyJsonMap()["document"].(string), `xml:id="n12"`))
		})

		a.Alternative("Resize", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:resize").
				WithBodyJson(JSON{"width": 800, "height": 600}).Do()
			Save(resp, "Resize", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusAccepted)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"width": 800, "height": 600})
		})

		a.Alternative("Destroy", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:destroy").Do()
			Save(resp, "Destroy", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

			a.Alternative("Get destroyed view", func(a *biff.A) {
				resp := apiRequest("GET", "/views/1").Do()
				Save(resp, "Get view - not found", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})
	})

	a.Alternative("Create empty view", func(a *biff.A) {
		resp := apiRequest("POST", "/views").
			WithBodyJson(JSON{
				"viewport": JSON{"width": 1000, "height": 800},
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqual(decode[view.Status](resp).PageCount, 0)

		a.Alternative("Zoom without document", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:zoomOut").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["changed"], true)
		})

		a.Alternative("Load", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:load").
				WithBodyJson(JSON{"document": Score(3)}).Do()
			Save(resp, "Load", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			status := waitFor(apiRequest, "GET", "/views/1", rendered)
			biff.AssertNotNil(status)
			biff.AssertEqual(status.PageCount, 1)
		})

		a.Alternative("Load nothing", func(a *biff.A) {
			resp := apiRequest("POST", "/views/1:load").
				WithBodyJson(JSON{"document": ""}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})
	})

	a.Alternative("Invalid options", func(a *biff.A) {
		resp := apiRequest("POST", "/views").
			WithBodyJson(JSON{
				"options": JSON{"scale": 15, "border": 50},
			}).Do()
		Save(resp, "Create view - invalid options", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Malformed body", func(a *biff.A) {
		resp := apiRequest("POST", "/views").
			WithBodyString(`{"document": `).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Unknown view", func(a *biff.A) {
		resp := apiRequest("GET", "/views/99").Do()
		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Invalid handle", func(a *biff.A) {
		resp := apiRequest("GET", "/views/abc").Do()
		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})
}
