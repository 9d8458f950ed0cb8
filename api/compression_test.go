package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
	"github.com/fulldump/box"
)

func TestCompression(t *testing.T) {

	b := box.NewBox()
	b.WithInterceptors(Compression)
	b.Resource("/release").
		WithActions(box.Get(func() string {
			return "v1.2.3"
		}))
	b.Resource("/logo.png").
		WithActions(box.Get(func() string {
			return "png"
		}))

	api := apitest.NewWithHandler(b)
	defer api.Destroy()

	biff.Alternative("Compression", func(a *biff.A) {

		a.Alternative("Plain", func(a *biff.A) {
			resp := api.Request("GET", "/release").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.Header.Get("Content-Encoding"), "")
			biff.AssertEqual(resp.BodyString(), "\"v1.2.3\"\n")
		})

		a.Alternative("Gzip", func(a *biff.A) {
			resp := api.Request("GET", "/release").
				WithHeader("Accept-Encoding", "gzip").Do()
			biff.AssertEqual(resp.Header.Get("Content-Encoding"), "gzip")
			biff.AssertEqual(resp.Header.Get("Vary"), "Accept-Encoding")

			r, err := gzip.NewReader(resp.Body)
			biff.AssertNil(err)
			body, err := io.ReadAll(r)
			biff.AssertNil(err)
			biff.AssertEqual(string(body), "\"v1.2.3\"\n")
		})

		a.Alternative("Websocket upgrade is left alone", func(a *biff.A) {
			resp := api.Request("GET", "/release").
				WithHeader("Accept-Encoding", "gzip").
				WithHeader("Upgrade", "websocket").Do()
			biff.AssertEqual(resp.Header.Get("Content-Encoding"), "")
		})

		a.Alternative("Images are sent as they are", func(a *biff.A) {
			resp := api.Request("GET", "/logo.png").
				WithHeader("Accept-Encoding", "gzip").Do()
			biff.AssertEqual(resp.Header.Get("Content-Encoding"), "")
			biff.AssertEqual(resp.BodyString(), "\"png\"\n")
		})
	})
}
