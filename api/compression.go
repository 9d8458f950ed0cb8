package api

import (
	"compress/gzip"
	"context"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/fulldump/box"
)

// Compression gzips the response when the client accepts it.
func Compression(next box.H) box.H {
	return func(ctx context.Context) {
		if skipCompression(box.GetRequest(ctx)) {
			next(ctx)
			return
		}

		w := box.GetResponse(ctx)
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")

		gz := gzip.NewWriter(w)
		defer gz.Close()
		box.GetBoxContext(ctx).Response = &gzipWriter{ResponseWriter: w, gz: gz}
		next(ctx)
	}
}

// skipCompression reports whether the response must be sent as is.
func skipCompression(r *http.Request) bool {
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		return true
	}

	// the event stream hijacks the raw connection
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return true
	}

	// already compressed formats
	mimeType := mime.TypeByExtension(path.Ext(r.URL.Path))
	return strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "font/")
}

type gzipWriter struct {
	http.ResponseWriter
	gz *gzip.Writer
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	return w.gz.Write(b)
}

// WriteHeader drops a length computed for the uncompressed body.
func (w *gzipWriter) WriteHeader(status int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(status)
}
