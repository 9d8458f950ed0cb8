package statics

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed www/*
var www embed.FS

// ServeStatics serves the presentation client, from staticsDir when given
// or from the embedded copy otherwise.
func ServeStatics(staticsDir string) http.HandlerFunc {
	if staticsDir == "" {
		root, err := fs.Sub(www, "www")
		if err != nil {
			panic(err)
		}
		return http.FileServer(http.FS(root)).ServeHTTP
	}
	return http.FileServer(http.Dir(staticsDir)).ServeHTTP
}
