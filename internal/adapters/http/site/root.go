// Package site serves the landing page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the landing page to mux. Unknown paths fall through to
// the file server and get a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
