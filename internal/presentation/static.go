package presentation

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed web/*
var webFS embed.FS

// MountStatic serves the single page UI. It must be mounted after the API routes.
func MountStatic(r chi.Router) {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, sub, "index.html")
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
}
