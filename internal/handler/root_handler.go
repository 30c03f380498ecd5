package handler

import (
	"embed"
	"io/fs"
	"net/http"

	"technotes-api/internal/middleware"
	"technotes-api/internal/model"
	"technotes-api/pkg/apierror"
)

//go:embed views/*.html public
var assets embed.FS

type RootHandler struct {
	index    []byte
	notFound []byte
	static   http.Handler
}

func NewRootHandler() (*RootHandler, error) {
	index, err := assets.ReadFile("views/index.html")
	if err != nil {
		return nil, err
	}
	notFound, err := assets.ReadFile("views/404.html")
	if err != nil {
		return nil, err
	}
	public, err := fs.Sub(assets, "public")
	if err != nil {
		return nil, err
	}

	return &RootHandler{
		index:    index,
		notFound: notFound,
		static:   http.FileServer(http.FS(public)),
	}, nil
}

func (h *RootHandler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.index)
}

// Static serves the embedded stylesheet tree; unknown files fall through to NotFound.
func (h *RootHandler) Static(w http.ResponseWriter, r *http.Request) {
	if _, err := fs.Stat(assets, "public"+r.URL.Path); err != nil {
		h.NotFound(w, r)
		return
	}
	h.static.ServeHTTP(w, r)
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	switch middleware.Negotiate(r) {
	case middleware.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(h.notFound)
	case middleware.FormatJSON:
		writeJSON(w, http.StatusNotFound, model.MessageResponse{Message: "404 Not Found"})
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404 Not Found"))
	}
}

func (h *RootHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, r, apierror.New("METHOD_NOT_ALLOWED", "Method not allowed", r.Method, http.StatusMethodNotAllowed))
}
