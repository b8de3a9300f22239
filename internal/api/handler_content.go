package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
)

// ContentHandler serves stored objects by path. It is the target of the
// locators produced by the memory and postgres backends.
type ContentHandler struct {
	store  contentstore.ContentStore
	logger *slog.Logger
}

func NewContentHandler(store contentstore.ContentStore, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{store: store, logger: logger}
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := contentstore.CleanPath(chi.URLParam(r, "*"))
	if p == "" {
		writeError(w, http.StatusNotFound, "content not found")
		return
	}

	obj, err := h.store.Get(r.Context(), p)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("failed to read content", "path", p, "error", err)
			writeError(w, status, "failed to read content")
			return
		}
		writeError(w, status, "content not found")
		return
	}

	etag := `"` + strings.Trim(obj.Version, `"`) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	ct := http.DetectContentType(obj.Content)
	if strings.HasSuffix(p, ".csv") {
		ct = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Content); err != nil {
		h.logger.Warn("failed to write content", "path", p, "error", err)
	}
}
