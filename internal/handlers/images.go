package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/scheduler"
)

// GetThumbnail serves the thumbnail of an asset, rendering it if needed.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := asset.ID(mux.Vars(r)["id"])
	handle, err := h.svc.RequestThumbnail(id, parsePriority(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.serveImage(w, r, handle)
}

// GetPreview serves the preview of an asset and prefetches its neighbours.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := asset.ID(mux.Vars(r)["id"])
	priority := parsePriority(r)
	handle, err := h.svc.RequestPreview(id, priority)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if priority == asset.Foreground && h.prefetchRadius > 0 {
		if err := h.svc.Prefetch(id, h.prefetchRadius); err != nil {
			log.Debug("prefetch around %s: %v", id, err)
		}
	}
	h.serveImage(w, r, handle)
}

func (h *Handlers) serveImage(w http.ResponseWriter, r *http.Request, handle *scheduler.Handle) {
	data, err := handle.Wait(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			// Client went away; the render still completes and is cached.
			return
		}
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Catalog-Generation", strconv.FormatUint(uint64(handle.Generation), 10))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		if _, err := w.Write(data); err != nil {
			log.Debug("write %s %s: %v", handle.Key.Variant, handle.Key.ID, err)
		}
	}
}

// parsePriority reads ?priority=background; everything else is foreground.
func parsePriority(r *http.Request) asset.Priority {
	if r.URL.Query().Get("priority") == "background" {
		return asset.Background
	}
	return asset.Foreground
}
