package handlers

import (
	"net/http"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/service"
)

var log = logging.Component("http")

// DefaultPrefetchRadius is how many neighbours on each side of a viewed
// preview are rendered ahead in the background.
const DefaultPrefetchRadius = 2

type Handlers struct {
	svc            *service.Service
	events         http.Handler
	prefetchRadius int
	started        time.Time
}

// New creates the HTTP handlers. events serves the websocket endpoint and may be nil.
func New(svc *service.Service, events http.Handler, prefetchRadius int) *Handlers {
	return &Handlers{
		svc:            svc,
		events:         events,
		prefetchRadius: prefetchRadius,
		started:        time.Now(),
	}
}

// Events upgrades the connection and streams catalog events.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSONError(w, "Events are not available", http.StatusServiceUnavailable)
		return
	}
	h.events.ServeHTTP(w, r)
}
