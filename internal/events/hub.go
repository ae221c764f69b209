package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"photo-catalog/internal/asset"
	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

var log = logging.Component("events")

// Message types
const (
	MsgAssetsAdded    = "assets.added"
	MsgAssetsModified = "assets.modified"
	MsgAssetsRemoved  = "assets.removed"
	MsgThumbnailReady = "thumbnail.ready"
	MsgPreviewReady   = "preview.ready"
	MsgFailure        = "request.failed"
)

// Message is one event sent to every connected client. Ready events carry
// only the asset ID; clients fetch the bytes over HTTP.
type Message struct {
	Type      string        `json:"type"`
	Assets    []asset.Asset `json:"assets,omitempty"`
	IDs       []asset.ID    `json:"ids,omitempty"`
	ID        asset.ID      `json:"id,omitempty"`
	Variant   asset.Variant `json:"variant,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

const broadcastBuffer = 256

// Hub fans catalog events out to websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

var _ catalog.Subscriber = (*Hub)(nil)

// NewHub creates a hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Run processes registrations and broadcasts until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			metrics.EventSubscribers.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.EventSubscribers.Set(float64(n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.EventSubscribers.Set(float64(n))

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Error("failed to marshal %s event: %v", message.Type, err)
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					log.Debug("dropping slow client %s", client.conn.RemoteAddr())
					delete(h.clients, client)
					close(client.send)
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.EventSubscribers.Set(float64(n))
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, broadcastBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// publish queues a message without blocking. Subscribers are called with the
// service's coordinating lock held, so a full queue drops the event.
func (h *Hub) publish(m *Message) {
	m.Timestamp = time.Now()
	select {
	case h.broadcast <- m:
	default:
		log.Warn("event queue full, dropping %s event", m.Type)
	}
}

func (h *Hub) OnAssetsAdded(assets []asset.Asset) {
	h.publish(&Message{Type: MsgAssetsAdded, Assets: assets})
}

func (h *Hub) OnAssetsModified(assets []asset.Asset) {
	h.publish(&Message{Type: MsgAssetsModified, Assets: assets})
}

func (h *Hub) OnAssetsRemoved(ids []asset.ID) {
	h.publish(&Message{Type: MsgAssetsRemoved, IDs: ids})
}

func (h *Hub) OnThumbnailReady(id asset.ID, _ []byte) {
	h.publish(&Message{Type: MsgThumbnailReady, ID: id, Variant: asset.VariantThumbnail})
}

func (h *Hub) OnPreviewReady(id asset.ID, _ []byte) {
	h.publish(&Message{Type: MsgPreviewReady, ID: id, Variant: asset.VariantPreview})
}

func (h *Hub) OnFailure(id asset.ID, v asset.Variant, err error) {
	h.publish(&Message{Type: MsgFailure, ID: id, Variant: v, Error: err.Error()})
}
