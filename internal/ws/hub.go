// Package ws pushes roster events to websocket subscribers, keyed by team id.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/fivestack-gg/fivestack/internal/roster"
)

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans roster events out to per-team subscriber sets. It implements
// roster.Notifier; delivery is best effort and never blocks a roster
// operation beyond marshalling and channel handoff.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[Subscriber]struct{}
	events  chan roster.Event
	done    chan struct{}
	log     *slog.Logger
}

// NewHub creates a hub and starts its delivery loop.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients: make(map[string]map[Subscriber]struct{}),
		events:  make(chan roster.Event, 64),
		done:    make(chan struct{}),
		log:     logger,
	}
	go h.run()
	return h
}

// Notify queues an event for delivery. If the hub is backed up the event is
// dropped; roster state is the source of truth and the next event carries a
// fresh snapshot.
func (h *Hub) Notify(ev roster.Event) {
	select {
	case h.events <- ev:
	default:
		h.log.Warn("event queue full, dropping", "team_id", ev.TeamID, "type", ev.Type)
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev roster.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[ev.TeamID]
	if !ok {
		return
	}
	for c := range clients {
		if err := c.Send(payload); err != nil {
			c.Close()
			delete(clients, c)
		}
	}
	// A disbanded team gets no further events; drop its subscriber set.
	if ev.Type == roster.EventTeamDisbanded || len(clients) == 0 {
		for c := range clients {
			c.Close()
		}
		delete(h.clients, ev.TeamID)
	}
}

// Register adds a client to a team's stream.
func (h *Hub) Register(teamID string, client Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[teamID]; !ok {
		h.clients[teamID] = make(map[Subscriber]struct{})
	}
	h.clients[teamID][client] = struct{}{}
}

// Unregister removes a client from a team's stream.
func (h *Hub) Unregister(teamID string, client Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[teamID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, teamID)
		}
	}
}

// Shutdown stops the delivery loop and closes every connection.
func (h *Hub) Shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for teamID, clients := range h.clients {
		for c := range clients {
			c.Close()
		}
		delete(h.clients, teamID)
	}
}
