package ws

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fivestack-gg/fivestack/internal/roster"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
	failSend bool
	closed   bool
}

func (s *fakeSubscriber) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return errors.New("send failed")
	}
	s.payloads = append(s.payloads, p)
	return nil
}

func (s *fakeSubscriber) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSubscriber) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("condition not met in time")
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestHubDeliversToTeamSubscribers(t *testing.T) {
	h := NewHub(newLogger())
	defer h.Shutdown()

	subA := &fakeSubscriber{}
	subB := &fakeSubscriber{}
	h.Register("11111", subA)
	h.Register("22222", subB)

	h.Notify(roster.Event{ID: "e1", Type: roster.EventRosterChanged, TeamID: "11111"})
	waitFor(t, func() bool { return subA.received() == 1 })

	if subB.received() != 0 {
		t.Fatalf("event leaked to another team's subscriber")
	}

	var got roster.Event
	subA.mu.Lock()
	payload := subA.payloads[0]
	subA.mu.Unlock()
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "e1" || got.TeamID != "11111" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	h := NewHub(newLogger())
	defer h.Shutdown()

	bad := &fakeSubscriber{failSend: true}
	good := &fakeSubscriber{}
	h.Register("11111", bad)
	h.Register("11111", good)

	h.Notify(roster.Event{ID: "e1", Type: roster.EventRosterChanged, TeamID: "11111"})
	waitFor(t, func() bool { return good.received() == 1 })

	bad.mu.Lock()
	closed := bad.closed
	bad.mu.Unlock()
	if !closed {
		t.Fatalf("expected failing subscriber closed")
	}
}

func TestHubClosesStreamOnDisband(t *testing.T) {
	h := NewHub(newLogger())
	defer h.Shutdown()

	sub := &fakeSubscriber{}
	h.Register("11111", sub)

	h.Notify(roster.Event{ID: "e1", Type: roster.EventTeamDisbanded, TeamID: "11111"})
	waitFor(t, func() bool {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		return sub.closed && len(sub.payloads) == 1
	})
}

func TestUnregisterStopsDelivery(t *testing.T) {
	h := NewHub(newLogger())
	defer h.Shutdown()

	sub := &fakeSubscriber{}
	h.Register("11111", sub)
	h.Unregister("11111", sub)

	h.Notify(roster.Event{ID: "e1", Type: roster.EventRosterChanged, TeamID: "11111"})
	time.Sleep(20 * time.Millisecond)
	if sub.received() != 0 {
		t.Fatalf("unregistered subscriber still received events")
	}
}
