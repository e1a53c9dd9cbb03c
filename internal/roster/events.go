package roster

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates what the notification port can be told about.
type EventType string

const (
	EventTeamCreated    EventType = "team_created"
	EventRosterChanged  EventType = "roster_changed"
	EventPlayerPromoted EventType = "player_promoted"
	EventLeaderChanged  EventType = "leader_changed"
	EventTeamDisbanded  EventType = "team_disbanded"
)

// DisbandReason distinguishes a leader-requested disband from an expiry sweep.
type DisbandReason string

const (
	ReasonManual  DisbandReason = "manual"
	ReasonExpired DisbandReason = "expired"
)

// Event describes a committed roster transition. Events are emitted after the
// state change is durable in the registry; delivery is at-least-once and a
// consumer failure never rolls the transition back. The ID lets consumers
// deduplicate redelivered events.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	TeamID    string        `json:"team_id"`
	User      UserID        `json:"user,omitempty"`
	Reason    DisbandReason `json:"reason,omitempty"`
	Team      Snapshot      `json:"team"`
	EmittedAt time.Time     `json:"emitted_at"`
}

// Notifier is the notification port. Implementations must not block the
// caller for long; roster operations have already committed when notify runs.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ev Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Fanout forwards each event to every registered notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ev Event) {
	for _, n := range f {
		n.Notify(ev)
	}
}

func newEvent(typ EventType, snap Snapshot, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		TeamID:    snap.ID,
		Team:      snap,
		EmittedAt: now,
	}
}
