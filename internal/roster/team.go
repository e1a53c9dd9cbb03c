package roster

import (
	"sync"
	"time"
)

const (
	// SlotCount is the fixed number of active roster positions per team.
	SlotCount = 5
	// ReserveCap is the maximum number of players waiting in reserve.
	ReserveCap = 2
)

// UserID identifies a player. It is opaque to the roster core; the HTTP
// layer sources it from JWT claims.
type UserID uint

// TeamStatus tracks the one-way Active -> Disbanded transition.
type TeamStatus string

const (
	StatusActive    TeamStatus = "active"
	StatusDisbanded TeamStatus = "disbanded"
)

// Slot is a single roster position: either empty or held by exactly one player.
type Slot struct {
	UserID   UserID `json:"user_id,omitempty"`
	Occupied bool   `json:"occupied"`
}

// Team is the roster state for a single team. All mutation goes through the
// Engine, which serializes access per team; nothing outside this package may
// hold a reference to a live Team.
type Team struct {
	ID        string
	Leader    UserID
	Slots     [SlotCount]Slot
	Reserve   []UserID
	CreatedAt time.Time
	Status    TeamStatus

	// mu serializes all operations touching this team's state. Operations on
	// different teams never contend.
	mu sync.Mutex
}

func newTeam(id string, leader UserID, createdAt time.Time) *Team {
	t := &Team{
		ID:        id,
		Leader:    leader,
		CreatedAt: createdAt,
		Status:    StatusActive,
	}
	t.Slots[0] = Slot{UserID: leader, Occupied: true}
	return t
}

// occupiedCount reports how many slots currently hold a player.
func (t *Team) occupiedCount() int {
	n := 0
	for _, s := range t.Slots {
		if s.Occupied {
			n++
		}
	}
	return n
}

// freeSlot returns the lowest-index empty slot, or -1 when the roster is full.
func (t *Team) freeSlot() int {
	for i, s := range t.Slots {
		if !s.Occupied {
			return i
		}
	}
	return -1
}

func (t *Team) slotOf(user UserID) int {
	for i, s := range t.Slots {
		if s.Occupied && s.UserID == user {
			return i
		}
	}
	return -1
}

func (t *Team) reserveIndexOf(user UserID) int {
	for i, u := range t.Reserve {
		if u == user {
			return i
		}
	}
	return -1
}

// IsFull reports whether all active slots are taken. Reserve players do not
// count toward fullness.
func (t *Team) IsFull() bool {
	return t.freeSlot() == -1
}

// Snapshot is an immutable copy of a team's state, safe to hand to renderers,
// notification consumers and the persistence adapter.
type Snapshot struct {
	ID        string          `json:"id"`
	Leader    UserID          `json:"leader"`
	Slots     [SlotCount]Slot `json:"slots"`
	Reserve   []UserID        `json:"reserve"`
	CreatedAt time.Time       `json:"created_at"`
	Status    TeamStatus      `json:"status"`
	Full      bool            `json:"full"`
	FreeSlots int             `json:"free_slots"`
}

// snapshot must be called with the team lock held.
func (t *Team) snapshot() Snapshot {
	reserve := make([]UserID, len(t.Reserve))
	copy(reserve, t.Reserve)
	return Snapshot{
		ID:        t.ID,
		Leader:    t.Leader,
		Slots:     t.Slots,
		Reserve:   reserve,
		CreatedAt: t.CreatedAt,
		Status:    t.Status,
		Full:      t.IsFull(),
		FreeSlots: SlotCount - t.occupiedCount(),
	}
}

// Members returns the user ids seated in slots, in slot order.
func (s Snapshot) Members() []UserID {
	var out []UserID
	for _, slot := range s.Slots {
		if slot.Occupied {
			out = append(out, slot.UserID)
		}
	}
	return out
}
