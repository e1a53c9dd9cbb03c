// Package store persists roster snapshots so a restarted process can audit
// past teams. Writes are idempotent upserts keyed by team id; the in-memory
// registry remains the source of truth and a write failure never unwinds a
// committed roster transition.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fivestack-gg/fivestack/internal/roster"
)

// TeamRecord is the persisted shape of a roster snapshot. Slots and reserve
// are stored as JSON; the schema does not prescribe how a reader uses them.
type TeamRecord struct {
	ID          string    `json:"id" gorm:"primaryKey;size:16"`
	Leader      uint      `json:"leader" gorm:"not null"`
	Slots       string    `json:"slots" gorm:"type:json"`
	Reserve     string    `json:"reserve" gorm:"type:json"`
	Status      string    `json:"status" gorm:"index"`
	DisbandedBy string    `json:"disbanded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamStore defines the persistence operations the adapter needs.
type TeamStore interface {
	UpsertSnapshot(snap roster.Snapshot) error
	MarkDisbanded(snap roster.Snapshot, reason roster.DisbandReason) error
	GetRecord(id string) (*TeamRecord, error)
}

type teamStore struct {
	db *gorm.DB
}

// NewTeamStore creates a gorm-backed TeamStore.
func NewTeamStore(db *gorm.DB) TeamStore {
	return &teamStore{db: db}
}

func recordFrom(snap roster.Snapshot) (*TeamRecord, error) {
	slots, err := json.Marshal(snap.Slots)
	if err != nil {
		return nil, fmt.Errorf("marshal slots: %w", err)
	}
	reserve, err := json.Marshal(snap.Reserve)
	if err != nil {
		return nil, fmt.Errorf("marshal reserve: %w", err)
	}
	return &TeamRecord{
		ID:        snap.ID,
		Leader:    uint(snap.Leader),
		Slots:     string(slots),
		Reserve:   string(reserve),
		Status:    string(snap.Status),
		CreatedAt: snap.CreatedAt,
	}, nil
}

func (s *teamStore) UpsertSnapshot(snap roster.Snapshot) error {
	rec, err := recordFrom(snap)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"leader", "slots", "reserve", "status", "updated_at"}),
	}).Create(rec).Error
}

func (s *teamStore) MarkDisbanded(snap roster.Snapshot, reason roster.DisbandReason) error {
	rec, err := recordFrom(snap)
	if err != nil {
		return err
	}
	rec.Status = string(roster.StatusDisbanded)
	rec.DisbandedBy = string(reason)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"leader", "slots", "reserve", "status", "disbanded_by", "updated_at"}),
	}).Create(rec).Error
}

func (s *teamStore) GetRecord(id string) (*TeamRecord, error) {
	var rec TeamRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Recorder adapts a TeamStore to the roster.Notifier interface. Failures are
// logged and swallowed; presentation and persistence stay eventually
// consistent with the roster.
type Recorder struct {
	store TeamStore
	log   *slog.Logger
}

// NewRecorder wraps a store as an event consumer.
func NewRecorder(store TeamStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, log: logger}
}

// Notify writes the event's snapshot.
func (r *Recorder) Notify(ev roster.Event) {
	var err error
	switch ev.Type {
	case roster.EventTeamDisbanded:
		err = r.store.MarkDisbanded(ev.Team, ev.Reason)
	default:
		err = r.store.UpsertSnapshot(ev.Team)
	}
	if err != nil {
		r.log.Warn("persist snapshot failed", "team_id", ev.TeamID, "type", ev.Type, "error", err)
	}
}
