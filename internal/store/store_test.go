package store

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fivestack-gg/fivestack/internal/roster"
)

type storeMock struct {
	upserts   []roster.Snapshot
	disbands  []roster.Snapshot
	reasons   []roster.DisbandReason
	upsertErr error
}

func (m *storeMock) UpsertSnapshot(snap roster.Snapshot) error {
	m.upserts = append(m.upserts, snap)
	return m.upsertErr
}

func (m *storeMock) MarkDisbanded(snap roster.Snapshot, reason roster.DisbandReason) error {
	m.disbands = append(m.disbands, snap)
	m.reasons = append(m.reasons, reason)
	return nil
}

func (m *storeMock) GetRecord(id string) (*TeamRecord, error) { return nil, nil }

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSnapshot() roster.Snapshot {
	return roster.Snapshot{
		ID:        "12345",
		Leader:    1,
		CreatedAt: time.Unix(1700000000, 0),
		Status:    roster.StatusActive,
	}
}

func TestRecorderUpsertsRosterEvents(t *testing.T) {
	mock := &storeMock{}
	rec := NewRecorder(mock, newLogger())

	rec.Notify(roster.Event{Type: roster.EventRosterChanged, TeamID: "12345", Team: sampleSnapshot()})
	rec.Notify(roster.Event{Type: roster.EventLeaderChanged, TeamID: "12345", Team: sampleSnapshot()})

	if len(mock.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(mock.upserts))
	}
	if len(mock.disbands) != 0 {
		t.Fatalf("expected no disband writes, got %d", len(mock.disbands))
	}
}

func TestRecorderMarksDisbandWithReason(t *testing.T) {
	mock := &storeMock{}
	rec := NewRecorder(mock, newLogger())

	rec.Notify(roster.Event{
		Type:   roster.EventTeamDisbanded,
		TeamID: "12345",
		Reason: roster.ReasonExpired,
		Team:   sampleSnapshot(),
	})

	if len(mock.disbands) != 1 || mock.reasons[0] != roster.ReasonExpired {
		t.Fatalf("expected one expired disband write, got %+v", mock.reasons)
	}
}

func TestRecorderSwallowsWriteFailures(t *testing.T) {
	mock := &storeMock{upsertErr: errors.New("db down")}
	rec := NewRecorder(mock, newLogger())

	// Must not panic; the roster transition already committed.
	rec.Notify(roster.Event{Type: roster.EventRosterChanged, TeamID: "12345", Team: sampleSnapshot()})
	if len(mock.upserts) != 1 {
		t.Fatalf("expected write attempted, got %d", len(mock.upserts))
	}
}

func TestRecordFromSerializesRoster(t *testing.T) {
	snap := sampleSnapshot()
	snap.Slots[0] = roster.Slot{UserID: 1, Occupied: true}
	snap.Reserve = []roster.UserID{6, 7}

	rec, err := recordFrom(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "12345" || rec.Leader != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Slots == "" || rec.Reserve != "[6,7]" {
		t.Fatalf("unexpected serialization: slots=%q reserve=%q", rec.Slots, rec.Reserve)
	}
}
