package roster

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGenerateTeamIDShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := generateTeamID()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(id) != idLength {
			t.Fatalf("expected %d characters, got %q", idLength, id)
		}
		for _, c := range id {
			if c < '0' || c > '9' {
				t.Fatalf("expected digits only, got %q", id)
			}
		}
	}
}

func TestCreateTeamCollisionRetries(t *testing.T) {
	reg := NewRegistry()

	// Occupy a large share of the id space; creation must still find a gap.
	for i := 0; i < 500; i++ {
		if _, err := reg.createTeam(UserID(i+1), time.Now()); err != nil {
			t.Fatalf("create %d: unexpected error: %v", i, err)
		}
	}
	if reg.Len() != 500 {
		t.Fatalf("expected 500 live teams, got %d", reg.Len())
	}
}

func TestAllActiveReturnsDetachedCopies(t *testing.T) {
	reg := NewRegistry()
	team, err := reg.createTeam(1, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snaps := reg.AllActive()
	if len(snaps) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(snaps))
	}

	// Mutating the snapshot must not touch the live team.
	snaps[0].Slots[0] = Slot{}
	snaps[0].Reserve = append(snaps[0].Reserve, 99)
	if !team.Slots[0].Occupied || team.Slots[0].UserID != 1 {
		t.Fatalf("live roster mutated through snapshot")
	}
	if len(team.Reserve) != 0 {
		t.Fatalf("live reserve mutated through snapshot")
	}
}

func TestUserIndex(t *testing.T) {
	reg := NewRegistry()
	team, err := reg.createTeam(1, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id, ok := reg.TeamOf(1); !ok || id != team.ID {
		t.Fatalf("expected creator indexed to %s, got %s %v", team.ID, id, ok)
	}
	if err := reg.claimUser(1, team.ID); !errors.Is(err, ErrAlreadyInThisTeam) {
		t.Fatalf("expected ErrAlreadyInThisTeam, got %v", err)
	}
	if err := reg.claimUser(1, "other"); !errors.Is(err, ErrAlreadyInAnyTeam) {
		t.Fatalf("expected ErrAlreadyInAnyTeam, got %v", err)
	}

	reg.releaseUser(1)
	if _, ok := reg.TeamOf(1); ok {
		t.Fatalf("expected index entry released")
	}
}

// TestConcurrentJoinsRespectCapacity hammers one team from many goroutines
// and checks the 5-slot/2-reserve bounds and single-membership afterwards.
func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	eng, _ := newTestEngine()
	snap, err := eng.Create(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const players = 30
	var wg sync.WaitGroup
	for u := UserID(2); u <= players+1; u++ {
		wg.Add(1)
		go func(u UserID) {
			defer wg.Done()
			_, _ = eng.Join(snap.ID, u)
		}(u)
	}
	wg.Wait()

	view, err := eng.View(snap.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seated := view.Members()
	if len(seated) != SlotCount {
		t.Fatalf("expected %d seated members, got %d", SlotCount, len(seated))
	}
	if len(view.Reserve) != ReserveCap {
		t.Fatalf("expected %d reserved, got %d", ReserveCap, len(view.Reserve))
	}

	seen := map[UserID]bool{}
	for _, u := range append(seated, view.Reserve...) {
		if seen[u] {
			t.Fatalf("user %d holds two positions", u)
		}
		seen[u] = true
	}
}

// TestConcurrentLeaveAndJoin interleaves churn on two teams and verifies the
// user index never double-books anyone.
func TestConcurrentLeaveAndJoin(t *testing.T) {
	eng, _ := newTestEngine()
	a, _ := eng.Create(1)
	b, _ := eng.Create(2)

	var wg sync.WaitGroup
	for u := UserID(10); u < 30; u++ {
		wg.Add(1)
		go func(u UserID) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if _, err := eng.Join(a.ID, u); err == nil {
					_, _ = eng.Leave(a.ID, u)
				}
				if _, err := eng.Join(b.ID, u); err == nil {
					_, _ = eng.Leave(b.ID, u)
				}
			}
		}(u)
	}
	wg.Wait()

	va, err := eng.View(a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vb, err := eng.View(b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[UserID]bool{}
	for _, v := range []Snapshot{va, vb} {
		for _, u := range append(v.Members(), v.Reserve...) {
			if seen[u] {
				t.Fatalf("user %d appears in both teams", u)
			}
			seen[u] = true
		}
	}
}
