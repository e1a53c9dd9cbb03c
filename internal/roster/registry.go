package roster

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

const (
	idLength      = 5
	idMaxAttempts = 50
)

// Registry owns the set of live teams and the user index that backs the
// cross-team membership check. The registry mutex guards both maps; it is
// never held while acquiring a team lock, so operations on distinct teams
// proceed independently.
type Registry struct {
	mu     sync.RWMutex
	teams  map[string]*Team
	byUser map[UserID]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		teams:  make(map[string]*Team),
		byUser: make(map[UserID]string),
	}
}

// generateTeamID produces a random 5-digit id, matching the id scheme users
// see in chat commands.
func generateTeamID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i := range b {
		b[i] = '0' + b[i]%10
	}
	return string(b), nil
}

// createTeam atomically verifies the creator is unseated, generates a fresh
// unique id and inserts the new team. Collisions with live ids are retried.
func (r *Registry) createTeam(creator UserID, now time.Time) (*Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUser[creator]; taken {
		return nil, ErrAlreadyInAnyTeam
	}

	for attempt := 0; attempt < idMaxAttempts; attempt++ {
		id, err := generateTeamID()
		if err != nil {
			return nil, err
		}
		if _, exists := r.teams[id]; exists {
			continue
		}
		t := newTeam(id, creator, now)
		r.teams[id] = t
		r.byUser[creator] = id
		return t, nil
	}
	return nil, ErrIDGenerationExhausted
}

// get returns the live team for id, or nil. The caller must take the team
// lock and re-check Status before touching its state.
func (r *Registry) get(id string) *Team {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.teams[id]
}

// remove deletes the team entry. Safe to call once per disband.
func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.teams, id)
}

// claimUser records that user now belongs to teamID. It fails when the user
// already holds a position anywhere, distinguishing the target team from
// others so callers can report the right error.
func (r *Registry) claimUser(user UserID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, taken := r.byUser[user]; taken {
		if current == teamID {
			return ErrAlreadyInThisTeam
		}
		return ErrAlreadyInAnyTeam
	}
	r.byUser[user] = teamID
	return nil
}

// checkUser reports the membership error a claim would produce, without
// claiming anything.
func (r *Registry) checkUser(user UserID, teamID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if current, taken := r.byUser[user]; taken {
		if current == teamID {
			return ErrAlreadyInThisTeam
		}
		return ErrAlreadyInAnyTeam
	}
	return nil
}

// releaseUser drops the user's index entry.
func (r *Registry) releaseUser(user UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, user)
}

// releaseAll drops index entries for every listed user in one critical section.
func (r *Registry) releaseAll(users []UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		delete(r.byUser, u)
	}
}

// TeamOf reports which team, if any, the user currently belongs to.
func (r *Registry) TeamOf(user UserID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[user]
	return id, ok
}

// liveTeams copies the current team pointers so callers can lock and snapshot
// each team without holding the registry mutex.
func (r *Registry) liveTeams() []*Team {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Team, 0, len(r.teams))
	for _, t := range r.teams {
		out = append(out, t)
	}
	return out
}

// AllActive returns point-in-time snapshots of every active team. The copies
// share no state with the live rosters.
func (r *Registry) AllActive() []Snapshot {
	teams := r.liveTeams()
	out := make([]Snapshot, 0, len(teams))
	for _, t := range teams {
		t.mu.Lock()
		if t.Status == StatusActive {
			out = append(out, t.snapshot())
		}
		t.mu.Unlock()
	}
	return out
}

// Len reports the number of live teams.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.teams)
}
