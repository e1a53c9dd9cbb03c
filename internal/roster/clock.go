package roster

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// Clock supplies the current time. Injected so tests and the sweeper can
// control expiry without sleeping.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
func SystemClock() Clock { return ClockFunc(time.Now) }

// SuccessorPicker chooses the new leader from the remaining seated members
// when the current leader leaves. candidates is never empty.
type SuccessorPicker func(candidates []UserID) UserID

// RandomPicker returns a uniformly random picker seeded from crypto/rand.
// The underlying source is guarded by a mutex; pickers are shared across all
// teams.
func RandomPicker() SuccessorPicker {
	var seed int64
	var b [8]byte
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	} else {
		seed = time.Now().UnixNano()
	}
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(candidates []UserID) UserID {
		mu.Lock()
		defer mu.Unlock()
		return candidates[rng.Intn(len(candidates))]
	}
}
