package roster

import (
	"log/slog"
	"time"
)

// JoinOutcome says where a join or invite landed the player.
type JoinOutcome string

const (
	// OutcomeJoined means the player took an active slot.
	OutcomeJoined JoinOutcome = "joined"
	// OutcomeReserved means the slots were full and the player queued in reserve.
	OutcomeReserved JoinOutcome = "reserved"
)

// JoinResult reports a successful join or invite.
type JoinResult struct {
	Outcome JoinOutcome
	Team    Snapshot
}

// LeaveOutcome classifies what a leave did to the team.
type LeaveOutcome string

const (
	// OutcomeLeft means a non-leader member vacated their slot.
	OutcomeLeft LeaveOutcome = "left"
	// OutcomeLeftReserve means the player was removed from the reserve queue.
	OutcomeLeftReserve LeaveOutcome = "left_reserve"
	// OutcomeLeftWithSuccession means the leader left and leadership moved on.
	OutcomeLeftWithSuccession LeaveOutcome = "left_with_succession"
	// OutcomeDisbanded means the leaving leader was the sole member and the
	// team dissolved with them.
	OutcomeDisbanded LeaveOutcome = "disbanded"
)

// LeaveResult reports a successful leave.
type LeaveResult struct {
	Outcome   LeaveOutcome
	NewLeader UserID // set only for OutcomeLeftWithSuccession
	Team      Snapshot
}

// DisbandResult carries the final roster so callers can tear down anything
// keyed to the team.
type DisbandResult struct {
	Forced bool
	Team   Snapshot
}

// Engine applies roster transitions. Every operation is atomic with respect
// to a single team: it locks the team, mutates, snapshots, and only then
// emits events. Event delivery failures never unwind a committed transition.
type Engine struct {
	reg      *Registry
	clock    Clock
	pick     SuccessorPicker
	notifier Notifier
	log      *slog.Logger
}

// NewEngine wires an engine over the given registry. notifier may be nil.
func NewEngine(reg *Registry, clock Clock, pick SuccessorPicker, notifier Notifier, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	if pick == nil {
		pick = RandomPicker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{reg: reg, clock: clock, pick: pick, notifier: notifier, log: logger}
}

// Registry exposes the underlying registry for read-side consumers.
func (e *Engine) Registry() *Registry { return e.reg }

func (e *Engine) emit(events []Event) {
	if e.notifier == nil {
		return
	}
	for _, ev := range events {
		e.notifier.Notify(ev)
	}
}

// Create makes a new team with user seated in slot 0 as leader.
func (e *Engine) Create(user UserID) (Snapshot, error) {
	now := e.clock.Now()
	t, err := e.reg.createTeam(user, now)
	if err != nil {
		return Snapshot{}, err
	}

	t.mu.Lock()
	snap := t.snapshot()
	t.mu.Unlock()

	e.log.Info("team created", "team_id", snap.ID, "leader", user)
	e.emit([]Event{newEvent(EventTeamCreated, snap, now)})
	return snap, nil
}

// Join seats user in the target team, queueing them in reserve when the
// slots are full.
func (e *Engine) Join(teamID string, user UserID) (JoinResult, error) {
	return e.place(teamID, user)
}

// Invite is Join on behalf of someone else; only the team leader may do it.
func (e *Engine) Invite(teamID string, inviter, invitee UserID) (JoinResult, error) {
	t := e.reg.get(teamID)
	if t == nil {
		return JoinResult{}, ErrTeamNotFound
	}

	t.mu.Lock()
	if t.Status != StatusActive {
		t.mu.Unlock()
		return JoinResult{}, ErrTeamNotFound
	}
	if t.Leader != inviter {
		t.mu.Unlock()
		return JoinResult{}, ErrNotLeader
	}
	res, events, err := e.placeLocked(t, invitee)
	t.mu.Unlock()

	if err != nil {
		return JoinResult{}, err
	}
	e.emit(events)
	return res, nil
}

func (e *Engine) place(teamID string, user UserID) (JoinResult, error) {
	t := e.reg.get(teamID)
	if t == nil {
		return JoinResult{}, ErrTeamNotFound
	}

	t.mu.Lock()
	if t.Status != StatusActive {
		t.mu.Unlock()
		return JoinResult{}, ErrTeamNotFound
	}
	res, events, err := e.placeLocked(t, user)
	t.mu.Unlock()

	if err != nil {
		return JoinResult{}, err
	}
	e.emit(events)
	return res, nil
}

// placeLocked seats user in the lowest free slot, or appends to reserve.
// Capacity is checked before the user index is claimed so a full team never
// leaves a stray index entry behind. Caller holds the team lock.
func (e *Engine) placeLocked(t *Team, user UserID) (JoinResult, []Event, error) {
	slot := t.freeSlot()
	if slot == -1 && len(t.Reserve) >= ReserveCap {
		// Membership errors win over capacity.
		if err := e.reg.checkUser(user, t.ID); err != nil {
			return JoinResult{}, nil, err
		}
		return JoinResult{}, nil, ErrTeamFull
	}

	if err := e.reg.claimUser(user, t.ID); err != nil {
		return JoinResult{}, nil, err
	}

	now := e.clock.Now()
	outcome := OutcomeJoined
	if slot >= 0 {
		t.Slots[slot] = Slot{UserID: user, Occupied: true}
	} else {
		t.Reserve = append(t.Reserve, user)
		outcome = OutcomeReserved
	}

	snap := t.snapshot()
	e.log.Info("player placed", "team_id", t.ID, "user", user, "outcome", outcome)

	ev := newEvent(EventRosterChanged, snap, now)
	ev.User = user
	return JoinResult{Outcome: outcome, Team: snap}, []Event{ev}, nil
}

// Leave removes user from the team, promoting from reserve and handing off
// leadership as needed. A leader leaving an otherwise empty team disbands it.
func (e *Engine) Leave(teamID string, user UserID) (LeaveResult, error) {
	t := e.reg.get(teamID)
	if t == nil {
		return LeaveResult{}, ErrNotAMember
	}

	t.mu.Lock()
	if t.Status != StatusActive {
		t.mu.Unlock()
		return LeaveResult{}, ErrNotAMember
	}

	now := e.clock.Now()

	// Reserve members just drop out of the queue.
	if ri := t.reserveIndexOf(user); ri >= 0 {
		t.Reserve = append(t.Reserve[:ri], t.Reserve[ri+1:]...)
		e.reg.releaseUser(user)
		snap := t.snapshot()
		t.mu.Unlock()

		ev := newEvent(EventRosterChanged, snap, now)
		ev.User = user
		e.emit([]Event{ev})
		return LeaveResult{Outcome: OutcomeLeftReserve, Team: snap}, nil
	}

	si := t.slotOf(user)
	if si == -1 {
		t.mu.Unlock()
		return LeaveResult{}, ErrNotAMember
	}

	if user != t.Leader {
		t.Slots[si] = Slot{}
		e.reg.releaseUser(user)
		promoted, hasPromoted := e.promoteFromReserve(t)
		snap := t.snapshot()
		t.mu.Unlock()

		events := []Event{}
		if hasPromoted {
			pev := newEvent(EventPlayerPromoted, snap, now)
			pev.User = promoted
			events = append(events, pev)
		}
		ev := newEvent(EventRosterChanged, snap, now)
		ev.User = user
		events = append(events, ev)
		e.emit(events)
		return LeaveResult{Outcome: OutcomeLeft, Team: snap}, nil
	}

	// Leader is leaving. With no other seated members the team dissolves.
	var candidates []UserID
	for i, s := range t.Slots {
		if s.Occupied && i != si {
			candidates = append(candidates, s.UserID)
		}
	}
	if len(candidates) == 0 {
		snap, events := e.disbandLocked(t, ReasonManual, now)
		t.mu.Unlock()
		e.emit(events)
		return LeaveResult{Outcome: OutcomeDisbanded, Team: snap}, nil
	}

	t.Slots[si] = Slot{}
	successor := e.pick(candidates)
	t.Leader = successor
	e.reg.releaseUser(user)
	promoted, hasPromoted := e.promoteFromReserve(t)
	snap := t.snapshot()
	t.mu.Unlock()

	e.log.Info("leader succession", "team_id", snap.ID, "old", user, "new", successor)

	events := []Event{}
	lev := newEvent(EventLeaderChanged, snap, now)
	lev.User = successor
	events = append(events, lev)
	if hasPromoted {
		pev := newEvent(EventPlayerPromoted, snap, now)
		pev.User = promoted
		events = append(events, pev)
	}
	ev := newEvent(EventRosterChanged, snap, now)
	ev.User = user
	events = append(events, ev)
	e.emit(events)
	return LeaveResult{Outcome: OutcomeLeftWithSuccession, NewLeader: successor, Team: snap}, nil
}

// promoteFromReserve pops the reserve head into the lowest free slot.
// Caller holds the team lock.
func (e *Engine) promoteFromReserve(t *Team) (UserID, bool) {
	if len(t.Reserve) == 0 {
		return 0, false
	}
	slot := t.freeSlot()
	if slot == -1 {
		return 0, false
	}
	head := t.Reserve[0]
	t.Reserve = append([]UserID{}, t.Reserve[1:]...)
	t.Slots[slot] = Slot{UserID: head, Occupied: true}
	return head, true
}

// Disband dissolves the team. Unless forced (expiry sweep), only the leader
// may request it. Disbanding an already-dissolved team reports ErrTeamNotFound.
func (e *Engine) Disband(teamID string, requester UserID, forced bool) (DisbandResult, error) {
	t := e.reg.get(teamID)
	if t == nil {
		return DisbandResult{}, ErrTeamNotFound
	}

	t.mu.Lock()
	if t.Status != StatusActive {
		t.mu.Unlock()
		return DisbandResult{}, ErrTeamNotFound
	}
	if !forced && t.Leader != requester {
		t.mu.Unlock()
		return DisbandResult{}, ErrNotLeader
	}

	reason := ReasonManual
	if forced {
		reason = ReasonExpired
	}
	snap, events := e.disbandLocked(t, reason, e.clock.Now())
	t.mu.Unlock()

	e.emit(events)
	return DisbandResult{Forced: forced, Team: snap}, nil
}

// disbandLocked flips the team to Disbanded, frees every held position in the
// user index and removes the team from the registry. Caller holds the team
// lock; the returned snapshot is the final roster for teardown and audit.
func (e *Engine) disbandLocked(t *Team, reason DisbandReason, now time.Time) (Snapshot, []Event) {
	t.Status = StatusDisbanded
	snap := t.snapshot()

	members := snap.Members()
	members = append(members, snap.Reserve...)
	e.reg.releaseAll(members)
	e.reg.remove(t.ID)

	e.log.Info("team disbanded", "team_id", t.ID, "reason", reason)

	ev := newEvent(EventTeamDisbanded, snap, now)
	ev.Reason = reason
	return snap, []Event{ev}
}

// View returns a read-only snapshot for rendering.
func (e *Engine) View(teamID string) (Snapshot, error) {
	t := e.reg.get(teamID)
	if t == nil {
		return Snapshot{}, ErrTeamNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status != StatusActive {
		return Snapshot{}, ErrTeamNotFound
	}
	return t.snapshot(), nil
}
