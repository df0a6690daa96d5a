package secretsanta

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
)

var t0 = time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)

type stubAssigner struct {
	calls  int
	result map[uuid.UUID]uuid.UUID
	err    error
}

func (s *stubAssigner) Assign(_ []DrawParticipant) (map[uuid.UUID]uuid.UUID, error) {
	s.calls++
	return s.result, s.err
}

func newSantaWith(t *testing.T, n int) SecretSanta {
	t.Helper()
	ss, err := New(uuid.New(), uuid.New(), nil, nil, t0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ps := make([]Participant, 0, n)
	for i := 1; i <= n; i++ {
		ps = append(ps, NewParticipant(pid(i), ss.ID, uuid.New(), t0))
	}
	ss, err = ss.AddParticipants(ps, t0)
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	return ss
}

func seeded() *Engine { return NewEngine(rand.New(rand.NewPCG(1, 2))) }

func TestNewValidatesBudget(t *testing.T) {
	zero := 0.0
	if _, err := New(uuid.New(), uuid.New(), &zero, nil, t0); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("want=%v got=%v", ErrInvalidBudget, err)
	}
	budget := 25.5
	desc := "  bring wrapping paper "
	ss, err := New(uuid.New(), uuid.New(), &budget, &desc, t0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ss.Status != StatusCreated || ss.Version != 1 || len(ss.Participants) != 0 {
		t.Fatalf("unexpected initial state: %+v", ss)
	}
	if ss.Description == nil || *ss.Description != "bring wrapping paper" {
		t.Fatalf("description: want=%q got=%v", "bring wrapping paper", ss.Description)
	}
	budget = 99
	if *ss.Budget != 25.5 {
		t.Fatalf("budget aliased caller pointer: got=%v", *ss.Budget)
	}
}

func TestStartAssignsEveryParticipant(t *testing.T) {
	ss := newSantaWith(t, 4)
	later := t0.Add(time.Hour)
	started, err := ss.Start(seeded(), later)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != StatusStarted {
		t.Fatalf("status: want=%s got=%s", StatusStarted, started.Status)
	}
	for _, p := range started.Participants {
		if p.DrawnParticipantID == nil {
			t.Fatalf("participant %s has no draw", p.ID)
		}
		if !p.UpdatedAt.Equal(later) {
			t.Fatalf("updated_at: want=%v got=%v", later, p.UpdatedAt)
		}
	}
	if err := started.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}

	// receiver untouched
	if ss.Status != StatusCreated || ss.HasDraws() {
		t.Fatalf("Start mutated the receiver: %+v", ss)
	}
}

func TestStartTwiceFailsAndKeepsDraws(t *testing.T) {
	started, err := newSantaWith(t, 3).Start(seeded(), t0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := map[uuid.UUID]uuid.UUID{}
	for _, p := range started.Participants {
		before[p.ID] = *p.DrawnParticipantID
	}

	stub := &stubAssigner{}
	again, err := started.Start(stub, t0)
	if !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("want=%v got=%v", ErrAlreadyStarted, err)
	}
	if stub.calls != 0 {
		t.Fatalf("engine calls: want=0 got=%d", stub.calls)
	}
	for _, p := range again.Participants {
		if *p.DrawnParticipantID != before[p.ID] {
			t.Fatalf("draw of %s changed", p.ID)
		}
	}
}

func TestStartPropagatesEngineError(t *testing.T) {
	ss := newSantaWith(t, 2)
	ss, err := ss.UpdateExclusions(pid(2), []uuid.UUID{pid(1)}, t0)
	if err != nil {
		t.Fatalf("UpdateExclusions: %v", err)
	}
	_, err = ss.Start(seeded(), t0)
	if !errors.Is(err, ErrInfeasible) || !IsDrawError(err) {
		t.Fatalf("want draw error %v got=%v", ErrInfeasible, err)
	}
}

func TestStartRejectsInvalidEngineResult(t *testing.T) {
	ss := newSantaWith(t, 2)
	stub := &stubAssigner{result: map[uuid.UUID]uuid.UUID{pid(1): pid(1), pid(2): pid(1)}}
	if _, err := ss.Start(stub, t0); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("want=%v got=%v", ErrInvariantViolation, err)
	}
}

func TestCancelClearsDrawsAndAllowsRestart(t *testing.T) {
	ss := newSantaWith(t, 3)
	ss, err := ss.UpdateExclusions(pid(3), []uuid.UUID{pid(1)}, t0)
	if err != nil {
		t.Fatalf("UpdateExclusions: %v", err)
	}
	started, err := ss.Start(seeded(), t0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancelled := started.Cancel(t0.Add(time.Minute))
	if cancelled.Status != StatusCancelled || cancelled.HasDraws() {
		t.Fatalf("cancel did not clear draws: %+v", cancelled)
	}
	if p, _ := cancelled.Participant(pid(3)); !p.Excludes(pid(1)) {
		t.Fatalf("cancel dropped exclusions")
	}
	if !started.HasDraws() {
		t.Fatalf("Cancel mutated the receiver")
	}
	if err := cancelled.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}

	restarted, err := cancelled.Start(seeded(), t0.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := restarted.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants after restart: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	ss := newSantaWith(t, 2)
	b := 40.0
	d := "secret"
	updated, err := ss.Update(&b, &d, t0)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *updated.Budget != 40 || *updated.Description != "secret" {
		t.Fatalf("unexpected update: %+v", updated)
	}
	neg := -1.0
	if _, err := ss.Update(&neg, nil, t0); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("want=%v got=%v", ErrInvalidBudget, err)
	}
	started, _ := ss.Start(seeded(), t0)
	if _, err := started.Update(&b, nil, t0); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("want=%v got=%v", ErrAlreadyStarted, err)
	}
}

func TestAddParticipantsGuards(t *testing.T) {
	ss := newSantaWith(t, 2)
	dup := NewParticipant(uuid.New(), ss.ID, ss.Participants[0].AttendeeID, t0)
	if _, err := ss.AddParticipants([]Participant{dup}, t0); !errors.Is(err, ErrDuplicateAttendee) {
		t.Fatalf("want=%v got=%v", ErrDuplicateAttendee, err)
	}

	attendee := uuid.New()
	twice := []Participant{
		NewParticipant(uuid.New(), ss.ID, attendee, t0),
		NewParticipant(uuid.New(), ss.ID, attendee, t0),
	}
	if _, err := ss.AddParticipants(twice, t0); !errors.Is(err, ErrDuplicateAttendee) {
		t.Fatalf("want=%v got=%v", ErrDuplicateAttendee, err)
	}

	started, _ := ss.Start(seeded(), t0)
	fresh := NewParticipant(uuid.New(), ss.ID, uuid.New(), t0)
	if _, err := started.AddParticipants([]Participant{fresh}, t0); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("want=%v got=%v", ErrAlreadyStarted, err)
	}

	grown, err := ss.AddParticipants([]Participant{fresh}, t0)
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	if len(grown.Participants) != 3 || len(ss.Participants) != 2 {
		t.Fatalf("participants: want=3/2 got=%d/%d", len(grown.Participants), len(ss.Participants))
	}
}

func TestUpdateExclusionsGuards(t *testing.T) {
	ss := newSantaWith(t, 3)

	if _, err := ss.UpdateExclusions(uuid.New(), nil, t0); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("want=%v got=%v", ErrParticipantNotFound, err)
	}
	if _, err := ss.UpdateExclusions(pid(1), []uuid.UUID{pid(1)}, t0); !errors.Is(err, ErrSelfExclusion) {
		t.Fatalf("want=%v got=%v", ErrSelfExclusion, err)
	}
	if _, err := ss.UpdateExclusions(pid(1), []uuid.UUID{uuid.New()}, t0); !errors.Is(err, ErrUnknownExclusion) {
		t.Fatalf("want=%v got=%v", ErrUnknownExclusion, err)
	}

	updated, err := ss.UpdateExclusions(pid(1), []uuid.UUID{pid(2), pid(2), pid(3)}, t0)
	if err != nil {
		t.Fatalf("UpdateExclusions: %v", err)
	}
	p, _ := updated.Participant(pid(1))
	if len(p.ExcludedParticipantIDs) != 2 {
		t.Fatalf("exclusions: want=2 got=%v", p.ExcludedParticipantIDs)
	}
	orig, _ := ss.Participant(pid(1))
	if len(orig.ExcludedParticipantIDs) != 0 {
		t.Fatalf("UpdateExclusions mutated the receiver")
	}

	started, _ := ss.Start(seeded(), t0)
	if _, err := started.UpdateExclusions(pid(1), nil, t0); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("want=%v got=%v", ErrAlreadyStarted, err)
	}
}

func TestRemoveParticipantStripsExclusions(t *testing.T) {
	ss := newSantaWith(t, 3)
	ss, _ = ss.UpdateExclusions(pid(1), []uuid.UUID{pid(3)}, t0)
	ss, _ = ss.UpdateExclusions(pid(2), []uuid.UUID{pid(1)}, t0)

	next, touched, err := ss.RemoveParticipant(pid(3), t0)
	if err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	if len(next.Participants) != 2 {
		t.Fatalf("participants: want=2 got=%d", len(next.Participants))
	}
	if len(touched) != 1 || touched[0].ID != pid(1) {
		t.Fatalf("touched: want=[%s] got=%v", pid(1), touched)
	}
	p1, _ := next.Participant(pid(1))
	if p1.Excludes(pid(3)) {
		t.Fatalf("removed participant still excluded")
	}
	p2, _ := next.Participant(pid(2))
	if !p2.Excludes(pid(1)) {
		t.Fatalf("unrelated exclusion lost")
	}

	if _, _, err := next.RemoveParticipant(pid(3), t0); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("want=%v got=%v", ErrParticipantNotFound, err)
	}
}

func TestCheckInvariants(t *testing.T) {
	ss := newSantaWith(t, 3)
	drawn := pid(2)

	withDraw := ss.clone()
	withDraw.Participants[0].DrawnParticipantID = &drawn
	if err := withDraw.CheckInvariants(); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("draw while created: want=%v got=%v", ErrInvariantViolation, err)
	}

	partial, _ := ss.Start(seeded(), t0)
	partial.Participants[1].DrawnParticipantID = nil
	if err := partial.CheckInvariants(); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("partial draw: want=%v got=%v", ErrInvariantViolation, err)
	}

	self := ss.clone()
	self.Participants[0].ExcludedParticipantIDs = append(self.Participants[0].ExcludedParticipantIDs, pid(1))
	if err := self.CheckInvariants(); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("self exclusion: want=%v got=%v", ErrInvariantViolation, err)
	}
}
