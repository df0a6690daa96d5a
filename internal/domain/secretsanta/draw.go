package secretsanta

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
)

// MaxDrawAttempts bounds the number of full randomized passes. The engine is a
// Las Vegas heuristic: any returned result is valid, but a feasible yet hard
// exclusion graph can still end in ErrRetriesExhausted.
const MaxDrawAttempts = 10

type DrawParticipant struct {
	ID         uuid.UUID
	Exclusions []uuid.UUID
}

// Rand is the subset of *rand.Rand the engine needs.
type Rand interface {
	IntN(n int) int
}

// Assigner computes a draw. *Engine is the only production implementation.
type Assigner interface {
	Assign(participants []DrawParticipant) (map[uuid.UUID]uuid.UUID, error)
}

type Engine struct {
	rng Rand
}

func NewEngine(rng Rand) *Engine {
	if rng == nil {
		rng = globalRand{}
	}
	return &Engine{rng: rng}
}

func DefaultEngine() *Engine {
	return NewEngine(nil)
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type DrawError struct {
	Kind          error
	ParticipantID uuid.UUID
	Attempts      int
}

func (e *DrawError) Error() string {
	if e == nil || e.Kind == nil {
		return "draw failed"
	}
	switch {
	case e.ParticipantID != uuid.Nil:
		return fmt.Sprintf("draw: %v (participant %s)", e.Kind, e.ParticipantID)
	case e.Attempts > 0:
		return fmt.Sprintf("draw: %v after %d attempts", e.Kind, e.Attempts)
	default:
		return "draw: " + e.Kind.Error()
	}
}

func (e *DrawError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

type drawSlot struct {
	id         uuid.UUID
	candidates []uuid.UUID
}

// Assign maps every participant id to the id it must give a gift to.
// Exclusion ids that are not participants are ignored.
func (e *Engine) Assign(participants []DrawParticipant) (map[uuid.UUID]uuid.UUID, error) {
	if len(participants) < 2 {
		return nil, &DrawError{Kind: ErrNotEnoughParticipants}
	}

	seen := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.ID]; dup {
			return nil, &DrawError{Kind: ErrDuplicateParticipant, ParticipantID: p.ID}
		}
		seen[p.ID] = struct{}{}
	}

	slots := make([]drawSlot, 0, len(participants))
	for _, p := range participants {
		excluded := make(map[uuid.UUID]struct{}, len(p.Exclusions))
		for _, x := range p.Exclusions {
			excluded[x] = struct{}{}
		}
		// Candidates keep input order so a seeded generator reproduces the same draw.
		candidates := make([]uuid.UUID, 0, len(participants)-1)
		for _, other := range participants {
			if other.ID == p.ID {
				continue
			}
			if _, no := excluded[other.ID]; no {
				continue
			}
			candidates = append(candidates, other.ID)
		}
		slots = append(slots, drawSlot{id: p.ID, candidates: candidates})
	}

	// Most constrained first.
	sort.SliceStable(slots, func(i, j int) bool {
		return len(slots[i].candidates) < len(slots[j].candidates)
	})

	reachable := make(map[uuid.UUID]struct{}, len(participants))
	for _, s := range slots {
		if len(s.candidates) == 0 {
			return nil, &DrawError{Kind: ErrInfeasible, ParticipantID: s.id}
		}
		for _, c := range s.candidates {
			reachable[c] = struct{}{}
		}
	}
	if len(reachable) < len(participants) {
		for _, p := range participants {
			if _, ok := reachable[p.ID]; !ok {
				return nil, &DrawError{Kind: ErrInfeasible, ParticipantID: p.ID}
			}
		}
	}

	for attempt := 1; attempt <= MaxDrawAttempts; attempt++ {
		if out, ok := e.pass(slots); ok {
			return out, nil
		}
	}
	return nil, &DrawError{Kind: ErrRetriesExhausted, Attempts: MaxDrawAttempts}
}

// pass runs one greedy randomized sweep. A dead end abandons the whole pass.
func (e *Engine) pass(slots []drawSlot) (map[uuid.UUID]uuid.UUID, bool) {
	out := make(map[uuid.UUID]uuid.UUID, len(slots))
	drawn := make(map[uuid.UUID]struct{}, len(slots))
	remaining := make([]uuid.UUID, 0, len(slots))
	for _, s := range slots {
		remaining = remaining[:0]
		for _, c := range s.candidates {
			if _, taken := drawn[c]; !taken {
				remaining = append(remaining, c)
			}
		}
		if len(remaining) == 0 {
			return nil, false
		}
		pick := remaining[e.rng.IntN(len(remaining))]
		out[s.id] = pick
		drawn[pick] = struct{}{}
	}
	return out, true
}

// ValidateAssignment checks that result is a bijection over participants with
// no self draw and no excluded draw.
func ValidateAssignment(participants []DrawParticipant, result map[uuid.UUID]uuid.UUID) error {
	if len(result) != len(participants) {
		return fmt.Errorf("%w: %d draws for %d participants", ErrInvariantViolation, len(result), len(participants))
	}
	members := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		members[p.ID] = struct{}{}
	}
	receivers := make(map[uuid.UUID]uuid.UUID, len(result))
	for _, p := range participants {
		target, ok := result[p.ID]
		if !ok {
			return fmt.Errorf("%w: participant %s has no draw", ErrInvariantViolation, p.ID)
		}
		if target == p.ID {
			return fmt.Errorf("%w: participant %s draws itself", ErrInvariantViolation, p.ID)
		}
		if _, ok := members[target]; !ok {
			return fmt.Errorf("%w: participant %s draws a non member", ErrInvariantViolation, p.ID)
		}
		for _, x := range p.Exclusions {
			if x == target {
				return fmt.Errorf("%w: participant %s draws an excluded participant", ErrInvariantViolation, p.ID)
			}
		}
		if giver, dup := receivers[target]; dup {
			return fmt.Errorf("%w: %s drawn by both %s and %s", ErrInvariantViolation, target, giver, p.ID)
		}
		receivers[target] = p.ID
	}
	return nil
}
