package secretsanta

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/wishlist-backend/internal/pkg/pointers"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusStarted   Status = "STARTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusStarted, StatusCancelled:
		return true
	}
	return false
}

// SecretSanta is an immutable snapshot. Transitions return a new value and
// leave the receiver untouched.
type SecretSanta struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	Status      Status    `gorm:"not null;column:status;index" json:"status"`
	Budget      *float64  `gorm:"type:numeric(10,2);column:budget" json:"budget,omitempty"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	// Bumped on every committed write; guards start/cancel against races.
	Version int `gorm:"not null;default:1;column:version" json:"version"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Participants []Participant `gorm:"-" json:"participants"`
}

func (SecretSanta) TableName() string { return "secret_santa" }

type Participant struct {
	ID                     uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	SecretSantaID          uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_secret_santa_participant_attendee,priority:1" json:"secret_santa_id"`
	AttendeeID             uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_secret_santa_participant_attendee,priority:2" json:"attendee_id"`
	DrawnParticipantID     *uuid.UUID                     `gorm:"type:uuid;column:drawn_participant_id" json:"drawn_participant_id,omitempty"`
	ExcludedParticipantIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:excluded_participant_ids" json:"excluded_participant_ids"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Participant) TableName() string { return "secret_santa_participant" }

func NewParticipant(id, secretSantaID, attendeeID uuid.UUID, now time.Time) Participant {
	return Participant{
		ID:                     id,
		SecretSantaID:          secretSantaID,
		AttendeeID:             attendeeID,
		ExcludedParticipantIDs: datatypes.JSONSlice[uuid.UUID]{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func (p Participant) clone() Participant {
	out := p
	if p.DrawnParticipantID != nil {
		id := *p.DrawnParticipantID
		out.DrawnParticipantID = &id
	}
	out.ExcludedParticipantIDs = append(datatypes.JSONSlice[uuid.UUID]{}, p.ExcludedParticipantIDs...)
	return out
}

func (p Participant) Excludes(id uuid.UUID) bool {
	for _, x := range p.ExcludedParticipantIDs {
		if x == id {
			return true
		}
	}
	return false
}

func New(id, eventID uuid.UUID, budget *float64, description *string, now time.Time) (SecretSanta, error) {
	if err := validateBudget(budget); err != nil {
		return SecretSanta{}, err
	}
	return SecretSanta{
		ID:           id,
		EventID:      eventID,
		Status:       StatusCreated,
		Budget:       pointers.Clone(budget),
		Description:  normalizeDescription(description),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		Participants: []Participant{},
	}, nil
}

func (s SecretSanta) clone() SecretSanta {
	out := s
	out.Budget = pointers.Clone(s.Budget)
	if s.Description != nil {
		d := *s.Description
		out.Description = &d
	}
	out.Participants = make([]Participant, len(s.Participants))
	for i, p := range s.Participants {
		out.Participants[i] = p.clone()
	}
	return out
}

func (s SecretSanta) IsStarted() bool { return s.Status == StatusStarted }

func (s SecretSanta) Participant(id uuid.UUID) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p.clone(), true
		}
	}
	return Participant{}, false
}

func (s SecretSanta) ParticipantForAttendee(attendeeID uuid.UUID) (Participant, bool) {
	for _, p := range s.Participants {
		if p.AttendeeID == attendeeID {
			return p.clone(), true
		}
	}
	return Participant{}, false
}

// HasDraws reports whether any participant currently holds a drawn id.
func (s SecretSanta) HasDraws() bool {
	for _, p := range s.Participants {
		if p.DrawnParticipantID != nil {
			return true
		}
	}
	return false
}

func (s SecretSanta) drawParticipants() []DrawParticipant {
	out := make([]DrawParticipant, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, DrawParticipant{
			ID:         p.ID,
			Exclusions: append([]uuid.UUID(nil), p.ExcludedParticipantIDs...),
		})
	}
	return out
}

// Start draws every participant. Engine errors are returned unchanged.
func (s SecretSanta) Start(engine Assigner, now time.Time) (SecretSanta, error) {
	if s.Status == StatusStarted {
		return s, ErrAlreadyStarted
	}
	if engine == nil {
		engine = DefaultEngine()
	}
	input := s.drawParticipants()
	result, err := engine.Assign(input)
	if err != nil {
		return s, err
	}
	if err := ValidateAssignment(input, result); err != nil {
		return s, err
	}

	next := s.clone()
	for i := range next.Participants {
		drawn := result[next.Participants[i].ID]
		next.Participants[i].DrawnParticipantID = &drawn
		next.Participants[i].UpdatedAt = now
	}
	next.Status = StatusStarted
	next.UpdatedAt = now
	return next, nil
}

// Cancel clears every draw. Participants and exclusions are kept, so the
// result can be started again.
func (s SecretSanta) Cancel(now time.Time) SecretSanta {
	next := s.clone()
	for i := range next.Participants {
		if next.Participants[i].DrawnParticipantID != nil {
			next.Participants[i].DrawnParticipantID = nil
			next.Participants[i].UpdatedAt = now
		}
	}
	next.Status = StatusCancelled
	next.UpdatedAt = now
	return next
}

func (s SecretSanta) Update(budget *float64, description *string, now time.Time) (SecretSanta, error) {
	if s.Status == StatusStarted {
		return s, ErrAlreadyStarted
	}
	if err := validateBudget(budget); err != nil {
		return s, err
	}
	next := s.clone()
	next.Budget = pointers.Clone(budget)
	next.Description = normalizeDescription(description)
	next.UpdatedAt = now
	return next, nil
}

func (s SecretSanta) AddParticipants(participants []Participant, now time.Time) (SecretSanta, error) {
	if s.Status == StatusStarted {
		return s, ErrAlreadyStarted
	}
	attendees := make(map[uuid.UUID]struct{}, len(s.Participants)+len(participants))
	for _, p := range s.Participants {
		attendees[p.AttendeeID] = struct{}{}
	}
	next := s.clone()
	for _, p := range participants {
		if _, dup := attendees[p.AttendeeID]; dup {
			return s, fmt.Errorf("%w: attendee %s", ErrDuplicateAttendee, p.AttendeeID)
		}
		attendees[p.AttendeeID] = struct{}{}

		added := p.clone()
		added.SecretSantaID = s.ID
		added.DrawnParticipantID = nil
		if added.ExcludedParticipantIDs == nil {
			added.ExcludedParticipantIDs = datatypes.JSONSlice[uuid.UUID]{}
		}
		if added.CreatedAt.IsZero() {
			added.CreatedAt = now
		}
		added.UpdatedAt = now
		next.Participants = append(next.Participants, added)
	}
	next.UpdatedAt = now
	return next, nil
}

// UpdateExclusions replaces the exclusion set of one participant.
func (s SecretSanta) UpdateExclusions(participantID uuid.UUID, excluded []uuid.UUID, now time.Time) (SecretSanta, error) {
	if s.Status == StatusStarted {
		return s, ErrAlreadyStarted
	}
	idx := -1
	members := make(map[uuid.UUID]struct{}, len(s.Participants))
	for i, p := range s.Participants {
		members[p.ID] = struct{}{}
		if p.ID == participantID {
			idx = i
		}
	}
	if idx < 0 {
		return s, ErrParticipantNotFound
	}

	set := make(datatypes.JSONSlice[uuid.UUID], 0, len(excluded))
	seen := make(map[uuid.UUID]struct{}, len(excluded))
	for _, id := range excluded {
		if id == participantID {
			return s, ErrSelfExclusion
		}
		if _, ok := members[id]; !ok {
			return s, fmt.Errorf("%w: %s", ErrUnknownExclusion, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}

	next := s.clone()
	next.Participants[idx].ExcludedParticipantIDs = set
	next.Participants[idx].UpdatedAt = now
	next.UpdatedAt = now
	return next, nil
}

// RemoveParticipant drops one participant and strips it from the exclusion
// sets of everyone else. The second return value lists the participants whose
// exclusions changed.
func (s SecretSanta) RemoveParticipant(participantID uuid.UUID, now time.Time) (SecretSanta, []Participant, error) {
	if s.Status == StatusStarted {
		return s, nil, ErrAlreadyStarted
	}
	if _, ok := s.Participant(participantID); !ok {
		return s, nil, ErrParticipantNotFound
	}

	next := s.clone()
	kept := make([]Participant, 0, len(next.Participants)-1)
	var touched []Participant
	for _, p := range next.Participants {
		if p.ID == participantID {
			continue
		}
		if p.Excludes(participantID) {
			filtered := make(datatypes.JSONSlice[uuid.UUID], 0, len(p.ExcludedParticipantIDs))
			for _, x := range p.ExcludedParticipantIDs {
				if x != participantID {
					filtered = append(filtered, x)
				}
			}
			p.ExcludedParticipantIDs = filtered
			p.UpdatedAt = now
			touched = append(touched, p.clone())
		}
		kept = append(kept, p)
	}
	next.Participants = kept
	next.UpdatedAt = now
	return next, touched, nil
}

// CheckInvariants verifies the snapshot before it is persisted.
func (s SecretSanta) CheckInvariants() error {
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvariantViolation, s.Status)
	}
	if err := validateBudget(s.Budget); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	attendees := make(map[uuid.UUID]struct{}, len(s.Participants))
	for _, p := range s.Participants {
		if p.SecretSantaID != s.ID {
			return fmt.Errorf("%w: participant %s belongs to another secret santa", ErrInvariantViolation, p.ID)
		}
		if _, dup := attendees[p.AttendeeID]; dup {
			return fmt.Errorf("%w: attendee %s listed twice", ErrInvariantViolation, p.AttendeeID)
		}
		attendees[p.AttendeeID] = struct{}{}
		if p.Excludes(p.ID) {
			return fmt.Errorf("%w: participant %s excludes itself", ErrInvariantViolation, p.ID)
		}
	}

	if s.Status != StatusStarted {
		if s.HasDraws() {
			return fmt.Errorf("%w: draws present while %s", ErrInvariantViolation, s.Status)
		}
		return nil
	}
	result := make(map[uuid.UUID]uuid.UUID, len(s.Participants))
	for _, p := range s.Participants {
		if p.DrawnParticipantID == nil {
			return fmt.Errorf("%w: participant %s has no draw while started", ErrInvariantViolation, p.ID)
		}
		result[p.ID] = *p.DrawnParticipantID
	}
	return ValidateAssignment(s.drawParticipants(), result)
}

func validateBudget(budget *float64) error {
	if budget != nil && !(*budget > 0) {
		return ErrInvalidBudget
	}
	return nil
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSpace(*d)
	if v == "" {
		return nil
	}
	return pointers.To(v)
}
