package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/domain/secretsanta"
)

var SecretSantaAggregateContract = Contract{
	Name:    "SecretSanta.SecretSantaAggregate",
	TxOwned: true,
	Reads:   []string{"secret_santa by id, row-locked", "participants by secret_santa_id"},
	Notes:   "Persists the secret santa row and all of its participants in one transaction; status moves are version-checked.",
}

// SecretSantaAggregate owns the lifecycle writes of a secret santa.
//
// Failures are *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeForbidden,
// CodeInvariantViolation, CodeRetryable, CodeInternal.
type SecretSantaAggregate interface {
	Aggregate

	// Create inserts a CREATED secret santa. CodeConflict when the event already has one.
	Create(ctx context.Context, in CreateSecretSantaInput) (secretsanta.SecretSanta, error)

	// Start draws all participants and persists the STARTED snapshot atomically.
	Start(ctx context.Context, in StartSecretSantaInput) (secretsanta.SecretSanta, error)

	// Cancel clears every draw and persists the CANCELLED snapshot atomically.
	Cancel(ctx context.Context, in CancelSecretSantaInput) (CancelSecretSantaResult, error)

	Update(ctx context.Context, in UpdateSecretSantaInput) (secretsanta.SecretSanta, error)
	AddParticipants(ctx context.Context, in AddSecretSantaParticipantsInput) (secretsanta.SecretSanta, error)
	UpdateExclusions(ctx context.Context, in UpdateSecretSantaExclusionsInput) (secretsanta.SecretSanta, error)
	RemoveParticipant(ctx context.Context, in RemoveSecretSantaParticipantInput) (secretsanta.SecretSanta, error)

	// Delete removes the secret santa and its participants from any status.
	Delete(ctx context.Context, in DeleteSecretSantaInput) error
}

type CreateSecretSantaInput struct {
	SecretSantaID uuid.UUID
	EventID       uuid.UUID
	Budget        *float64
	Description   *string
	CreatedAt     time.Time
}

type StartSecretSantaInput struct {
	SecretSantaID uuid.UUID
	StartedAt     time.Time
}

type CancelSecretSantaInput struct {
	SecretSantaID uuid.UUID
	CancelledAt   time.Time
}

type CancelSecretSantaResult struct {
	SecretSanta secretsanta.SecretSanta
	// Previous is the snapshot before the cancel; its draws drive notifications.
	Previous   secretsanta.SecretSanta
	WasStarted bool
}

type UpdateSecretSantaInput struct {
	SecretSantaID uuid.UUID
	Budget        *float64
	Description   *string
	UpdatedAt     time.Time
}

type AddSecretSantaParticipantsInput struct {
	SecretSantaID uuid.UUID
	AttendeeIDs   []uuid.UUID
	AddedAt       time.Time
}

type UpdateSecretSantaExclusionsInput struct {
	ParticipantID          uuid.UUID
	ExcludedParticipantIDs []uuid.UUID
	UpdatedAt              time.Time
}

type RemoveSecretSantaParticipantInput struct {
	ParticipantID uuid.UUID
	RemovedAt     time.Time
}

type DeleteSecretSantaInput struct {
	SecretSantaID uuid.UUID
}
