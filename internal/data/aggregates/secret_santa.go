package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/data/repos"
	types "github.com/yungbote/wishlist-backend/internal/domain"
	domainagg "github.com/yungbote/wishlist-backend/internal/domain/aggregates"
	"github.com/yungbote/wishlist-backend/internal/domain/secretsanta"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
)

const secretSantaTable = "secret_santa"

type SecretSantaAggregateDeps struct {
	Base BaseDeps

	SecretSantas repos.SecretSantaRepo
	Participants repos.SecretSantaParticipantRepo

	// Engine defaults to secretsanta.DefaultEngine().
	Engine secretsanta.Assigner
}

type secretSantaAggregate struct {
	deps SecretSantaAggregateDeps
}

func NewSecretSantaAggregate(deps SecretSantaAggregateDeps) domainagg.SecretSantaAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Engine == nil {
		deps.Engine = secretsanta.DefaultEngine()
	}
	return &secretSantaAggregate{deps: deps}
}

func (a *secretSantaAggregate) Contract() domainagg.Contract {
	return domainagg.SecretSantaAggregateContract
}

func (a *secretSantaAggregate) configured(op string) error {
	if a.deps.SecretSantas == nil || a.deps.Participants == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "secret santa aggregate repos not configured", nil)
	}
	return nil
}

func (a *secretSantaAggregate) Create(ctx context.Context, in domainagg.CreateSecretSantaInput) (secretsanta.SecretSanta, error) {
	const op = "SecretSanta.Create"
	var out secretsanta.SecretSanta
	if in.EventID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing event_id", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	id := in.SecretSantaID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := a.deps.Base.now(in.CreatedAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		exists, err := a.deps.SecretSantas.ExistsForEvent(dbc, in.EventID)
		if err != nil {
			return err
		}
		if exists {
			return ConflictError(fmt.Sprintf("event %s already has a secret santa", in.EventID))
		}
		next, err := secretsanta.New(id, in.EventID, in.Budget, in.Description, now)
		if err != nil {
			return err
		}
		if err := next.CheckInvariants(); err != nil {
			return err
		}
		row := next
		if _, err := a.deps.SecretSantas.Create(dbc, []*types.SecretSanta{&row}); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (a *secretSantaAggregate) Start(ctx context.Context, in domainagg.StartSecretSantaInput) (secretsanta.SecretSanta, error) {
	const op = "SecretSanta.Start"
	var out secretsanta.SecretSanta
	if in.SecretSantaID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing secret_santa_id", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	now := a.deps.Base.now(in.StartedAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		prev, err := a.lockSnapshot(dbc, op, in.SecretSantaID)
		if err != nil {
			return err
		}
		next, err := prev.Start(a.deps.Engine, now)
		if err != nil {
			return err
		}
		if err := a.commitRow(dbc, prev, &next); err != nil {
			return err
		}
		if err := a.deps.Participants.SaveAll(dbc, participantRows(next.Participants)); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (a *secretSantaAggregate) Cancel(ctx context.Context, in domainagg.CancelSecretSantaInput) (domainagg.CancelSecretSantaResult, error) {
	const op = "SecretSanta.Cancel"
	var out domainagg.CancelSecretSantaResult
	if in.SecretSantaID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing secret_santa_id", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	now := a.deps.Base.now(in.CancelledAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		prev, err := a.lockSnapshot(dbc, op, in.SecretSantaID)
		if err != nil {
			return err
		}
		next := prev.Cancel(now)
		if err := a.commitRow(dbc, prev, &next); err != nil {
			return err
		}
		if prev.HasDraws() {
			if err := a.deps.Participants.SaveAll(dbc, participantRows(next.Participants)); err != nil {
				return err
			}
		}
		out = domainagg.CancelSecretSantaResult{
			SecretSanta: next,
			Previous:    prev,
			WasStarted:  prev.Status == secretsanta.StatusStarted,
		}
		return nil
	})
	return out, err
}

func (a *secretSantaAggregate) Update(ctx context.Context, in domainagg.UpdateSecretSantaInput) (secretsanta.SecretSanta, error) {
	const op = "SecretSanta.Update"
	var out secretsanta.SecretSanta
	if in.SecretSantaID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing secret_santa_id", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	now := a.deps.Base.now(in.UpdatedAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		prev, err := a.lockSnapshot(dbc, op, in.SecretSantaID)
		if err != nil {
			return err
		}
		next, err := prev.Update(in.Budget, in.Description, now)
		if err != nil {
			return err
		}
		if err := a.commitRow(dbc, prev, &next); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (a *secretSantaAggregate) AddParticipants(ctx context.Context, in domainagg.AddSecretSantaParticipantsInput) (secretsanta.SecretSanta, error) {
	const op = "SecretSanta.AddParticipants"
	var out secretsanta.SecretSanta
	if in.SecretSantaID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing secret_santa_id", nil)
	}
	if len(in.AttendeeIDs) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no attendees to add", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	now := a.deps.Base.now(in.AddedAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		prev, err := a.lockSnapshot(dbc, op, in.SecretSantaID)
		if err != nil {
			return err
		}
		added := make([]secretsanta.Participant, 0, len(in.AttendeeIDs))
		for _, attendeeID := range in.AttendeeIDs {
			if attendeeID == uuid.Nil {
				return ValidationError("attendee id must not be empty")
			}
			added = append(added, secretsanta.NewParticipant(uuid.New(), prev.ID, attendeeID, now))
		}
		next, err := prev.AddParticipants(added, now)
		if err != nil {
			return err
		}
		if err := a.commitRow(dbc, prev, &next); err != nil {
			return err
		}
		if _, err := a.deps.Participants.Create(dbc, participantRows(added)); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (a *secretSantaAggregate) UpdateExclusions(ctx context.Context, in domainagg.UpdateSecretSantaExclusionsInput) (secretsanta.SecretSanta, error) {
	const op = "SecretSanta.UpdateExclusions"
	var out secretsanta.SecretSanta
	if in.ParticipantID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing participant_id", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	now := a.deps.Base.now(in.UpdatedAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		prev, err := a.lockSnapshotForParticipant(dbc, op, in.ParticipantID)
		if err != nil {
			return err
		}
		next, err := prev.UpdateExclusions(in.ParticipantID, in.ExcludedParticipantIDs, now)
		if err != nil {
			return err
		}
		if err := a.commitRow(dbc, prev, &next); err != nil {
			return err
		}
		changed, _ := next.Participant(in.ParticipantID)
		if err := a.deps.Participants.SaveAll(dbc, participantRows([]secretsanta.Participant{changed})); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (a *secretSantaAggregate) RemoveParticipant(ctx context.Context, in domainagg.RemoveSecretSantaParticipantInput) (secretsanta.SecretSanta, error) {
	const op = "SecretSanta.RemoveParticipant"
	var out secretsanta.SecretSanta
	if in.ParticipantID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing participant_id", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	now := a.deps.Base.now(in.RemovedAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		prev, err := a.lockSnapshotForParticipant(dbc, op, in.ParticipantID)
		if err != nil {
			return err
		}
		next, touched, err := prev.RemoveParticipant(in.ParticipantID, now)
		if err != nil {
			return err
		}
		if err := a.commitRow(dbc, prev, &next); err != nil {
			return err
		}
		if err := a.deps.Participants.FullDeleteByIDs(dbc, []uuid.UUID{in.ParticipantID}); err != nil {
			return err
		}
		if err := a.deps.Participants.SaveAll(dbc, participantRows(touched)); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (a *secretSantaAggregate) Delete(ctx context.Context, in domainagg.DeleteSecretSantaInput) error {
	const op = "SecretSanta.Delete"
	if in.SecretSantaID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing secret_santa_id", nil)
	}
	if err := a.configured(op); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.SecretSantas.LockByID(dbc, in.SecretSantaID)
		if err != nil {
			return err
		}
		if row == nil {
			return secretSantaNotFound(op, in.SecretSantaID)
		}
		if err := a.deps.Participants.FullDeleteBySecretSantaID(dbc, row.ID); err != nil {
			return err
		}
		return a.deps.SecretSantas.FullDeleteByID(dbc, row.ID)
	})
}

// lockSnapshot locks the secret santa row and loads the full snapshot.
func (a *secretSantaAggregate) lockSnapshot(dbc dbctx.Context, op string, id uuid.UUID) (secretsanta.SecretSanta, error) {
	row, err := a.deps.SecretSantas.LockByID(dbc, id)
	if err != nil {
		return secretsanta.SecretSanta{}, err
	}
	if row == nil {
		return secretsanta.SecretSanta{}, secretSantaNotFound(op, id)
	}
	participants, err := a.deps.Participants.ListBySecretSantaID(dbc, row.ID)
	if err != nil {
		return secretsanta.SecretSanta{}, err
	}
	snap := *row
	snap.Participants = make([]secretsanta.Participant, 0, len(participants))
	for _, p := range participants {
		if p != nil {
			snap.Participants = append(snap.Participants, *p)
		}
	}
	return snap, nil
}

func (a *secretSantaAggregate) lockSnapshotForParticipant(dbc dbctx.Context, op string, participantID uuid.UUID) (secretsanta.SecretSanta, error) {
	p, err := a.deps.Participants.GetByID(dbc, participantID)
	if err != nil {
		return secretsanta.SecretSanta{}, err
	}
	if p == nil {
		return secretsanta.SecretSanta{}, domainagg.NewError(domainagg.CodeNotFound, op,
			fmt.Sprintf("secret santa participant not found: %s", participantID), secretsanta.ErrParticipantNotFound)
	}
	return a.lockSnapshot(dbc, op, p.SecretSantaID)
}

// commitRow checks invariants and writes the secret santa row guarded by the
// version read under lock. next.Version is advanced on success.
func (a *secretSantaAggregate) commitRow(dbc dbctx.Context, prev secretsanta.SecretSanta, next *secretsanta.SecretSanta) error {
	if err := next.CheckInvariants(); err != nil {
		return err
	}
	version, err := a.deps.Base.CASGuard.Swap(dbc, secretSantaTable, prev.ID, prev.Version, map[string]any{
		"status":      next.Status,
		"budget":      next.Budget,
		"description": next.Description,
		"updated_at":  next.UpdatedAt,
	})
	if err != nil {
		return err
	}
	next.Version = version
	return nil
}

func secretSantaNotFound(op string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("secret santa not found: %s", id), nil)
}

func participantRows(ps []secretsanta.Participant) []*types.SecretSantaParticipant {
	out := make([]*types.SecretSantaParticipant, 0, len(ps))
	for i := range ps {
		p := ps[i]
		out = append(out, &p)
	}
	return out
}
