package secretsanta

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wishlist-backend/internal/domain"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

// SecretSantaRepo reads and writes the secret_santa row only. Participants live
// in ParticipantRepo.
type SecretSantaRepo interface {
	Create(dbc dbctx.Context, rows []*types.SecretSanta) ([]*types.SecretSanta, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SecretSanta, error)
	GetByEventID(dbc dbctx.Context, eventID uuid.UUID) (*types.SecretSanta, error)
	ExistsForEvent(dbc dbctx.Context, eventID uuid.UUID) (bool, error)

	// LockByID selects the row FOR UPDATE. Drivers without row locks ignore the clause.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.SecretSanta, error)

	FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type secretSantaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSecretSantaRepo(db *gorm.DB, baseLog *logger.Logger) SecretSantaRepo {
	return &secretSantaRepo{db: db, log: baseLog.With("repo", "SecretSantaRepo")}
}

func (r *secretSantaRepo) Create(dbc dbctx.Context, rows []*types.SecretSanta) ([]*types.SecretSanta, error) {
	if len(rows) == 0 {
		return []*types.SecretSanta{}, nil
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Version == 0 {
			row.Version = 1
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *secretSantaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SecretSanta, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("id = ?", id))
}

func (r *secretSantaRepo) GetByEventID(dbc dbctx.Context, eventID uuid.UUID) (*types.SecretSanta, error) {
	if eventID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("event_id = ?", eventID))
}

func (r *secretSantaRepo) ExistsForEvent(dbc dbctx.Context, eventID uuid.UUID) (bool, error) {
	if eventID == uuid.Nil {
		return false, nil
	}
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.SecretSanta{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *secretSantaRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.SecretSanta, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *secretSantaRepo) FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).
		Where("id = ?", id).
		Delete(&types.SecretSanta{}).Error
}

func (r *secretSantaRepo) first(q *gorm.DB) (*types.SecretSanta, error) {
	var row types.SecretSanta
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
