package secretsanta

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/wishlist-backend/internal/domain"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type ParticipantRepo interface {
	Create(dbc dbctx.Context, rows []*types.SecretSantaParticipant) ([]*types.SecretSantaParticipant, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SecretSantaParticipant, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SecretSantaParticipant, error)
	ListBySecretSantaID(dbc dbctx.Context, secretSantaID uuid.UUID) ([]*types.SecretSantaParticipant, error)

	// SaveAll writes draw and exclusion columns of existing rows.
	// Every row must exist; a missing one fails with gorm.ErrRecordNotFound.
	SaveAll(dbc dbctx.Context, rows []*types.SecretSantaParticipant) error

	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	FullDeleteBySecretSantaID(dbc dbctx.Context, secretSantaID uuid.UUID) error
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return &participantRepo{db: db, log: baseLog.With("repo", "SecretSantaParticipantRepo")}
}

func (r *participantRepo) Create(dbc dbctx.Context, rows []*types.SecretSantaParticipant) ([]*types.SecretSantaParticipant, error) {
	if len(rows) == 0 {
		return []*types.SecretSantaParticipant{}, nil
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.ExcludedParticipantIDs == nil {
			row.ExcludedParticipantIDs = datatypes.JSONSlice[uuid.UUID]{}
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *participantRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SecretSantaParticipant, error) {
	var out []*types.SecretSantaParticipant
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *participantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SecretSantaParticipant, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *participantRepo) ListBySecretSantaID(dbc dbctx.Context, secretSantaID uuid.UUID) ([]*types.SecretSantaParticipant, error) {
	var out []*types.SecretSantaParticipant
	if secretSantaID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("secret_santa_id = ?", secretSantaID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *participantRepo) SaveAll(dbc dbctx.Context, rows []*types.SecretSantaParticipant) error {
	t := dbc.DB(r.db)
	for _, row := range rows {
		if row == nil || row.ID == uuid.Nil {
			continue
		}
		excluded := row.ExcludedParticipantIDs
		if excluded == nil {
			excluded = datatypes.JSONSlice[uuid.UUID]{}
		}
		updatedAt := row.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}
		res := t.Model(&types.SecretSantaParticipant{}).
			Where("id = ? AND secret_santa_id = ?", row.ID, row.SecretSantaID).
			Updates(map[string]any{
				"drawn_participant_id":     row.DrawnParticipantID,
				"excluded_participant_ids": excluded,
				"updated_at":               updatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("secret santa participant %s: %w", row.ID, gorm.ErrRecordNotFound)
		}
	}
	return nil
}

func (r *participantRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("id IN ?", ids).
		Delete(&types.SecretSantaParticipant{}).Error
}

func (r *participantRepo) FullDeleteBySecretSantaID(dbc dbctx.Context, secretSantaID uuid.UUID) error {
	if secretSantaID == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).
		Where("secret_santa_id = ?", secretSantaID).
		Delete(&types.SecretSantaParticipant{}).Error
}
