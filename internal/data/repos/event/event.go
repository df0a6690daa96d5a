package event

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wishlist-backend/internal/domain"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type EventRepo interface {
	Create(dbc dbctx.Context, rows []*types.Event) ([]*types.Event, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Event, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "EventRepo")}
}

func (r *eventRepo) Create(dbc dbctx.Context, rows []*types.Event) ([]*types.Event, error) {
	if len(rows) == 0 {
		return []*types.Event{}, nil
	}
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *eventRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Event, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Event
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
