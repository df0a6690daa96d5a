package event

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wishlist-backend/internal/domain"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type AttendeeRepo interface {
	Create(dbc dbctx.Context, rows []*types.Attendee) ([]*types.Attendee, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Attendee, error)
	ListByEventID(dbc dbctx.Context, eventID uuid.UUID) ([]*types.Attendee, error)
}

type attendeeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttendeeRepo(db *gorm.DB, baseLog *logger.Logger) AttendeeRepo {
	return &attendeeRepo{db: db, log: baseLog.With("repo", "AttendeeRepo")}
}

func (r *attendeeRepo) Create(dbc dbctx.Context, rows []*types.Attendee) ([]*types.Attendee, error) {
	if len(rows) == 0 {
		return []*types.Attendee{}, nil
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

func (r *attendeeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Attendee, error) {
	var out []*types.Attendee
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attendeeRepo) ListByEventID(dbc dbctx.Context, eventID uuid.UUID) ([]*types.Attendee, error) {
	var out []*types.Attendee
	if eventID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("event_id = ?", eventID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
