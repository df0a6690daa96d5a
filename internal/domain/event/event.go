package event

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/domain/user"
)

// Event is the read model the Secret Santa flows consult. Event CRUD lives elsewhere.
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	// Calendar day of the event; the time of day is ignored.
	EventDate time.Time `gorm:"not null;column:event_date;index" json:"event_date"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Event) TableName() string { return "event" }

// IsFinished reports whether the event day is strictly before the day of now.
// An event taking place today is not finished.
func (e *Event) IsFinished(now time.Time) bool {
	if e == nil {
		return false
	}
	return day(e.EventDate).Before(day(now))
}

// CanEdit reports whether u may manage this event: platform admins always can,
// otherwise u must be a maintainer attendee of the event.
func (e *Event) CanEdit(u *user.User, attendees []*Attendee) bool {
	if e == nil || u == nil || u.ID == uuid.Nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	a := e.AttendeeFor(u.ID, attendees)
	return a != nil && a.Role == RoleMaintainer
}

// AttendeeFor returns the attendee row of this event linked to userID.
func (e *Event) AttendeeFor(userID uuid.UUID, attendees []*Attendee) *Attendee {
	if e == nil || userID == uuid.Nil {
		return nil
	}
	for _, a := range attendees {
		if a == nil || a.EventID != e.ID || a.UserID == nil {
			continue
		}
		if *a.UserID == userID {
			return a
		}
	}
	return nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
