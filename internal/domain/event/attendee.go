package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/domain/user"
)

type AttendeeRole string

const (
	RoleMaintainer AttendeeRole = "MAINTAINER"
	RoleUser       AttendeeRole = "USER"
)

// Attendee is a person enrolled in an event. Invited people without an account
// only carry a PendingEmail until they sign up.
type Attendee struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"event_id"`
	UserID       *uuid.UUID   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	PendingEmail *string      `gorm:"column:pending_email" json:"pending_email,omitempty"`
	Role         AttendeeRole `gorm:"not null;column:role" json:"role"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Attendee) TableName() string { return "event_attendee" }

// Email resolves the address to reach this attendee at.
func (a *Attendee) Email(users map[uuid.UUID]*user.User) string {
	if a == nil {
		return ""
	}
	if a.UserID != nil {
		if u := users[*a.UserID]; u != nil && strings.TrimSpace(u.Email) != "" {
			return strings.TrimSpace(u.Email)
		}
	}
	if a.PendingEmail != nil {
		return strings.TrimSpace(*a.PendingEmail)
	}
	return ""
}

// DisplayName resolves the name other attendees see.
func (a *Attendee) DisplayName(users map[uuid.UUID]*user.User) string {
	if a == nil {
		return ""
	}
	if a.UserID != nil {
		if u := users[*a.UserID]; u != nil {
			return u.DisplayName()
		}
	}
	if a.PendingEmail != nil {
		return strings.TrimSpace(*a.PendingEmail)
	}
	return ""
}
