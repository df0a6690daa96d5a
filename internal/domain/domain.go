package domain

import (
	"github.com/yungbote/wishlist-backend/internal/domain/event"
	"github.com/yungbote/wishlist-backend/internal/domain/secretsanta"
	"github.com/yungbote/wishlist-backend/internal/domain/user"
)

type User = user.User

type Event = event.Event
type Attendee = event.Attendee
type AttendeeRole = event.AttendeeRole

const (
	AttendeeRoleMaintainer = event.RoleMaintainer
	AttendeeRoleUser       = event.RoleUser
)

type SecretSanta = secretsanta.SecretSanta
type SecretSantaParticipant = secretsanta.Participant
type SecretSantaStatus = secretsanta.Status

const (
	SecretSantaCreated   = secretsanta.StatusCreated
	SecretSantaStarted   = secretsanta.StatusStarted
	SecretSantaCancelled = secretsanta.StatusCancelled
)

// Models lists every table AutoMigrate owns, parents first.
func Models() []any {
	return []any{
		&user.User{},
		&event.Event{},
		&event.Attendee{},
		&secretsanta.SecretSanta{},
		&secretsanta.Participant{},
	}
}
