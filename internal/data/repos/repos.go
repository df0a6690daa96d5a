package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/data/repos/event"
	"github.com/yungbote/wishlist-backend/internal/data/repos/secretsanta"
	"github.com/yungbote/wishlist-backend/internal/data/repos/user"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type UserRepo = user.UserRepo

type EventRepo = event.EventRepo
type AttendeeRepo = event.AttendeeRepo

type SecretSantaRepo = secretsanta.SecretSantaRepo
type SecretSantaParticipantRepo = secretsanta.ParticipantRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return event.NewEventRepo(db, baseLog)
}
func NewAttendeeRepo(db *gorm.DB, baseLog *logger.Logger) AttendeeRepo {
	return event.NewAttendeeRepo(db, baseLog)
}

func NewSecretSantaRepo(db *gorm.DB, baseLog *logger.Logger) SecretSantaRepo {
	return secretsanta.NewSecretSantaRepo(db, baseLog)
}
func NewSecretSantaParticipantRepo(db *gorm.DB, baseLog *logger.Logger) SecretSantaParticipantRepo {
	return secretsanta.NewParticipantRepo(db, baseLog)
}
