package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/data/repos"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type Repos struct {
	Users        repos.UserRepo
	Events       repos.EventRepo
	Attendees    repos.AttendeeRepo
	SecretSantas repos.SecretSantaRepo
	Participants repos.SecretSantaParticipantRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Users:        repos.NewUserRepo(db, log),
		Events:       repos.NewEventRepo(db, log),
		Attendees:    repos.NewAttendeeRepo(db, log),
		SecretSantas: repos.NewSecretSantaRepo(db, log),
		Participants: repos.NewSecretSantaParticipantRepo(db, log),
	}
}
