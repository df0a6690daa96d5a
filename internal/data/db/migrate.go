package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/wishlist-backend/internal/domain"
)

// AutoMigrateAll creates or updates every table, then adds the constraints
// GORM does not derive from the models.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		return EnsureSecretSantaConstraints(db)
	}
	return nil
}

type constraint struct {
	table string
	name  string
	def   string
}

var secretSantaConstraints = []constraint{
	{"event_attendee", "fk_event_attendee_event", `FOREIGN KEY ("event_id") REFERENCES "event"("id") ON DELETE CASCADE`},
	{"event_attendee", "fk_event_attendee_user", `FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE SET NULL`},
	{"secret_santa", "fk_secret_santa_event", `FOREIGN KEY ("event_id") REFERENCES "event"("id") ON DELETE CASCADE`},
	{"secret_santa", "chk_secret_santa_status", `CHECK ("status" IN ('CREATED','STARTED','CANCELLED'))`},
	{"secret_santa", "chk_secret_santa_budget", `CHECK ("budget" IS NULL OR "budget" >= 0)`},
	{"secret_santa_participant", "fk_secret_santa_participant_secret_santa", `FOREIGN KEY ("secret_santa_id") REFERENCES "secret_santa"("id") ON DELETE CASCADE`},
	{"secret_santa_participant", "fk_secret_santa_participant_attendee", `FOREIGN KEY ("attendee_id") REFERENCES "event_attendee"("id") ON DELETE CASCADE`},
}

// EnsureSecretSantaConstraints is idempotent; postgres only.
func EnsureSecretSantaConstraints(db *gorm.DB) error {
	for _, c := range secretSantaConstraints {
		stmt := fmt.Sprintf(`
			DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE "%s" ADD CONSTRAINT "%s" %s;
				END IF;
			END $$;`, c.name, c.table, c.name, c.def)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}
