package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wishlist-backend/internal/domain"
	"github.com/yungbote/wishlist-backend/internal/domain/secretsanta"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, date time.Time) *types.Event {
	tb.Helper()
	ev := &types.Event{
		ID:        uuid.New(),
		Title:     title,
		EventDate: date,
	}
	if err := tx.WithContext(ctx).Create(ev).Error; err != nil {
		tb.Fatalf("seed event: %v", err)
	}
	return ev
}

// SeedAttendee links u to ev. A nil user seeds an invited attendee with email.
func SeedAttendee(tb testing.TB, ctx context.Context, tx *gorm.DB, ev *types.Event, u *types.User, role types.AttendeeRole, email string) *types.Attendee {
	tb.Helper()
	a := &types.Attendee{
		ID:      uuid.New(),
		EventID: ev.ID,
		Role:    role,
	}
	if u != nil {
		id := u.ID
		a.UserID = &id
	} else {
		a.PendingEmail = &email
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attendee: %v", err)
	}
	return a
}

func SeedSecretSanta(tb testing.TB, ctx context.Context, tx *gorm.DB, eventID uuid.UUID) *types.SecretSanta {
	tb.Helper()
	ss, err := secretsanta.New(uuid.New(), eventID, nil, nil, time.Now().UTC())
	if err != nil {
		tb.Fatalf("build secret santa: %v", err)
	}
	if err := tx.WithContext(ctx).Create(&ss).Error; err != nil {
		tb.Fatalf("seed secret santa: %v", err)
	}
	return &ss
}

func SeedParticipant(tb testing.TB, ctx context.Context, tx *gorm.DB, secretSantaID, attendeeID uuid.UUID) *types.SecretSantaParticipant {
	tb.Helper()
	p := secretsanta.NewParticipant(uuid.New(), secretSantaID, attendeeID, time.Now().UTC())
	if err := tx.WithContext(ctx).Create(&p).Error; err != nil {
		tb.Fatalf("seed participant: %v", err)
	}
	return &p
}
