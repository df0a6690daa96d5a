package secretsanta

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/data/repos/testutil"
	types "github.com/yungbote/wishlist-backend/internal/domain"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
)

func TestSecretSantaRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewSecretSantaRepo(db, testutil.Logger(t))
	ev := testutil.SeedEvent(t, ctx, tx, "party", time.Now().Add(48*time.Hour))

	exists, err := repo.ExistsForEvent(dbc, ev.ID)
	if err != nil {
		t.Fatalf("ExistsForEvent: %v", err)
	}
	if exists {
		t.Fatalf("ExistsForEvent: want=false got=true")
	}

	budget := 20.0
	created, err := repo.Create(dbc, []*types.SecretSanta{{
		EventID: ev.ID,
		Status:  types.SecretSantaCreated,
		Budget:  &budget,
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created[0].ID
	if id == uuid.Nil || created[0].Version != 1 {
		t.Fatalf("Create: unexpected row: %+v", created[0])
	}

	if _, err := repo.Create(dbc, []*types.SecretSanta{{EventID: ev.ID, Status: types.SecretSantaCreated}}); err == nil {
		t.Fatalf("Create: second secret santa for the event must violate the unique index")
	}
}

func TestSecretSantaRepoLookups(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	repo := NewSecretSantaRepo(db, testutil.Logger(t))
	ev := testutil.SeedEvent(t, ctx, db, "party", time.Now().Add(48*time.Hour))
	ss := testutil.SeedSecretSanta(t, ctx, db, ev.ID)

	got, err := repo.GetByID(dbc, ss.ID)
	if err != nil || got == nil || got.EventID != ev.ID {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
	byEvent, err := repo.GetByEventID(dbc, ev.ID)
	if err != nil || byEvent == nil || byEvent.ID != ss.ID {
		t.Fatalf("GetByEventID: got=%+v err=%v", byEvent, err)
	}
	exists, err := repo.ExistsForEvent(dbc, ev.ID)
	if err != nil || !exists {
		t.Fatalf("ExistsForEvent: want=true got=%v err=%v", exists, err)
	}

	var locked *types.SecretSanta
	err = db.Transaction(func(tx *gorm.DB) error {
		var lerr error
		locked, lerr = repo.LockByID(dbctx.Context{Ctx: ctx, Tx: tx}, ss.ID)
		return lerr
	})
	if err != nil || locked == nil || locked.ID != ss.ID {
		t.Fatalf("LockByID: got=%+v err=%v", locked, err)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID (missing): want=nil got=%+v err=%v", missing, err)
	}

	if err := repo.FullDeleteByID(dbc, ss.ID); err != nil {
		t.Fatalf("FullDeleteByID: %v", err)
	}
	gone, err := repo.GetByID(dbc, ss.ID)
	if err != nil || gone != nil {
		t.Fatalf("after delete: want=nil got=%+v err=%v", gone, err)
	}
}
