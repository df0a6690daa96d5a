package aggregates

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
)

// CASGuard writes a versioned row only if nobody else wrote it since it was read.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// Swap applies updates to table row id while its version column still equals
// expected, bumping the version in the same statement. A miss is a conflict.
// It returns the new version.
func (g CASGuard) Swap(dbc dbctx.Context, table string, id uuid.UUID, expected int, updates map[string]any) (int, error) {
	switch {
	case dbc.Tx == nil && g.db == nil:
		return 0, ValidationError("no db handle for compare-and-set")
	case table == "" || id == uuid.Nil:
		return 0, ValidationError("compare-and-set needs a table and an id")
	case expected < 0:
		return 0, ValidationError(fmt.Sprintf("negative expected version %d", expected))
	}

	db := dbc.DB(g.db)
	next := expected + 1
	cols := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		cols[k] = v
	}
	cols["version"] = next

	res := db.Table(table).Where("id = ? AND version = ?", id, expected).Updates(cols)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ConflictError(fmt.Sprintf("%s %s changed since version %d", table, id, expected))
	}
	return next, nil
}
