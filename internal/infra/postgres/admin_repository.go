package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

const adminPinKey = "admin_pin"

type adminSetting struct {
	bun.BaseModel `bun:"table:admin_settings,alias:s"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// AdminRepository reads and writes the admin PIN in admin_settings.
type AdminRepository struct {
	db *bun.DB
}

func NewAdminRepository(db *bun.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetPin returns "" when no PIN row exists.
func (r *AdminRepository) GetPin(ctx context.Context) (string, error) {
	var setting adminSetting
	err := r.db.NewSelect().Model(&setting).Where("key = ?", adminPinKey).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get admin pin: %w", err)
	}
	return setting.Value, nil
}

func (r *AdminRepository) UpdatePin(ctx context.Context, pin string) error {
	setting := adminSetting{Key: adminPinKey, Value: pin, UpdatedAt: time.Now()}
	_, err := r.db.NewInsert().
		Model(&setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update admin pin: %w", err)
	}
	return nil
}
