package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ChannelUniqueIndexSQL enforces one channel per (country, region), with a NULL
// region treated as its own value. The expression form works on PostgreSQL and SQLite.
const ChannelUniqueIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS uq_channels_country_region ON channels (country_id, COALESCE(region_id, 0))`

// AutoMigrate creates the schema from the GORM models. Used by tests and local
// development; production relies on the SQL migrations.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return EnsureIndexes(ctx, db)
}

// EnsureIndexes creates the indexes GORM tags cannot express.
func EnsureIndexes(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(ChannelUniqueIndexSQL).Error; err != nil {
		return fmt.Errorf("create channel unique index: %w", err)
	}
	return nil
}
