package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishalbarai007/videoresizer/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.ConversionRecord{}); err != nil {
		return err
	}
	log.Info().Msg("applied conversion record migrations")
	return nil
}
