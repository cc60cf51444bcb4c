package history

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/vishalbarai007/videoresizer/internal/domain/history"
	"github.com/vishalbarai007/videoresizer/internal/infrastructure/database/entities"
	"github.com/vishalbarai007/videoresizer/internal/utils/platformerrors"
)

// Repository handles conversion record persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, userID string) ([]domain.Record, error) {
	var rows []entities.ConversionRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversion records",
			err,
			"5f1c9a3b-7d2e-4b8f-a6c0-93e4d7b21a05",
		)
	}
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapEntity(row))
	}
	return records, nil
}

func (r *Repository) GetByID(ctx context.Context, userID, id string) (*domain.Record, error) {
	var row entities.ConversionRecord
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"conversion record not found",
				err,
				"0b6e2d5a-4c3f-48e1-9a7b-6d1c8f2e4b03",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get conversion record",
			err,
			"8a4d7c1e-2b5f-4e9a-b3d6-0f7c2a9e5b18",
		)
	}
	record := mapEntity(row)
	return &record, nil
}

func (r *Repository) Create(ctx context.Context, userID string, record domain.Record) error {
	row := entities.ConversionRecord{
		ID:              record.ID,
		UserID:          userID,
		Name:            record.Name,
		Platform:        record.Platform,
		Status:          string(record.Status),
		ThumbnailKey:    record.ThumbnailKey,
		OutputKey:       record.OutputKey,
		DurationSeconds: record.DurationSeconds,
		Bytes:           record.Bytes,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversion record",
			err,
			"3e9b5a7d-1f4c-42d8-8e6a-b2c0d5f7a914",
		)
	}
	return nil
}

// SetOutcome records the terminal outcome of a conversion.
func (r *Repository) SetOutcome(ctx context.Context, id string, status domain.Status, outcome domain.Outcome) error {
	updates := map[string]any{
		"status": string(status),
	}
	if outcome.OutputKey != "" {
		updates["output_key"] = outcome.OutputKey
	}
	if outcome.ThumbnailKey != "" {
		updates["thumbnail_key"] = outcome.ThumbnailKey
	}
	if outcome.Bytes > 0 {
		updates["bytes"] = outcome.Bytes
	}
	if outcome.DurationSeconds > 0 {
		updates["duration_seconds"] = outcome.DurationSeconds
	}
	err := r.db.WithContext(ctx).
		Model(&entities.ConversionRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversion record outcome",
			err,
			"6c2f8e4a-9b1d-47a3-b5e0-d8a3c6f1e257",
		)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.ConversionRecord{})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete conversion record",
			result.Error,
			"1d7a4b9c-6e2f-483d-a0b5-c9f2e7d4a836",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"conversion record not found",
			gorm.ErrRecordNotFound,
			"4b8c2e6d-0a5f-41b9-8d3e-7f1a9c4e2b60",
		)
	}
	return nil
}

func mapEntity(row entities.ConversionRecord) domain.Record {
	return domain.Record{
		ID:              row.ID,
		Name:            row.Name,
		Platform:        row.Platform,
		Status:          domain.Status(row.Status),
		ThumbnailKey:    row.ThumbnailKey,
		OutputKey:       row.OutputKey,
		DurationSeconds: row.DurationSeconds,
		Bytes:           row.Bytes,
		CreatedAt:       row.CreatedAt,
	}
}
