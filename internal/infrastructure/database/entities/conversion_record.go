package entities

import "time"

// ConversionRecord represents the persisted summary of a past conversion.
type ConversionRecord struct {
	ID              string `gorm:"type:varchar(40);primaryKey"`
	UserID          string `gorm:"type:varchar(64);index;not null"`
	Name            string `gorm:"type:varchar(255);not null"`
	Platform        string `gorm:"type:varchar(32);not null"`
	Status          string `gorm:"type:varchar(16);not null"` // completed | processing | failed
	ThumbnailKey    string `gorm:"type:varchar(255)"`
	OutputKey       string `gorm:"type:varchar(255)"`
	DurationSeconds float64
	Bytes           int64
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (ConversionRecord) TableName() string {
	return "conversion_records"
}
