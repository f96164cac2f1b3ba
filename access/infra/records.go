package infra

import (
	"time"

	"public-audio-gateway/access/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRecord struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Credits           int       `gorm:"not null;default:0"`
	MonthlyPlays      int       `gorm:"not null;default:0"`
	MonthlyPlaysLimit int       `gorm:"not null;default:1000"`
	MonthlyPlaysReset *time.Time
	PublicAssetsLimit int `gorm:"not null;default:10"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (AccountRecord) TableName() string { return "accounts" }

func (r *AccountRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r AccountRecord) toDomain() domain.Account {
	return domain.Account{
		ID:                r.ID,
		Credits:           r.Credits,
		MonthlyPlays:      r.MonthlyPlays,
		MonthlyPlaysLimit: r.MonthlyPlaysLimit,
		MonthlyPlaysReset: r.MonthlyPlaysReset,
		PublicAssetsLimit: r.PublicAssetsLimit,
	}
}

type AssetRecord struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Name               string    `gorm:"size:255"`
	AudioURL           string    `gorm:"size:2048;not null"`
	IsPublic           bool      `gorm:"not null;default:false;index"`
	PublicSlug         *string   `gorm:"size:32;uniqueIndex"`
	AccessCount        int64     `gorm:"not null;default:0"`
	MonthlyAccessCount int64     `gorm:"not null;default:0"`
	LastAccessReset    *time.Time
	LastAccessed       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (AssetRecord) TableName() string { return "assets" }

func (r *AssetRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r AssetRecord) toDomain() domain.Asset {
	return domain.Asset{
		ID:                 r.ID,
		AccountID:          r.AccountID,
		Name:               r.Name,
		AudioURL:           r.AudioURL,
		IsPublic:           r.IsPublic,
		PublicSlug:         r.PublicSlug,
		AccessCount:        r.AccessCount,
		MonthlyAccessCount: r.MonthlyAccessCount,
		LastAccessReset:    r.LastAccessReset,
		LastAccessed:       r.LastAccessed,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type APIKeyRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"size:255;not null"`
	KeyHash    string    `gorm:"size:64;not null;uniqueIndex"`
	KeyPreview string    `gorm:"size:16"`
	CreatedAt  time.Time
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
}

func (APIKeyRecord) TableName() string { return "api_keys" }

func (r *APIKeyRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r APIKeyRecord) toDomain() domain.APIKey {
	return domain.APIKey{
		ID:         r.ID,
		AccountID:  r.AccountID,
		Name:       r.Name,
		KeyHash:    r.KeyHash,
		KeyPreview: r.KeyPreview,
		CreatedAt:  r.CreatedAt,
		LastUsedAt: r.LastUsedAt,
		ExpiresAt:  r.ExpiresAt,
	}
}
