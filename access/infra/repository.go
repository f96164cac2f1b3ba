package infra

import (
	"context"
	"errors"
	"time"

	"public-audio-gateway/access/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implementa AccountRepository, AssetRepository e
// APIKeyRepository sobre o mesmo *gorm.DB.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// forUpdate trava a linha lida até o fim da transação. SQLite não tem lock
// de linha, mas serializa escritores (e OpenDB usa uma única conexão).
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *GormRepository) FindAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	var rec AccountRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return rec.toDomain(), nil
}

func (r *GormRepository) ConsumePlay(ctx context.Context, accountID uuid.UUID, now time.Time, window time.Duration) (domain.PlayUsage, error) {
	var usage domain.PlayUsage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acc AccountRecord
		err := forUpdate(tx).Where("id = ?", accountID).First(&acc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAccountNotFound
		}
		if err != nil {
			return err
		}

		reset := acc.MonthlyPlaysReset
		plays := acc.MonthlyPlays
		if domain.WindowElapsed(reset, now, window) {
			plays = 0
			reset = &now
		}

		// o erro desfaz a transação: sem cota nada é gravado
		if plays >= acc.MonthlyPlaysLimit {
			return &domain.QuotaExceededError{Limit: acc.MonthlyPlaysLimit, Current: plays}
		}

		plays++
		err = tx.Model(&AccountRecord{}).Where("id = ?", accountID).Updates(map[string]any{
			"monthly_plays":       plays,
			"monthly_plays_reset": *reset,
		}).Error
		if err != nil {
			return err
		}

		usage = domain.PlayUsage{Plays: plays, Limit: acc.MonthlyPlaysLimit, Reset: *reset}
		return nil
	})
	if err != nil {
		return domain.PlayUsage{}, err
	}
	return usage, nil
}

func (r *GormRepository) FindAsset(ctx context.Context, id uuid.UUID) (domain.Asset, error) {
	return r.findAsset(ctx, "id = ?", id)
}

func (r *GormRepository) FindAssetBySlug(ctx context.Context, slug string) (domain.Asset, error) {
	return r.findAsset(ctx, "public_slug = ?", slug)
}

func (r *GormRepository) findAsset(ctx context.Context, query string, arg any) (domain.Asset, error) {
	var rec AssetRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	if err != nil {
		return domain.Asset{}, err
	}
	return rec.toDomain(), nil
}

func (r *GormRepository) ListAssets(ctx context.Context, accountID uuid.UUID) ([]domain.Asset, error) {
	var recs []AssetRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Asset, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (r *GormRepository) CountPublicAssets(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&AssetRecord{}).
		Where("account_id = ? AND is_public = ?", accountID, true).
		Count(&n).Error
	return n, err
}

func (r *GormRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&AssetRecord{}).Where("public_slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *GormRepository) SetSharing(ctx context.Context, assetID uuid.UUID, slug *string) error {
	updates := map[string]any{"is_public": slug != nil, "public_slug": nil}
	if slug != nil {
		updates["public_slug"] = *slug
	}

	res := r.db.WithContext(ctx).Model(&AssetRecord{}).Where("id = ?", assetID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (r *GormRepository) RecordAccess(ctx context.Context, assetID uuid.UUID, now time.Time, window time.Duration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec AssetRecord
		err := forUpdate(tx).Where("id = ?", assetID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAssetNotFound
		}
		if err != nil {
			return err
		}

		monthly := rec.MonthlyAccessCount
		reset := rec.LastAccessReset
		if domain.WindowElapsed(reset, now, window) {
			monthly = 0
			reset = &now
		}

		return tx.Model(&AssetRecord{}).Where("id = ?", assetID).Updates(map[string]any{
			"access_count":         rec.AccessCount + 1,
			"monthly_access_count": monthly + 1,
			"last_access_reset":    *reset,
			"last_accessed":        now,
		}).Error
	})
}

func (r *GormRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	rec := APIKeyRecord{
		ID:         key.ID,
		AccountID:  key.AccountID,
		Name:       key.Name,
		KeyHash:    key.KeyHash,
		KeyPreview: key.KeyPreview,
		CreatedAt:  key.CreatedAt,
		ExpiresAt:  key.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	key.ID = rec.ID
	key.CreatedAt = rec.CreatedAt
	return nil
}

func (r *GormRepository) FindAPIKeyByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	var rec APIKeyRecord
	err := r.db.WithContext(ctx).Where("key_hash = ?", hash).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.APIKey{}, domain.ErrAPIKeyNotFound
	}
	if err != nil {
		return domain.APIKey{}, err
	}
	return rec.toDomain(), nil
}

func (r *GormRepository) TouchAPIKey(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&APIKeyRecord{}).Where("id = ?", id).Update("last_used_at", at).Error
}

func (r *GormRepository) ListAPIKeys(ctx context.Context, accountID uuid.UUID) ([]domain.APIKey, error) {
	var recs []APIKeyRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.APIKey, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (r *GormRepository) DeleteAPIKey(ctx context.Context, accountID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		Delete(&APIKeyRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAPIKeyNotFound
	}
	return nil
}
