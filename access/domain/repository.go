package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AccountRepository interface {
	FindAccount(ctx context.Context, id uuid.UUID) (Account, error)

	// ConsumePlay reinicia a janela da conta se vencida e consome uma
	// reprodução, tudo como uma unidade atômica. Sem cota devolve
	// *QuotaExceededError e nada é gravado.
	ConsumePlay(ctx context.Context, accountID uuid.UUID, now time.Time, window time.Duration) (PlayUsage, error)
}

type AssetRepository interface {
	FindAsset(ctx context.Context, id uuid.UUID) (Asset, error)
	FindAssetBySlug(ctx context.Context, slug string) (Asset, error)
	ListAssets(ctx context.Context, accountID uuid.UUID) ([]Asset, error)
	CountPublicAssets(ctx context.Context, accountID uuid.UUID) (int64, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)

	// SetSharing liga (slug != nil) ou desliga (slug == nil) o compartilhamento.
	SetSharing(ctx context.Context, assetID uuid.UUID, slug *string) error

	// RecordAccess reinicia a janela mensal do asset se vencida e incrementa
	// os contadores total/mensal, atomicamente.
	RecordAccess(ctx context.Context, assetID uuid.UUID, now time.Time, window time.Duration) error
}

type APIKeyRepository interface {
	CreateAPIKey(ctx context.Context, key *APIKey) error
	FindAPIKeyByHash(ctx context.Context, hash string) (APIKey, error)
	TouchAPIKey(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListAPIKeys devolve as chaves da conta, mais novas primeiro.
	ListAPIKeys(ctx context.Context, accountID uuid.UUID) ([]APIKey, error)

	// DeleteAPIKey remove a chave da conta. Chave de outra conta conta como
	// inexistente (ErrAPIKeyNotFound).
	DeleteAPIKey(ctx context.Context, accountID, id uuid.UUID) error
}
