package application

import (
	"context"
	"fmt"
	"time"

	"public-audio-gateway/access/domain"

	"github.com/google/uuid"
)

type UsageService struct {
	Accounts domain.AccountRepository
	Assets   domain.AssetRepository
	Window   time.Duration

	now func() time.Time
}

type Usage struct {
	Credits               int
	MonthlyPlays          int
	MonthlyPlaysLimit     int
	MonthlyPlaysRemaining int
	MonthlyPlaysReset     *time.Time
	PublicAssets          int64
	PublicAssetsLimit     int
}

// Summary devolve o uso da conta. Se a janela já venceu as reproduções
// aparecem zeradas, mas o reset só é gravado na próxima reprodução.
func (s UsageService) Summary(ctx context.Context, accountID uuid.UUID) (Usage, error) {
	acc, err := s.Accounts.FindAccount(ctx, accountID)
	if err != nil {
		return Usage{}, fmt.Errorf("find account: %w", err)
	}

	public, err := s.Assets.CountPublicAssets(ctx, accountID)
	if err != nil {
		return Usage{}, fmt.Errorf("count public assets: %w", err)
	}

	window := s.Window
	if window <= 0 {
		window = domain.DefaultMonthlyWindow
	}
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}

	plays := acc.MonthlyPlays
	if domain.WindowElapsed(acc.MonthlyPlaysReset, now, window) {
		plays = 0
	}
	remaining := acc.MonthlyPlaysLimit - plays
	if remaining < 0 {
		remaining = 0
	}

	return Usage{
		Credits:               acc.Credits,
		MonthlyPlays:          plays,
		MonthlyPlaysLimit:     acc.MonthlyPlaysLimit,
		MonthlyPlaysRemaining: remaining,
		MonthlyPlaysReset:     acc.MonthlyPlaysReset,
		PublicAssets:          public,
		PublicAssetsLimit:     acc.PublicAssetsLimit,
	}, nil
}
