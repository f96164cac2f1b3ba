package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"public-audio-gateway/access/domain"

	"github.com/google/uuid"
)

// memRepo implementa os três repositórios em memória, com as mesmas regras
// de janela do repositório gorm.
type memRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]domain.Account
	assets   map[uuid.UUID]domain.Asset
	keys     map[string]domain.APIKey

	consumeCalls int
	recordCalls  int
	failLookup   error
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts: make(map[uuid.UUID]domain.Account),
		assets:   make(map[uuid.UUID]domain.Asset),
		keys:     make(map[string]domain.APIKey),
	}
}

func (m *memRepo) addAccount(a domain.Account) domain.Account {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.mu.Lock()
	m.accounts[a.ID] = a
	m.mu.Unlock()
	return a
}

func (m *memRepo) addAsset(a domain.Asset) domain.Asset {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.mu.Lock()
	m.assets[a.ID] = a
	m.mu.Unlock()
	return a
}

func (m *memRepo) account(id uuid.UUID) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

func (m *memRepo) asset(id uuid.UUID) domain.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assets[id]
}

func (m *memRepo) FindAccount(_ context.Context, id uuid.UUID) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return a, nil
}

func (m *memRepo) ConsumePlay(_ context.Context, id uuid.UUID, now time.Time, window time.Duration) (domain.PlayUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumeCalls++

	a, ok := m.accounts[id]
	if !ok {
		return domain.PlayUsage{}, domain.ErrAccountNotFound
	}
	if domain.WindowElapsed(a.MonthlyPlaysReset, now, window) {
		a.MonthlyPlays = 0
		n := now
		a.MonthlyPlaysReset = &n
	}
	if a.MonthlyPlays >= a.MonthlyPlaysLimit {
		m.accounts[id] = a
		return domain.PlayUsage{}, &domain.QuotaExceededError{Limit: a.MonthlyPlaysLimit, Current: a.MonthlyPlays}
	}
	a.MonthlyPlays++
	m.accounts[id] = a
	return domain.PlayUsage{Plays: a.MonthlyPlays, Limit: a.MonthlyPlaysLimit, Reset: *a.MonthlyPlaysReset}, nil
}

func (m *memRepo) FindAsset(_ context.Context, id uuid.UUID) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return a, nil
}

func (m *memRepo) FindAssetBySlug(_ context.Context, slug string) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLookup != nil {
		return domain.Asset{}, m.failLookup
	}
	for _, a := range m.assets {
		if a.PublicSlug != nil && *a.PublicSlug == slug {
			return a, nil
		}
	}
	return domain.Asset{}, domain.ErrAssetNotFound
}

func (m *memRepo) ListAssets(_ context.Context, accountID uuid.UUID) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Asset
	for _, a := range m.assets {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) CountPublicAssets(_ context.Context, accountID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.assets {
		if a.AccountID == accountID && a.IsPublic {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) SlugTaken(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.PublicSlug != nil && *a.PublicSlug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) SetSharing(_ context.Context, id uuid.UUID, slug *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return domain.ErrAssetNotFound
	}
	a.IsPublic = slug != nil
	a.PublicSlug = slug
	m.assets[id] = a
	return nil
}

func (m *memRepo) RecordAccess(_ context.Context, id uuid.UUID, now time.Time, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCalls++

	a, ok := m.assets[id]
	if !ok {
		return domain.ErrAssetNotFound
	}
	if domain.WindowElapsed(a.LastAccessReset, now, window) {
		a.MonthlyAccessCount = 0
		n := now
		a.LastAccessReset = &n
	}
	a.MonthlyAccessCount++
	a.AccessCount++
	n := now
	a.LastAccessed = &n
	m.assets[id] = a
	return nil
}

func (m *memRepo) CreateAPIKey(_ context.Context, k *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	m.keys[k.KeyHash] = *k
	return nil
}

func (m *memRepo) FindAPIKeyByHash(_ context.Context, hash string) (domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[hash]
	if !ok {
		return domain.APIKey{}, domain.ErrAPIKeyNotFound
	}
	return k, nil
}

func (m *memRepo) TouchAPIKey(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, k := range m.keys {
		if k.ID == id {
			k.LastUsedAt = &at
			m.keys[h] = k
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memRepo) ListAPIKeys(_ context.Context, accountID uuid.UUID) ([]domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.APIKey
	for _, k := range m.keys {
		if k.AccountID == accountID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) DeleteAPIKey(_ context.Context, accountID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, k := range m.keys {
		if k.ID == id && k.AccountID == accountID {
			delete(m.keys, h)
			return nil
		}
	}
	return domain.ErrAPIKeyNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.PlayEvent
	err    error
}

func (p *recordingPublisher) PublishPlay(_ context.Context, ev domain.PlayEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
