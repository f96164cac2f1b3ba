package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"public-audio-gateway/access/domain"

	"github.com/google/uuid"
)

// KeyPrefix identifica chaves de produção.
const KeyPrefix = "dk_live_"

// Keys emite e valida chaves de API. Só o hash SHA-256 é persistido.
type Keys struct {
	Repo domain.APIKeyRepository

	now func() time.Time
}

// Issue cria uma chave nova e devolve o valor bruto, que não é recuperável depois.
func (k Keys) Issue(ctx context.Context, accountID uuid.UUID, name string, ttl time.Duration) (string, domain.APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.APIKey{}, errors.New("name is required")
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", domain.APIKey{}, fmt.Errorf("generate key: %w", err)
	}
	raw := KeyPrefix + hex.EncodeToString(buf)

	now := k.clock()
	key := domain.APIKey{
		AccountID:  accountID,
		Name:       name,
		KeyHash:    HashKey(raw),
		KeyPreview: keyPreview(raw),
		CreatedAt:  now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		key.ExpiresAt = &exp
	}

	if err := k.Repo.CreateAPIKey(ctx, &key); err != nil {
		return "", domain.APIKey{}, fmt.Errorf("store key: %w", err)
	}
	return raw, key, nil
}

// Authenticate devolve a conta dona da chave. Qualquer falha de validação
// vira domain.ErrUnauthorized; erros de infraestrutura são propagados.
func (k Keys) Authenticate(ctx context.Context, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, KeyPrefix) {
		return uuid.Nil, domain.ErrUnauthorized
	}

	key, err := k.Repo.FindAPIKeyByHash(ctx, HashKey(raw))
	if errors.Is(err, domain.ErrAPIKeyNotFound) {
		return uuid.Nil, domain.ErrUnauthorized
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find api key: %w", err)
	}

	now := k.clock()
	if key.Expired(now) {
		return uuid.Nil, domain.ErrUnauthorized
	}

	if err := k.Repo.TouchAPIKey(ctx, key.ID, now); err != nil {
		log.Printf("update api key last_used_at id=%s: %v", key.ID, err)
	}
	return key.AccountID, nil
}

// List devolve as chaves da conta, mais novas primeiro. Só metadados e
// preview: o valor bruto nunca é recuperável.
func (k Keys) List(ctx context.Context, accountID uuid.UUID) ([]domain.APIKey, error) {
	keys, err := k.Repo.ListAPIKeys(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// Revoke apaga a chave; a partir daí Authenticate a rejeita. Chave de outra
// conta devolve domain.ErrAPIKeyNotFound.
func (k Keys) Revoke(ctx context.Context, accountID, keyID uuid.UUID) error {
	err := k.Repo.DeleteAPIKey(ctx, accountID, keyID)
	if errors.Is(err, domain.ErrAPIKeyNotFound) {
		return domain.ErrAPIKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return nil
}

func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// "..." + últimos 8 caracteres da parte aleatória
func keyPreview(raw string) string {
	rest := strings.TrimPrefix(raw, KeyPrefix)
	if len(rest) > 8 {
		rest = rest[len(rest)-8:]
	}
	return "..." + rest
}

func (k Keys) clock() time.Time {
	if k.now != nil {
		return k.now().UTC()
	}
	return time.Now().UTC()
}
