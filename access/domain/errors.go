package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetNotFound cobre slug inexistente e asset não público; o chamador
	// não consegue distinguir os dois casos.
	ErrAssetNotFound   = errors.New("asset not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrAPIKeyNotFound  = errors.New("api key not found")

	ErrPublicAssetLimit = errors.New("public asset limit reached")
	ErrSlugExhausted    = errors.New("failed to generate unique slug")
	ErrUnauthorized     = errors.New("unauthorized")
)

// QuotaExceededError indica que a conta esgotou as reproduções da janela.
type QuotaExceededError struct {
	Limit   int
	Current int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly play limit reached (%d/%d)", e.Current, e.Limit)
}
