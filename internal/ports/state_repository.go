package ports

import (
	"context"

	"github.com/bnema/nbassist/internal/domain"
)

type StateRepository interface {
	Load(ctx context.Context) (domain.SessionState, error)
	Save(ctx context.Context, state domain.SessionState) error
	Clear(ctx context.Context) error
}
