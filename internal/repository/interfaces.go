package repository

import (
	"context"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/google/uuid"
)

// AccountRepository is the durable credential store. Implementations report
// missing rows as domain.ErrAccountNotFound and unique email violations as
// domain.ErrDuplicateEmail; every other error means the store itself failed.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, gender domain.Gender) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	Count(ctx context.Context) (int64, error)
}

type Repositories struct {
	Account AccountRepository
}
