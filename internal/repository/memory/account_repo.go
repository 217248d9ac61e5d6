// Package memory provides a process-local credential store. It enforces the
// same uniqueness and not-found contract as the PostgreSQL store and is used
// for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/repository"
	"github.com/google/uuid"
)

type accountRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewAccountRepository() *accountRepository {
	return &accountRepository{
		byID:    make(map[uuid.UUID]domain.Account),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Account: NewAccountRepository(),
	}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[account.Email]; exists {
		return domain.ErrDuplicateEmail
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if _, exists := r.byID[account.ID]; exists {
		return domain.ErrDuplicateEmail
	}

	now := r.now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	r.byID[account.ID] = *account
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	account := r.byID[id]
	return &account, nil
}

func (r *accountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, gender domain.Gender) error {
	return r.update(id, func(a *domain.Account) {
		a.Name = name
		a.Gender = gender
	})
}

func (r *accountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(id, func(a *domain.Account) {
		a.PasswordHash = passwordHash
	})
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *accountRepository) update(id uuid.UUID, mutate func(*domain.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	mutate(&account)
	account.UpdatedAt = r.now()
	r.byID[id] = account
	return nil
}
