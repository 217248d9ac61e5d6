// Package repotest holds behaviour checks shared by every AccountRepository
// implementation.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewAccount returns an unsaved account with a unique email.
func NewAccount() *domain.Account {
	suffix := uuid.New().String()[:8]
	return &domain.Account{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("user_%s@example.com", suffix),
		Name:         "user " + suffix,
		PasswordHash: "hashedpassword",
		Avatar:       domain.DefaultAvatar,
		Gender:       domain.GenderUnknown,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// RunAccountRepository runs the contract against repositories produced by
// newRepo. Each subtest gets a fresh repository.
func RunAccountRepository(t *testing.T, newRepo func(t *testing.T) repository.AccountRepository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		account := NewAccount()
		require.NoError(t, repo.Create(ctx, account))

		byID, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, account.Email, byID.Email)
		assert.Equal(t, account.Name, byID.Name)
		assert.Equal(t, account.PasswordHash, byID.PasswordHash)
		assert.Equal(t, account.Gender, byID.Gender)

		byEmail, err := repo.GetByEmail(ctx, account.Email)
		require.NoError(t, err)
		assert.Equal(t, account.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newRepo(t)
		first := NewAccount()
		require.NoError(t, repo.Create(ctx, first))

		second := NewAccount()
		second.Email = first.Email
		err := repo.Create(ctx, second)
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		repo := newRepo(t)
		account := NewAccount()
		account.Email = "Case@Example.com"
		require.NoError(t, repo.Create(ctx, account))

		_, err := repo.GetByEmail(ctx, "case@example.com")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)

		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)

		err = repo.UpdateProfile(ctx, uuid.New(), "name", domain.GenderFemale)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)

		err = repo.UpdatePasswordHash(ctx, uuid.New(), "hash")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("update profile", func(t *testing.T) {
		repo := newRepo(t)
		account := NewAccount()
		require.NoError(t, repo.Create(ctx, account))

		require.NoError(t, repo.UpdateProfile(ctx, account.ID, "B", domain.GenderFemale))

		got, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "B", got.Name)
		assert.Equal(t, domain.GenderFemale, got.Gender)
		assert.Equal(t, account.Email, got.Email)
		assert.Equal(t, account.PasswordHash, got.PasswordHash)
		assert.WithinDuration(t, account.CreatedAt, got.CreatedAt, time.Second)
	})

	t.Run("update password hash", func(t *testing.T) {
		repo := newRepo(t)
		account := NewAccount()
		require.NoError(t, repo.Create(ctx, account))

		require.NoError(t, repo.UpdatePasswordHash(ctx, account.ID, "newhash"))

		got, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "newhash", got.PasswordHash)
		assert.Equal(t, account.Name, got.Name)
	})

	t.Run("concurrent registration of one email", func(t *testing.T) {
		repo := newRepo(t)
		email := NewAccount().Email

		const workers = 8
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				account := NewAccount()
				account.Email = email
				errs[i] = repo.Create(ctx, account)
			}(i)
		}
		wg.Wait()

		created := 0
		for _, err := range errs {
			if err == nil {
				created++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
		}
		assert.Equal(t, 1, created)
	})
}
