package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dom/phim-stream/internal/auth"
	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/metrics"
	"github.com/dom/phim-stream/internal/repository"
	"github.com/dom/phim-stream/internal/repository/memory"
	"github.com/dom/phim-stream/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-jwt-secret-key-for-testing-only"

type fixture struct {
	repo    repository.AccountRepository
	tokens  *auth.TokenService
	hasher  *auth.BcryptHasher
	metrics *metrics.Metrics
	auth    *service.AuthService
	profile *service.ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, memory.NewAccountRepository())
}

func newFixtureWithRepo(t *testing.T, repo repository.AccountRepository) *fixture {
	t.Helper()

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	tokens := auth.NewTokenService(testSecret)
	m := metrics.New()

	return &fixture{
		repo:    repo,
		tokens:  tokens,
		hasher:  hasher,
		metrics: m,
		auth:    service.NewAuthService(repo, hasher, tokens, m, ""),
		profile: service.NewProfileService(repo, hasher, tokens, m, ""),
	}
}

// registerAndLogin creates an account and returns the claims of a fresh
// login token.
func (f *fixture) registerAndLogin(t *testing.T, name, email, password string) *auth.Claims {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.auth.Register(ctx, service.RegisterInput{Name: name, Email: email, Password: password}))
	result, err := f.auth.Login(ctx, service.LoginInput{Email: email, Password: password})
	require.NoError(t, err)

	claims, err := f.auth.Authenticate(result.Token)
	require.NoError(t, err)
	return claims
}

var errConnRefused = errors.New("dial tcp: connection refused")

// brokenRepo fails every call like an unreachable database.
type brokenRepo struct{}

func (brokenRepo) Create(context.Context, *domain.Account) error { return errConnRefused }
func (brokenRepo) GetByID(context.Context, uuid.UUID) (*domain.Account, error) {
	return nil, errConnRefused
}
func (brokenRepo) GetByEmail(context.Context, string) (*domain.Account, error) {
	return nil, errConnRefused
}
func (brokenRepo) UpdateProfile(context.Context, uuid.UUID, string, domain.Gender) error {
	return errConnRefused
}
func (brokenRepo) UpdatePasswordHash(context.Context, uuid.UUID, string) error {
	return errConnRefused
}
func (brokenRepo) Count(context.Context) (int64, error) { return 0, errConnRefused }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
