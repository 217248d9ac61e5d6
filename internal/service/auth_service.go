package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dom/phim-stream/internal/auth"
	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/metrics"
	"github.com/dom/phim-stream/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AuthService struct {
	accountRepo   repository.AccountRepository
	hasher        auth.PasswordHasher
	tokens        *auth.TokenService
	validate      *validator.Validate
	metrics       *metrics.Metrics
	defaultAvatar string
}

func NewAuthService(accountRepo repository.AccountRepository, hasher auth.PasswordHasher, tokens *auth.TokenService, m *metrics.Metrics, defaultAvatar string) *AuthService {
	if defaultAvatar == "" {
		defaultAvatar = domain.DefaultAvatar
	}
	return &AuthService{
		accountRepo:   accountRepo,
		hasher:        hasher,
		tokens:        tokens,
		validate:      newValidator(),
		metrics:       m,
		defaultAvatar: defaultAvatar,
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string
	User  domain.PublicUser
}

// Register creates an account. It never issues a token; callers log in
// afterwards.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (err error) {
	defer func() { s.metrics.ObserveAuth("register", outcome(err)) }()

	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(s.validate, input); err != nil {
		return err
	}
	if err := checkPasswordLength("password", input.Password); err != nil {
		return err
	}

	// Check if email exists
	_, err = s.accountRepo.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrAccountNotFound):
		return storeError("lookup account by email", err)
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return err
	}

	account := &domain.Account{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hashedPassword,
		Avatar:       s.defaultAvatar,
		Gender:       domain.GenderUnknown,
	}

	// The unique index still decides concurrent registrations of one email.
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return domain.ErrDuplicateEmail
		}
		return storeError("create account", err)
	}

	return nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	defer func() { s.metrics.ObserveAuth("login", outcome(err)) }()

	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeError("lookup account by email", err)
	}

	ok, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		return nil, unauthorized(err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(s.identityOf(account))
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: account.Public()}, nil
}

// Authenticate verifies a bearer token. Every token failure is reported as
// domain.ErrUnauthorized; the wrapped cause says which check failed.
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, unauthorized(errors.New("token not provided"))
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, unauthorized(err)
	}
	return claims, nil
}

func (s *AuthService) identityOf(account *domain.Account) auth.Identity {
	avatar := account.Avatar
	if avatar == "" {
		avatar = s.defaultAvatar
	}
	gender := account.Gender
	if gender == "" {
		gender = domain.GenderOther
	}

	return auth.Identity{
		SubjectID: account.ID.String(),
		Email:     account.Email,
		Name:      account.Name,
		Avatar:    avatar,
		Gender:    gender,
	}
}
