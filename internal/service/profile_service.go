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

// ProfileService handles operations on the account a verified token names.
type ProfileService struct {
	accountRepo   repository.AccountRepository
	hasher        auth.PasswordHasher
	tokens        *auth.TokenService
	validate      *validator.Validate
	metrics       *metrics.Metrics
	defaultAvatar string
}

func NewProfileService(accountRepo repository.AccountRepository, hasher auth.PasswordHasher, tokens *auth.TokenService, m *metrics.Metrics, defaultAvatar string) *ProfileService {
	if defaultAvatar == "" {
		defaultAvatar = domain.DefaultAvatar
	}
	return &ProfileService{
		accountRepo:   accountRepo,
		hasher:        hasher,
		tokens:        tokens,
		validate:      newValidator(),
		metrics:       m,
		defaultAvatar: defaultAvatar,
	}
}

type UpdateProfileInput struct {
	Name   string        `json:"name" validate:"required"`
	Gender domain.Gender `json:"gender" validate:"oneof=male female other"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// GetAccount loads the account behind the token.
func (s *ProfileService) GetAccount(ctx context.Context, claims *auth.Claims) (*domain.Account, error) {
	id, err := subjectID(claims)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeError("lookup account by id", err)
	}
	return account, nil
}

// UpdateProfile changes name and gender and returns a freshly issued token.
// Email and avatar in the new token come from the caller's current claims.
func (s *ProfileService) UpdateProfile(ctx context.Context, claims *auth.Claims, input UpdateProfileInput) (newToken string, err error) {
	defer func() { s.metrics.ObserveAuth("update_profile", outcome(err)) }()

	id, err := subjectID(claims)
	if err != nil {
		return "", err
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(s.validate, input); err != nil {
		return "", err
	}

	if err := s.accountRepo.UpdateProfile(ctx, id, input.Name, input.Gender); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", domain.ErrAccountNotFound
		}
		return "", storeError("update profile", err)
	}

	avatar := claims.Avatar
	if avatar == "" {
		avatar = s.defaultAvatar
	}

	return s.tokens.Issue(auth.Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Name:      input.Name,
		Avatar:    avatar,
		Gender:    input.Gender,
	})
}

// ChangePassword replaces the password hash after re-checking the old
// password. Tokens issued before the change stay valid until they expire.
func (s *ProfileService) ChangePassword(ctx context.Context, claims *auth.Claims, input ChangePasswordInput) (err error) {
	defer func() { s.metrics.ObserveAuth("change_password", outcome(err)) }()

	id, err := subjectID(claims)
	if err != nil {
		return err
	}

	if err := validateInput(s.validate, input); err != nil {
		return err
	}
	if err := checkPasswordLength("newPassword", input.NewPassword); err != nil {
		return err
	}

	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return storeError("lookup account by id", err)
	}

	ok, err := s.hasher.Verify(input.OldPassword, account.PasswordHash)
	if err != nil {
		return unauthorized(err)
	}
	if !ok {
		return domain.ErrIncorrectPassword
	}

	hashedPassword, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.accountRepo.UpdatePasswordHash(ctx, id, hashedPassword); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return storeError("update password hash", err)
	}

	return nil
}

func subjectID(claims *auth.Claims) (uuid.UUID, error) {
	if claims == nil {
		return uuid.Nil, unauthorized(errors.New("no claims"))
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, unauthorized(auth.ErrMalformedToken)
	}
	return id, nil
}
