package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// SessionLifetime is how long an issued token stays valid.
const SessionLifetime = 7 * 24 * time.Hour

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpiredToken     = errors.New("token expired")
)

// Identity is the snapshot of an account carried inside a session token.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
	Avatar    string
	Gender    domain.Gender
}

// Claims is the JSON payload of a session token. The subject id travels in
// the registered "sub" claim.
type Claims struct {
	Email  string        `json:"email"`
	Name   string        `json:"name"`
	Avatar string        `json:"avatar,omitempty"`
	Gender domain.Gender `json:"gender,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{
		SubjectID: c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		Avatar:    c.Avatar,
		Gender:    c.Gender,
	}
}

type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	return &TokenService{secret: s.secret, now: now}
}

func (s *TokenService) Issue(id Identity) (string, error) {
	issuedAt := s.now()
	claims := Claims{
		Email:  id.Email,
		Name:   id.Name,
		Avatar: id.Avatar,
		Gender: id.Gender,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(SessionLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}

	return claims, nil
}
