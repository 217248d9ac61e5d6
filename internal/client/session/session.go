// Package session keeps the signed-in user's token on the client and
// exposes the identity carried in it.
//
// The token is decoded without checking its signature. The server verifies
// every request; the client only needs the claims for display.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultName   = "User"
	defaultGender = "other"
)

var ErrUndecodableToken = errors.New("session token cannot be decoded")

// User is the identity shown to the person at the keyboard.
type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Gender string `json:"gender"`
}

type Store struct {
	storage Storage

	mu    sync.RWMutex
	token string
	user  *User
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Hydrate loads the persisted token. A token that cannot be decoded is
// removed from storage and the session stays anonymous.
func (s *Store) Hydrate() (*User, error) {
	token, ok, err := s.storage.Get()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.token, s.user = "", nil
		return nil, nil
	}

	user, err := Decode(token)
	if err != nil {
		s.token, s.user = "", nil
		if delErr := s.storage.Delete(); delErr != nil {
			return nil, fmt.Errorf("purge undecodable token: %w", delErr)
		}
		return nil, nil
	}

	s.token, s.user = token, user
	return user, nil
}

// Set replaces the session with token. An undecodable token is rejected and
// the current session is left as it was.
func (s *Store) Set(token string) (*User, error) {
	user, err := Decode(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Put(token); err != nil {
		return nil, err
	}
	s.token, s.user = token, user
	return user, nil
}

// Clear signs out locally.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(); err != nil {
		return err
	}
	s.token, s.user = "", nil
	return nil
}

// Current returns the signed-in user, or nil when anonymous.
func (s *Store) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Decode reads the identity claims of token without verifying it.
func Decode(token string) (*User, error) {
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("%w: expected three segments", ErrUndecodableToken)
	}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, jwt.MapClaims{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableToken, err)
	}

	// ParseUnverified accepts a payload of null; the claims must be an object.
	payload, err := parser.DecodeSegment(strings.Split(token, ".")[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableToken, err)
	}
	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableToken, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: claims are not an object", ErrUndecodableToken)
	}

	user := &User{
		Name:   stringClaim(claims, "name"),
		Email:  stringClaim(claims, "email"),
		Avatar: stringClaim(claims, "avatar"),
		Gender: stringClaim(claims, "gender"),
	}
	if user.Name == "" {
		user.Name = defaultName
	}
	if user.Gender == "" {
		user.Gender = defaultGender
	}
	return user, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
