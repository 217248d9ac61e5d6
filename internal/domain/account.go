package domain

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// Valid reports whether g may be chosen by a user. GenderUnknown is only
// assigned at registration.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

const DefaultAvatar = "/avatar_macdinh.jpg"

type Account struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Avatar       string    `json:"avatar"`
	Gender       Gender    `json:"gender" gorm:"type:varchar(16);not null;default:'unknown'"`
	CreatedAt    time.Time `json:"createdAt" gorm:"<-:create"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the minimal view returned after login.
type PublicUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a *Account) Public() PublicUser {
	return PublicUser{Name: a.Name, Email: a.Email}
}
