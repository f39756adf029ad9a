package model

import (
	"github.com/google/uuid"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex"`
	Username     string    `gorm:"uniqueIndex"`
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role `gorm:"type:varchar(16);default:user"`
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	UserId          uuid.UUID
	RefreshTokenJTI string
}
