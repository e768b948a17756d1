package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null;type:varchar(255)"`
	PasswordHash string `gorm:"not null;type:varchar(255)"`
	FirstName    string `gorm:"type:varchar(100)"`
	LastName     string `gorm:"type:varchar(100)"`
	Role         Role   `gorm:"not null;type:varchar(20)"`
	IsActive     bool   `gorm:"not null"`
	LastLoginAt  *time.Time
	BaseModel
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RefreshToken 只存 id, token 本身不落地
type RefreshToken struct {
	ID        uuid.UUID `gorm:"primaryKey;type:varchar(36)"`
	UserID    int64     `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Identity 已驗證的呼叫者
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
