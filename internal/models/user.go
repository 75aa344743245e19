package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeletedUsername is the placeholder account that inherits recipes of removed users.
const DeletedUsername = "deleted"

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`

	// Filled by viewer-relative queries; never persisted.
	IsSubscribed bool  `gorm:"->;-:migration" json:"-"`
	RecipesCount int64 `gorm:"->;-:migration" json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Subscription is a directed follower -> followee edge.
type Subscription struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time
	Follower   User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followee   User `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE"`
}
