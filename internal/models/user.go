package models

import (
	"time"
)

// User is owned by the external identity collaborator; this service only
// reads it by reference and keeps presence bookkeeping up to date.
type User struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string     `gorm:"size:100;not null" json:"display_name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	IsOnline    bool       `gorm:"default:false" json:"is_online"`
	LastSeen    *time.Time `json:"last_seen"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	IsOnline    bool       `json:"is_online"`
	LastSeen    *time.Time `json:"last_seen"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		IsOnline:    u.IsOnline,
		LastSeen:    u.LastSeen,
	}
}
