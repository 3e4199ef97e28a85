package models

import "time"

// User is a stored identity. Local users carry a PasswordHash, users created
// through an external provider carry an ExternalProviderID instead.
type User struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username           string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	PasswordHash       string    `json:"-" gorm:"type:varchar(255)"`
	Email              string    `json:"email" gorm:"type:varchar(255);not null"`
	ExternalProviderID *string   `json:"-" gorm:"uniqueIndex;type:varchar(100)"`
	Firstname          string    `json:"firstname,omitempty" gorm:"type:varchar(100)"`
	Lastname           string    `json:"lastname,omitempty" gorm:"type:varchar(100)"`
	Location           string    `json:"location,omitempty" gorm:"type:varchar(255)"`
	Images             []Image   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsExternal reports whether the user originated from an OAuth2 login.
func (u *User) IsExternal() bool {
	return u.ExternalProviderID != nil && *u.ExternalProviderID != ""
}
