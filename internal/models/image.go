package models

import "time"

// Image is an upload hosted on Imgur and owned by a user.
type Image struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ImgurID    string    `json:"imgur_id" gorm:"type:varchar(64)"`
	Link       string    `json:"link" gorm:"type:varchar(512)"`
	DeleteHash string    `json:"delete_hash" gorm:"index;type:varchar(64)"`
	Filename   string    `json:"filename" gorm:"type:varchar(255)"`
	UserID     string    `json:"-" gorm:"index;type:varchar(36);not null"`
	CreatedAt  time.Time `json:"created_at"`
}
