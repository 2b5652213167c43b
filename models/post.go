package models

import (
	"time"

	"gorm.io/gorm"
)

// BoardPost is a sub-forum entry under a board
type BoardPost struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	BoardID  string `gorm:"index;not null" json:"board_id"`
	UserID   string `gorm:"index;not null" json:"user_id"`
	Emoji    string `gorm:"size:10" json:"emoji"`
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	PhotoURL string `gorm:"type:text" json:"photo_url,omitempty"`

	Comments []PostComment `gorm:"foreignKey:PostID" json:"comments,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type PostComment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"index;not null" json:"post_id"`
	UserID string `gorm:"index;not null" json:"user_id"`
	Text   string `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time `json:"created_at"`
}
