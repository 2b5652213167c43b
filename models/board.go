package models

import (
	"time"

	"gorm.io/gorm"
)

// Coordinate is a raw GPS fix as supplied by the location collaborator.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Board is a fixed-location entity hosting missions and a sub-forum of posts.
// Boards and their missions are written once by catalog seeding and never
// mutated by the engine afterwards.
type Board struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Emoji       string    `gorm:"size:10" json:"emoji"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Latitude    float64   `gorm:"not null" json:"latitude"`
	Longitude   float64   `gorm:"not null" json:"longitude"`
	Missions    []Mission `gorm:"foreignKey:BoardID" json:"missions,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Board) Coordinate() Coordinate {
	return Coordinate{Latitude: b.Latitude, Longitude: b.Longitude}
}
