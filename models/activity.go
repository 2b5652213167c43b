package models

import (
	"time"
)

// ActivityStatus is the two-state lifecycle of a mission attempt
type ActivityStatus string

const (
	ActivityStatusStarted   ActivityStatus = "started"
	ActivityStatusCompleted ActivityStatus = "completed"
)

// ParticipatedActivity is one user's attempt at one mission. Created by
// "start mission", transitioned at most once (started → completed) and never
// deleted. Once completed, no field may change again.
//
// Board/mission labels are denormalized so history rendering never needs a
// catalog join.
type ParticipatedActivity struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string         `gorm:"index;not null" json:"user_id"`
	BoardID      string         `gorm:"index;not null" json:"board_id"`
	BoardTitle   string         `gorm:"not null" json:"board_title"`
	MissionID    string         `gorm:"index;not null" json:"mission_id"`
	MissionType  MissionType    `gorm:"not null" json:"mission_type"`
	MissionTitle string         `gorm:"not null" json:"mission_title"`
	RewardCoins  int            `gorm:"not null" json:"reward_coins"`
	Status       ActivityStatus `gorm:"not null;index" json:"status"`

	StartedAt      time.Time `gorm:"not null" json:"started_at"`
	StartLatitude  float64   `gorm:"not null" json:"start_latitude"`
	StartLongitude float64   `gorm:"not null" json:"start_longitude"`

	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	EndLatitude  *float64   `json:"end_latitude,omitempty"`
	EndLongitude *float64   `json:"end_longitude,omitempty"`
}

func (a *ParticipatedActivity) StartCoordinate() Coordinate {
	return Coordinate{Latitude: a.StartLatitude, Longitude: a.StartLongitude}
}
