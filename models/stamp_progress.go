package models

import (
	"time"
)

// RepeatVisitProgress is the day-deduplicated stamp counter for one user on one
// repeat-visit mission. Created lazily on the first stamp.
//
// CurrentStampCount is always strictly below the mission's goal: the visit that
// would reach the goal resets the count to 0 and increments CompletedRounds in
// the same transaction.
//
// LastStampDate holds a calendar date ("2006-01-02") in the service's stamp
// timezone, compared by equality for the once-per-day rule.
type RepeatVisitProgress struct {
	ID                string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID            string `gorm:"uniqueIndex:idx_stamp_user_mission;not null" json:"user_id"`
	MissionID         string `gorm:"uniqueIndex:idx_stamp_user_mission;not null" json:"mission_id"`
	CurrentStampCount int    `gorm:"not null;default:0" json:"current_stamp_count"`
	CompletedRounds   int    `gorm:"not null;default:0" json:"completed_rounds"`
	LastStampDate     string `gorm:"size:10;not null" json:"last_stamp_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StampDateLayout is the calendar-date format stored in LastStampDate.
const StampDateLayout = "2006-01-02"
