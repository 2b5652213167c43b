package models

import (
	"fmt"
	"time"
)

// MissionType discriminates the mission rule variants
type MissionType string

const (
	MissionTypeQuietTimeVisit     MissionType = "quiet_time_visit"
	MissionTypeStayDuration       MissionType = "stay_duration"
	MissionTypeReceiptPurchase    MissionType = "receipt_purchase"
	MissionTypeCameraTreasureHunt MissionType = "camera_treasure_hunt"
	MissionTypeRepeatVisitStamp   MissionType = "repeat_visit_stamp"
)

// Mission is one rule-based task tied to a board. Only the parameter columns
// matching Type are populated; engine code must not read the raw columns and
// goes through Params() instead.
type Mission struct {
	ID          string      `gorm:"primaryKey;type:uuid" json:"id"`
	BoardID     string      `gorm:"index;not null" json:"board_id"`
	Type        MissionType `gorm:"not null" json:"type"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	RewardCoins int         `gorm:"not null" json:"reward_coins"`

	// quiet_time_visit — fractional hours in [0,24); end < start wraps past midnight
	QuietTimeStartHour *float64 `json:"quiet_time_start_hour,omitempty"`
	QuietTimeEndHour   *float64 `json:"quiet_time_end_hour,omitempty"`

	// stay_duration
	MinDurationMinutes *int `json:"min_duration_minutes,omitempty"`

	// receipt_purchase
	ReceiptItemName  *string `json:"receipt_item_name,omitempty"`
	ReceiptItemPrice *int    `json:"receipt_item_price,omitempty"`

	// camera_treasure_hunt
	TreasureGuideText     *string `gorm:"type:text" json:"treasure_guide_text,omitempty"`
	TreasureGuideImageURL *string `gorm:"type:text" json:"treasure_guide_image_url,omitempty"`

	// repeat_visit_stamp
	StampGoalCount *int `json:"stamp_goal_count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// MissionParams is the typed view over a mission's parameter columns.
// Exactly one concrete type per MissionType; verification dispatches on it
// with an exhaustive type switch, so a mission can never be checked against
// another type's parameters.
type MissionParams interface {
	missionParams()
}

type QuietTimeParams struct {
	StartHour float64
	EndHour   float64
}

type StayDurationParams struct {
	MinDuration time.Duration
}

type ReceiptParams struct {
	ItemName  string
	ItemPrice int
}

type TreasureHuntParams struct {
	GuideText     string
	GuideImageURL string
}

type RepeatStampParams struct {
	GoalCount int
}

func (QuietTimeParams) missionParams()    {}
func (StayDurationParams) missionParams() {}
func (ReceiptParams) missionParams()      {}
func (TreasureHuntParams) missionParams() {}
func (RepeatStampParams) missionParams()  {}

// Params resolves the mission's parameter columns into the typed variant.
// A mission whose columns don't match its tag is a corrupt catalog row.
func (m *Mission) Params() (MissionParams, error) {
	switch m.Type {
	case MissionTypeQuietTimeVisit:
		if m.QuietTimeStartHour == nil || m.QuietTimeEndHour == nil {
			return nil, fmt.Errorf("mission %s: quiet time window missing", m.ID)
		}
		return QuietTimeParams{StartHour: *m.QuietTimeStartHour, EndHour: *m.QuietTimeEndHour}, nil
	case MissionTypeStayDuration:
		if m.MinDurationMinutes == nil || *m.MinDurationMinutes < 1 {
			return nil, fmt.Errorf("mission %s: invalid stay duration", m.ID)
		}
		return StayDurationParams{MinDuration: time.Duration(*m.MinDurationMinutes) * time.Minute}, nil
	case MissionTypeReceiptPurchase:
		if m.ReceiptItemName == nil || m.ReceiptItemPrice == nil || *m.ReceiptItemPrice <= 0 {
			return nil, fmt.Errorf("mission %s: receipt target missing", m.ID)
		}
		return ReceiptParams{ItemName: *m.ReceiptItemName, ItemPrice: *m.ReceiptItemPrice}, nil
	case MissionTypeCameraTreasureHunt:
		if m.TreasureGuideText == nil || m.TreasureGuideImageURL == nil {
			return nil, fmt.Errorf("mission %s: treasure guide missing", m.ID)
		}
		return TreasureHuntParams{GuideText: *m.TreasureGuideText, GuideImageURL: *m.TreasureGuideImageURL}, nil
	case MissionTypeRepeatVisitStamp:
		if m.StampGoalCount == nil || *m.StampGoalCount < 1 {
			return nil, fmt.Errorf("mission %s: invalid stamp goal", m.ID)
		}
		return RepeatStampParams{GoalCount: *m.StampGoalCount}, nil
	default:
		return nil, fmt.Errorf("mission %s: unknown type %q", m.ID, m.Type)
	}
}
