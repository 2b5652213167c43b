// services/activity_queries.go
package services

import (
	"errors"
	"time"

	"drop-mission-service/models"

	"gorm.io/gorm"
)

// Read-only projections over the ledger and progress store for display.

// ParticipatedStoreSummary is one distinct board a user has attempted missions
// at, with the repeat-visit stamp card merged in when the board has one.
type ParticipatedStoreSummary struct {
	BoardID              string    `json:"board_id"`
	BoardTitle           string    `json:"board_title"`
	BoardEmoji           string    `json:"board_emoji"`
	ActivityCount        int64     `json:"activity_count"`
	LastActivityAt       time.Time `json:"last_activity_at"`
	StampCurrentCount    int       `json:"stamp_current_count"`
	StampGoalCount       int       `json:"stamp_goal_count"`
	StampCompletedRounds int       `json:"stamp_completed_rounds"`
}

// ParticipatedStores lists the distinct boards the user has attempted,
// most recent attempt first.
func (s *ActivityService) ParticipatedStores(userID string) ([]ParticipatedStoreSummary, error) {
	var activities []models.ParticipatedActivity
	if err := s.DB.Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&activities).Error; err != nil {
		return nil, err
	}

	// Fold newest-first: the first entry seen per board carries its recency.
	var rows []ParticipatedStoreSummary
	index := make(map[string]int)
	for _, a := range activities {
		if i, ok := index[a.BoardID]; ok {
			rows[i].ActivityCount++
			continue
		}
		index[a.BoardID] = len(rows)
		rows = append(rows, ParticipatedStoreSummary{
			BoardID:        a.BoardID,
			BoardTitle:     a.BoardTitle,
			ActivityCount:  1,
			LastActivityAt: a.StartedAt,
		})
	}

	for i := range rows {
		var board models.Board
		if err := s.DB.Preload("Missions").First(&board, "id = ?", rows[i].BoardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				rows[i].BoardEmoji = "📍"
				continue
			}
			return nil, err
		}
		rows[i].BoardEmoji = board.Emoji

		for _, m := range board.Missions {
			if m.Type != models.MissionTypeRepeatVisitStamp || m.StampGoalCount == nil {
				continue
			}
			rows[i].StampGoalCount = *m.StampGoalCount

			var prog models.RepeatVisitProgress
			err := s.DB.Where("user_id = ? AND mission_id = ?", userID, m.ID).First(&prog).Error
			if err == nil {
				rows[i].StampCurrentCount = prog.CurrentStampCount
				rows[i].StampCompletedRounds = prog.CompletedRounds
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			break
		}
	}

	return rows, nil
}

// BoardHistory returns a board's ledger entries, newest start first.
func (s *ActivityService) BoardHistory(boardID string) ([]models.ParticipatedActivity, error) {
	var entries []models.ParticipatedActivity
	err := s.DB.Where("board_id = ?", boardID).
		Order("started_at DESC").
		Find(&entries).Error
	return entries, err
}

// UserHistory returns the user's own ledger entries, newest start first.
func (s *ActivityService) UserHistory(userID string) ([]models.ParticipatedActivity, error) {
	var entries []models.ParticipatedActivity
	err := s.DB.Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&entries).Error
	return entries, err
}

// StampCardView renders the fixed-size indicator row for a repeat-visit
// mission: goal-many slots, the first CurrentCount of them filled.
type StampCardView struct {
	MissionID       string `json:"mission_id"`
	GoalCount       int    `json:"goal_count"`
	CurrentCount    int    `json:"current_count"`
	CompletedRounds int    `json:"completed_rounds"`
	Slots           []bool `json:"slots"`
}

func (s *ActivityService) StampCard(userID, missionID string) (*StampCardView, error) {
	var mission models.Mission
	if err := s.DB.First(&mission, "id = ?", missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}

	params, err := mission.Params()
	if err != nil {
		return nil, err
	}
	stamp, ok := params.(models.RepeatStampParams)
	if !ok {
		return nil, ErrMissionNotFound
	}

	view := &StampCardView{
		MissionID: missionID,
		GoalCount: stamp.GoalCount,
		Slots:     make([]bool, stamp.GoalCount),
	}

	var prog models.RepeatVisitProgress
	err = s.DB.Where("user_id = ? AND mission_id = ?", userID, missionID).First(&prog).Error
	if err == nil {
		view.CurrentCount = prog.CurrentStampCount
		view.CompletedRounds = prog.CompletedRounds
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for i := 0; i < view.CurrentCount && i < len(view.Slots); i++ {
		view.Slots[i] = true
	}
	return view, nil
}

// PendingGrantCount is used by the grant audit job for drain monitoring.
func (s *ActivityService) PendingGrantCount(olderThan time.Duration) (int64, error) {
	var count int64
	cutoff := time.Now().Add(-olderThan)
	err := s.DB.Model(&models.CoinGrant{}).
		Where("status = ? AND created_at < ?", models.GrantStatusPending, cutoff).
		Count(&count).Error
	return count, err
}
