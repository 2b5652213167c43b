// services/activity_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"drop-mission-service/models"
	"drop-mission-service/verification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateActiveAttempt: a started entry already exists for (user, mission)
	ErrDuplicateActiveAttempt = errors.New("mission attempt already in progress")
	// ErrEntryNotFound: entry missing or already completed
	ErrEntryNotFound   = errors.New("activity entry not found or already completed")
	ErrMissionNotFound = errors.New("mission not found")
)

// ActivityService owns every stateful transition of the mission ledger and the
// stamp progress store. It holds no in-process mutable state; everything lives
// behind the injected *gorm.DB.
type ActivityService struct {
	DB *gorm.DB
	// Loc is the timezone for quiet-window hours and stamp day-bucketing.
	Loc *time.Location
}

func NewActivityService(db *gorm.DB, loc *time.Location) *ActivityService {
	if loc == nil {
		loc = time.Local
	}
	return &ActivityService{DB: db, Loc: loc}
}

// StartMission opens a new ledger entry in started status. At most one started
// entry may exist per (user, mission); a duplicate start is rejected, not reused.
func (s *ActivityService) StartMission(userID, missionID string, coord models.Coordinate, now time.Time) (*models.ParticipatedActivity, error) {
	var mission models.Mission
	if err := s.DB.First(&mission, "id = ?", missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}

	var board models.Board
	if err := s.DB.First(&board, "id = ?", mission.BoardID).Error; err != nil {
		return nil, fmt.Errorf("board %s for mission %s: %w", mission.BoardID, missionID, err)
	}

	entry := &models.ParticipatedActivity{
		ID:             uuid.NewString(),
		UserID:         userID,
		BoardID:        board.ID,
		BoardTitle:     board.Title,
		MissionID:      mission.ID,
		MissionType:    mission.Type,
		MissionTitle:   mission.Title,
		RewardCoins:    mission.RewardCoins,
		Status:         models.ActivityStatusStarted,
		StartedAt:      now,
		StartLatitude:  coord.Latitude,
		StartLongitude: coord.Longitude,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.ParticipatedActivity{}).
			Where("user_id = ? AND mission_id = ? AND status = ?", userID, missionID, models.ActivityStatusStarted).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrDuplicateActiveAttempt
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📍 Mission started: user=%s mission=%s (%s) entry=%s", userID, mission.ID, mission.Type, entry.ID)
	return entry, nil
}

// CompletionOutcome reports what one completion attempt did.
type CompletionOutcome struct {
	Entry     *models.ParticipatedActivity `json:"entry"`
	Satisfied bool                         `json:"satisfied"`
	Reason    string                       `json:"reason,omitempty"`
	// CoinsGranted is what this call actually queued for the wallet — zero for
	// a failed check and for stamp visits that don't close the card.
	CoinsGranted  int                         `json:"coins_granted"`
	StampProgress *models.RepeatVisitProgress `json:"stamp_progress,omitempty"`
}

// CompleteMission runs the mission's predicate over the evidence and, on
// success, commits the started → completed transition together with any reward
// in a single transaction.
//
// A NotSatisfied check is a normal negative result: the entry stays started and
// the user may resubmit. Two racing completions cannot both succeed: the
// transition is a guarded UPDATE on status, so the loser observes
// ErrEntryNotFound and no second reward is ever recorded.
func (s *ActivityService) CompleteMission(entryID string, ev verification.Evidence) (*CompletionOutcome, error) {
	var outcome *CompletionOutcome

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.ParticipatedActivity
		if err := tx.First(&entry, "id = ?", entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if entry.Status == models.ActivityStatusCompleted {
			return ErrEntryNotFound
		}

		var mission models.Mission
		if err := tx.First(&mission, "id = ?", entry.MissionID).Error; err != nil {
			return fmt.Errorf("catalog lookup for mission %s: %w", entry.MissionID, err)
		}

		// The ledger owns the attempt-start facts; callers can't spoof them.
		start := entry.StartCoordinate()
		ev.StartedAt = entry.StartedAt
		ev.Start = &start

		res, err := verification.Check(&mission, ev, s.Loc)
		if err != nil {
			return err
		}

		if !res.Satisfied {
			outcome = &CompletionOutcome{Entry: &entry, Satisfied: false, Reason: res.Reason}
			return nil
		}

		// Guarded transition: only one completer can flip started → completed.
		updates := map[string]interface{}{
			"status":       models.ActivityStatusCompleted,
			"completed_at": ev.Now,
		}
		if ev.End != nil {
			updates["end_latitude"] = ev.End.Latitude
			updates["end_longitude"] = ev.End.Longitude
		}
		result := tx.Model(&models.ParticipatedActivity{}).
			Where("id = ? AND status = ?", entry.ID, models.ActivityStatusStarted).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEntryNotFound
		}

		entry.Status = models.ActivityStatusCompleted
		completedAt := ev.Now
		entry.CompletedAt = &completedAt
		if ev.End != nil {
			entry.EndLatitude = &ev.End.Latitude
			entry.EndLongitude = &ev.End.Longitude
		}

		if mission.Type == models.MissionTypeRepeatVisitStamp {
			return s.applyStamp(tx, &mission, &entry, ev.Now, &outcome)
		}

		if err := s.queueGrant(tx, &entry, mission.RewardCoins, fmt.Sprintf("mission_completed:%s", mission.ID)); err != nil {
			return err
		}
		outcome = &CompletionOutcome{Entry: &entry, Satisfied: true, CoinsGranted: mission.RewardCoins}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Satisfied {
		log.Printf("✅ Mission completed: entry=%s user=%s coins=%d", outcome.Entry.ID, outcome.Entry.UserID, outcome.CoinsGranted)
	} else {
		log.Printf("↩️ Evidence rejected (retryable): entry=%s reason=%s", outcome.Entry.ID, outcome.Reason)
	}
	return outcome, nil
}

// applyStamp updates the day-bucketed stamp card for a completed repeat-visit
// entry. One stamp per calendar day; the visit that reaches the goal resets the
// count, bumps the round counter and queues the reward, all inside the caller's
// transaction.
func (s *ActivityService) applyStamp(tx *gorm.DB, mission *models.Mission, entry *models.ParticipatedActivity, now time.Time, out **CompletionOutcome) error {
	params, err := mission.Params()
	if err != nil {
		return err
	}
	goal := params.(models.RepeatStampParams).GoalCount
	today := now.In(s.Loc).Format(models.StampDateLayout)

	var prog models.RepeatVisitProgress
	err = tx.Where("user_id = ? AND mission_id = ?", entry.UserID, entry.MissionID).First(&prog).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		prog = models.RepeatVisitProgress{
			ID:        uuid.NewString(),
			UserID:    entry.UserID,
			MissionID: entry.MissionID,
		}
	case err != nil:
		return err
	}

	if prog.LastStampDate == today {
		// Second qualifying visit on the same day: the entry still completes,
		// but the card and the wallet are untouched.
		*out = &CompletionOutcome{Entry: entry, Satisfied: true, StampProgress: &prog}
		return nil
	}

	prog.LastStampDate = today
	coins := 0
	if prog.CurrentStampCount+1 >= goal {
		prog.CurrentStampCount = 0
		prog.CompletedRounds++
		coins = mission.RewardCoins
		if err := s.queueGrant(tx, entry, coins, fmt.Sprintf("stamp_goal_reached:%s:round_%d", mission.ID, prog.CompletedRounds)); err != nil {
			return err
		}
		log.Printf("🎖️ Stamp card completed: user=%s mission=%s round=%d", entry.UserID, mission.ID, prog.CompletedRounds)
	} else {
		prog.CurrentStampCount++
	}

	if err := tx.Save(&prog).Error; err != nil {
		return err
	}

	*out = &CompletionOutcome{Entry: entry, Satisfied: true, CoinsGranted: coins, StampProgress: &prog}
	return nil
}

// queueGrant records the reward owed in the same transaction as the completion.
// The unique index on activity_id makes a second grant for the same entry a
// constraint violation, never a double payout.
func (s *ActivityService) queueGrant(tx *gorm.DB, entry *models.ParticipatedActivity, amount int, reason string) error {
	grant := models.CoinGrant{
		ID:         uuid.NewString(),
		UserID:     entry.UserID,
		ActivityID: entry.ID,
		Amount:     amount,
		Reason:     reason,
		Status:     models.GrantStatusPending,
	}
	return tx.Create(&grant).Error
}
