package services

import (
	"fmt"
	"testing"
	"time"

	"drop-mission-service/models"
	"drop-mission-service/verification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Board{},
		&models.Mission{},
		&models.BoardPost{},
		&models.PostComment{},
		&models.ParticipatedActivity{},
		&models.RepeatVisitProgress{},
		&models.CoinGrant{},
	))
	return db
}

func intp(v int) *int        { return &v }
func f64p(v float64) *float64 { return &v }

var testCoord = models.Coordinate{Latitude: 37.5464, Longitude: 127.0659}

// seedTestBoard inserts one board with a quiet-time, stay-duration and
// repeat-visit mission and returns them by type.
func seedTestBoard(t *testing.T, db *gorm.DB) (*models.Board, map[models.MissionType]*models.Mission) {
	t.Helper()

	board := &models.Board{
		ID:        uuid.NewString(),
		Slug:      "test-board-" + uuid.NewString()[:8],
		Emoji:     "☕",
		Title:     "테스트 카페",
		Latitude:  testCoord.Latitude,
		Longitude: testCoord.Longitude,
	}
	board.Missions = []models.Mission{
		{
			ID: uuid.NewString(), BoardID: board.ID,
			Type:  models.MissionTypeQuietTimeVisit,
			Title: "한산 시간대 방문 인증", RewardCoins: 12,
			QuietTimeStartHour: f64p(14), QuietTimeEndHour: f64p(16),
		},
		{
			ID: uuid.NewString(), BoardID: board.ID,
			Type:  models.MissionTypeStayDuration,
			Title: "20분 이상 체류", RewardCoins: 24,
			MinDurationMinutes: intp(20),
		},
		{
			ID: uuid.NewString(), BoardID: board.ID,
			Type:  models.MissionTypeRepeatVisitStamp,
			Title: "반복 방문 스탬프 (5회)", RewardCoins: 40,
			StampGoalCount: intp(5),
		},
	}
	require.NoError(t, db.Create(board).Error)

	byType := make(map[models.MissionType]*models.Mission)
	for i := range board.Missions {
		byType[board.Missions[i].Type] = &board.Missions[i]
	}
	return board, byType
}

func grantCount(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CoinGrant{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestStartMissionDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeStayDuration]

	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	entry, err := svc.StartMission("user-1", mission.ID, testCoord, now)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusStarted, entry.Status)
	assert.Equal(t, mission.RewardCoins, entry.RewardCoins)
	assert.Equal(t, "테스트 카페", entry.BoardTitle)

	_, err = svc.StartMission("user-1", mission.ID, testCoord, now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrDuplicateActiveAttempt)

	// a different user is unaffected
	_, err = svc.StartMission("user-2", mission.ID, testCoord, now)
	assert.NoError(t, err)
}

func TestStartMissionUnknownMission(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)

	_, err := svc.StartMission("user-1", uuid.NewString(), testCoord, time.Now())
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestCompleteStayDurationGrantsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeStayDuration]

	startedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	entry, err := svc.StartMission("user-1", mission.ID, testCoord, startedAt)
	require.NoError(t, err)

	outcome, err := svc.CompleteMission(entry.ID, verification.Evidence{
		Now: startedAt.Add(25 * time.Minute),
		End: &testCoord,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Satisfied)
	assert.Equal(t, 24, outcome.CoinsGranted)
	assert.Equal(t, models.ActivityStatusCompleted, outcome.Entry.Status)
	require.NotNil(t, outcome.Entry.CompletedAt)
	require.NotNil(t, outcome.Entry.EndLatitude)

	assert.EqualValues(t, 1, grantCount(t, db, "user-1"))

	// completing again is a no-op reported as not found, and never a second grant
	_, err = svc.CompleteMission(entry.ID, verification.Evidence{
		Now: startedAt.Add(30 * time.Minute),
		End: &testCoord,
	})
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.EqualValues(t, 1, grantCount(t, db, "user-1"))
}

func TestCompleteTooShortStayIsRetryable(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeStayDuration]

	startedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	entry, err := svc.StartMission("user-1", mission.ID, testCoord, startedAt)
	require.NoError(t, err)

	outcome, err := svc.CompleteMission(entry.ID, verification.Evidence{
		Now: startedAt.Add(19*time.Minute + 59*time.Second),
		End: &testCoord,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Satisfied)
	assert.NotEmpty(t, outcome.Reason)
	assert.EqualValues(t, 0, grantCount(t, db, "user-1"))

	// entry stayed open, a later resubmission can succeed
	outcome, err = svc.CompleteMission(entry.ID, verification.Evidence{
		Now: startedAt.Add(20 * time.Minute),
		End: &testCoord,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Satisfied)
	assert.EqualValues(t, 1, grantCount(t, db, "user-1"))
}

func TestCompleteQuietTimeOutsideWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeQuietTimeVisit]

	startedAt := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	entry, err := svc.StartMission("user-1", mission.ID, testCoord, startedAt)
	require.NoError(t, err)

	outcome, err := svc.CompleteMission(entry.ID, verification.Evidence{
		Now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		End: &testCoord,
	})
	require.NoError(t, err)
	assert.False(t, outcome.Satisfied)

	outcome, err = svc.CompleteMission(entry.ID, verification.Evidence{
		Now: time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC),
		End: &testCoord,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Satisfied)
	assert.Equal(t, 12, outcome.CoinsGranted)
}

func TestCompleteMissingEvidencePassthrough(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeStayDuration]

	entry, err := svc.StartMission("user-1", mission.ID, testCoord, time.Now())
	require.NoError(t, err)

	// no end fix supplied
	_, err = svc.CompleteMission(entry.ID, verification.Evidence{Now: time.Now()})
	assert.ErrorIs(t, err, verification.ErrEvidenceMissing)

	var reloaded models.ParticipatedActivity
	require.NoError(t, db.First(&reloaded, "id = ?", entry.ID).Error)
	assert.Equal(t, models.ActivityStatusStarted, reloaded.Status)
}

func TestCompleteUnknownEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)

	_, err := svc.CompleteMission(uuid.NewString(), verification.Evidence{Now: time.Now()})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

// stampVisit starts and completes one repeat-visit attempt at the given time.
func stampVisit(t *testing.T, svc *ActivityService, userID, missionID string, at time.Time) *CompletionOutcome {
	t.Helper()
	entry, err := svc.StartMission(userID, missionID, testCoord, at)
	require.NoError(t, err)
	outcome, err := svc.CompleteMission(entry.ID, verification.Evidence{Now: at, End: &testCoord})
	require.NoError(t, err)
	require.True(t, outcome.Satisfied)
	return outcome
}

func TestRepeatStampSequenceWithRollover(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeRepeatVisitStamp]

	day1 := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	wantCounts := []int{1, 2, 3, 4, 0}
	for i := 0; i < 5; i++ {
		outcome := stampVisit(t, svc, "user-1", mission.ID, day1.AddDate(0, 0, i))
		require.NotNil(t, outcome.StampProgress)
		assert.Equal(t, wantCounts[i], outcome.StampProgress.CurrentStampCount, "visit %d", i+1)

		if i < 4 {
			assert.Equal(t, 0, outcome.StampProgress.CompletedRounds)
			assert.Equal(t, 0, outcome.CoinsGranted, "no reward before the goal")
		} else {
			assert.Equal(t, 1, outcome.StampProgress.CompletedRounds, "fifth visit closes the card")
			assert.Equal(t, 40, outcome.CoinsGranted)
		}
	}

	// exactly one grant, issued by the rollover visit
	assert.EqualValues(t, 1, grantCount(t, db, "user-1"))
}

func TestRepeatStampSameDayIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeRepeatVisitStamp]

	morning := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	evening := morning.Add(9 * time.Hour)

	first := stampVisit(t, svc, "user-1", mission.ID, morning)
	assert.Equal(t, 1, first.StampProgress.CurrentStampCount)

	// the second visit's entry still completes, but the card doesn't move
	second := stampVisit(t, svc, "user-1", mission.ID, evening)
	assert.Equal(t, models.ActivityStatusCompleted, second.Entry.Status)
	assert.Equal(t, 1, second.StampProgress.CurrentStampCount)
	assert.Equal(t, 0, second.StampProgress.CompletedRounds)
	assert.Equal(t, 0, second.CoinsGranted)
	assert.EqualValues(t, 0, grantCount(t, db, "user-1"))
}

func TestRepeatStampSecondRound(t *testing.T) {
	db := newTestDB(t)
	svc := NewActivityService(db, time.UTC)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeRepeatVisitStamp]

	day1 := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		stampVisit(t, svc, "user-1", mission.ID, day1.AddDate(0, 0, i))
	}

	// the card reset: the next day starts round two at count 1
	outcome := stampVisit(t, svc, "user-1", mission.ID, day1.AddDate(0, 0, 5))
	assert.Equal(t, 1, outcome.StampProgress.CurrentStampCount)
	assert.Equal(t, 1, outcome.StampProgress.CompletedRounds)
	assert.EqualValues(t, 1, grantCount(t, db, "user-1"))
}

func TestStampDayBucketUsesConfiguredTimezone(t *testing.T) {
	db := newTestDB(t)
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	svc := NewActivityService(db, seoul)
	_, missions := seedTestBoard(t, db)
	mission := missions[models.MissionTypeRepeatVisitStamp]

	// 14:00 and 16:00 UTC on the same UTC day are 23:00 and 01:00 (+1d) in Seoul
	first := stampVisit(t, svc, "user-1", mission.ID, time.Date(2026, 1, 10, 14, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, first.StampProgress.CurrentStampCount)

	second := stampVisit(t, svc, "user-1", mission.ID, time.Date(2026, 1, 10, 16, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, second.StampProgress.CurrentStampCount, "crossed midnight in Seoul, new stamp day")
}
