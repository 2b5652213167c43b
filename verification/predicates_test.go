package verification

import (
	"testing"
	"time"

	"drop-mission-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
func strp(v string) *string  { return &v }

func quietMission(start, end float64) *models.Mission {
	return &models.Mission{
		ID:                 "m-quiet",
		Type:               models.MissionTypeQuietTimeVisit,
		QuietTimeStartHour: f64(start),
		QuietTimeEndHour:   f64(end),
	}
}

func atHour(h, m, sec int) time.Time {
	return time.Date(2026, 1, 15, h, m, sec, 0, time.UTC)
}

var here = models.Coordinate{Latitude: 37.5464, Longitude: 127.0659}

func TestQuietTimeNormalWindow(t *testing.T) {
	mission := quietMission(14, 16)

	res, err := Check(mission, Evidence{Now: atHour(15, 0, 0)}, time.UTC)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)

	// end is exclusive
	res, err = Check(mission, Evidence{Now: atHour(16, 0, 0)}, time.UTC)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	assert.NotEmpty(t, res.Reason)

	res, err = Check(mission, Evidence{Now: atHour(13, 59, 59)}, time.UTC)
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
}

func TestQuietTimeWrappedWindow(t *testing.T) {
	// 22:00 → 02:00 wraps past midnight
	mission := quietMission(22, 2)

	res, err := Check(mission, Evidence{Now: atHour(23, 0, 0)}, time.UTC)
	require.NoError(t, err)
	assert.True(t, res.Satisfied, "23:00 is inside the wrapped window")

	res, err = Check(mission, Evidence{Now: atHour(10, 0, 0)}, time.UTC)
	require.NoError(t, err)
	assert.False(t, res.Satisfied, "10:00 is outside the wrapped window")

	res, err = Check(mission, Evidence{Now: atHour(1, 30, 0)}, time.UTC)
	require.NoError(t, err)
	assert.True(t, res.Satisfied, "01:30 is inside the wrapped window")
}

func TestQuietTimeUsesLocalHour(t *testing.T) {
	mission := quietMission(14, 16)
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 06:00 UTC is 15:00 in Seoul
	res, err := Check(mission, Evidence{Now: atHour(6, 0, 0)}, seoul)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
}

func TestStayDurationBoundary(t *testing.T) {
	mission := &models.Mission{
		ID:                 "m-stay",
		Type:               models.MissionTypeStayDuration,
		MinDurationMinutes: intp(20),
	}
	startedAt := atHour(10, 0, 0)

	ev := Evidence{
		StartedAt: startedAt,
		Now:       startedAt.Add(19*time.Minute + 59*time.Second),
		Start:     &here,
		End:       &here,
	}
	res, err := Check(mission, ev, time.UTC)
	require.NoError(t, err)
	assert.False(t, res.Satisfied, "19m59s is one second short")

	ev.Now = startedAt.Add(20 * time.Minute)
	res, err = Check(mission, ev, time.UTC)
	require.NoError(t, err)
	assert.True(t, res.Satisfied, "exactly 20m satisfies")
}

func TestStayDurationRequiresBothFixes(t *testing.T) {
	mission := &models.Mission{
		ID:                 "m-stay",
		Type:               models.MissionTypeStayDuration,
		MinDurationMinutes: intp(20),
	}

	_, err := Check(mission, Evidence{
		StartedAt: atHour(10, 0, 0),
		Now:       atHour(11, 0, 0),
		Start:     &here,
	}, time.UTC)
	assert.ErrorIs(t, err, ErrEvidenceMissing)
}

func TestReceiptPurchase(t *testing.T) {
	mission := &models.Mission{
		ID:               "m-receipt",
		Type:             models.MissionTypeReceiptPurchase,
		ReceiptItemName:  strp("카페라떼"),
		ReceiptItemPrice: intp(5500),
	}

	ev := Evidence{
		Now:      atHour(12, 0, 0),
		PhotoRef: "https://cdn.example.com/evidence/u1/r1.jpg",
		Receipt:  &ReceiptExtraction{ItemName: "카페라떼", ItemPrice: 5500},
	}
	res, err := Check(mission, ev, time.UTC)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)

	ev.Receipt = &ReceiptExtraction{ItemName: "카페라떼", ItemPrice: 5000}
	res, err = Check(mission, ev, time.UTC)
	require.NoError(t, err)
	assert.False(t, res.Satisfied, "price must match exactly")

	ev.Receipt = nil
	_, err = Check(mission, ev, time.UTC)
	assert.ErrorIs(t, err, ErrEvidenceMissing)
}

func TestTreasureHuntNeedsPhoto(t *testing.T) {
	mission := &models.Mission{
		ID:                    "m-treasure",
		Type:                  models.MissionTypeCameraTreasureHunt,
		TreasureGuideText:     strp("창가 옆 머그컵"),
		TreasureGuideImageURL: strp("https://picsum.photos/seed/t/640/420"),
	}

	res, err := Check(mission, Evidence{Now: atHour(12, 0, 0), PhotoRef: "ref"}, time.UTC)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)

	_, err = Check(mission, Evidence{Now: atHour(12, 0, 0)}, time.UTC)
	assert.ErrorIs(t, err, ErrEvidenceMissing)
}

func TestRepeatStampVisitAlwaysEligible(t *testing.T) {
	mission := &models.Mission{
		ID:             "m-stamp",
		Type:           models.MissionTypeRepeatVisitStamp,
		StampGoalCount: intp(5),
	}

	res, err := Check(mission, Evidence{Now: atHour(9, 0, 0)}, time.UTC)
	require.NoError(t, err)
	assert.True(t, res.Satisfied, "stamp eligibility is decided by the ledger, not the predicate")
}

func TestCorruptCatalogRowRejected(t *testing.T) {
	mission := &models.Mission{ID: "m-bad", Type: models.MissionTypeQuietTimeVisit}
	_, err := Check(mission, Evidence{Now: atHour(12, 0, 0)}, time.UTC)
	assert.Error(t, err)
}
