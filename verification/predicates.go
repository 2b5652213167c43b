// verification/predicates.go
package verification

import (
	"errors"
	"fmt"
	"time"

	"drop-mission-service/models"
)

// ErrEvidenceMissing means a predicate could not run because required evidence
// was not supplied (no GPS fix, no photo, no receipt extraction). Distinct from
// a NotSatisfied result, where the predicate ran and the evidence failed the rule.
var ErrEvidenceMissing = errors.New("required evidence not supplied")

// ReceiptExtraction is the structured result of the external receipt-reading
// step. This engine only compares it to the mission's target, it never parses
// the photo itself.
type ReceiptExtraction struct {
	ItemName  string `json:"item_name"`
	ItemPrice int    `json:"item_price"`
}

// Evidence is the bundle of observed facts submitted to validate one mission
// attempt. Start and StartedAt are filled by the ledger from the entry; the
// rest comes from the completion request.
type Evidence struct {
	Now       time.Time
	StartedAt time.Time
	Start     *models.Coordinate
	End       *models.Coordinate
	PhotoRef  string
	Receipt   *ReceiptExtraction
}

// Result of a predicate run. A false Satisfied is a normal negative outcome:
// the ledger entry stays open and the user may resubmit fresh evidence.
type Result struct {
	Satisfied bool   `json:"satisfied"`
	Reason    string `json:"reason,omitempty"`
}

func satisfied() Result            { return Result{Satisfied: true} }
func notSatisfied(r string) Result { return Result{Reason: r} }

// Check dispatches to the predicate for the mission's type. Predicates are pure
// functions of the mission parameters and the evidence bundle, with no hidden
// clock or network access. loc is the timezone used to read wall-clock hours.
func Check(mission *models.Mission, ev Evidence, loc *time.Location) (Result, error) {
	params, err := mission.Params()
	if err != nil {
		return Result{}, err
	}

	switch p := params.(type) {
	case models.QuietTimeParams:
		return checkQuietTime(p, ev, loc)
	case models.StayDurationParams:
		return checkStayDuration(p, ev)
	case models.ReceiptParams:
		return checkReceipt(p, ev)
	case models.TreasureHuntParams:
		return checkTreasureHunt(ev)
	case models.RepeatStampParams:
		// Every qualifying visit is stamp-eligible. Whether this visit crosses
		// the goal and pays out is the ledger's call, not the predicate's.
		return satisfied(), nil
	default:
		return Result{}, fmt.Errorf("mission %s: no predicate for type %q", mission.ID, mission.Type)
	}
}

// checkQuietTime verifies the visit falls inside the board's quiet window.
// Window [start, end) in local fractional hours; end ≤ start means the window
// wraps past midnight. Proximity to the board is a caller precondition.
func checkQuietTime(p models.QuietTimeParams, ev Evidence, loc *time.Location) (Result, error) {
	if ev.Now.IsZero() {
		return Result{}, ErrEvidenceMissing
	}

	t := ev.Now.In(loc)
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600

	inWindow := false
	if p.EndHour > p.StartHour {
		inWindow = hour >= p.StartHour && hour < p.EndHour
	} else {
		// wraps past midnight, e.g. 22:00 → 02:00
		inWindow = hour >= p.StartHour || hour < p.EndHour
	}

	if !inWindow {
		return notSatisfied(fmt.Sprintf("visit at %.2fh is outside quiet window %.2f–%.2f", hour, p.StartHour, p.EndHour)), nil
	}
	return satisfied(), nil
}

// checkStayDuration needs both fixes and both timestamps: the start pair is
// recorded at attempt start, the end pair at submission.
func checkStayDuration(p models.StayDurationParams, ev Evidence) (Result, error) {
	if ev.Start == nil || ev.End == nil || ev.StartedAt.IsZero() || ev.Now.IsZero() {
		return Result{}, ErrEvidenceMissing
	}

	stayed := ev.Now.Sub(ev.StartedAt)
	if stayed < p.MinDuration {
		return notSatisfied(fmt.Sprintf("stayed %s, need at least %s", stayed.Round(time.Second), p.MinDuration)), nil
	}
	return satisfied(), nil
}

// checkReceipt compares the externally extracted item name/price against the
// mission's target. Exact match on both.
func checkReceipt(p models.ReceiptParams, ev Evidence) (Result, error) {
	if ev.PhotoRef == "" || ev.Receipt == nil {
		return Result{}, ErrEvidenceMissing
	}

	if ev.Receipt.ItemName != p.ItemName || ev.Receipt.ItemPrice != p.ItemPrice {
		return notSatisfied(fmt.Sprintf("receipt item %q (%d) does not match target %q (%d)",
			ev.Receipt.ItemName, ev.Receipt.ItemPrice, p.ItemName, p.ItemPrice)), nil
	}
	return satisfied(), nil
}

// checkTreasureHunt only enforces that a photo was submitted in response to the
// guide; visual similarity judgment is out of scope.
func checkTreasureHunt(ev Evidence) (Result, error) {
	if ev.PhotoRef == "" {
		return Result{}, ErrEvidenceMissing
	}
	return satisfied(), nil
}
