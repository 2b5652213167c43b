// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartGrantAuditScheduler runs an hourly job that flags coin grants stuck in
// pending. The dispatch worker normally drains them within seconds; anything
// pending for over an hour means the wallet service has been unreachable and
// someone should look.
func (s *ActivityService) StartGrantAuditScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			stuck, err := s.PendingGrantCount(1 * time.Hour)
			if err != nil {
				log.Printf("[GrantAudit] DB error: %v", err)
				return
			}
			if stuck > 0 {
				log.Printf("⚠️ [GrantAudit] %d coin grant(s) pending for over an hour — wallet delivery may be down", stuck)
			}
		}),
	)
}
