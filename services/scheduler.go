// services/scheduler.go
package services

import (
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartDeadlineScheduler sweeps expired challenges once a minute. The
// sweep only triggers CompleteByDeadline; all lifecycle semantics live
// there, so a concurrent manual close is harmless.
func (s *ChallengeService) StartDeadlineScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			expired, err := s.ExpiredActiveChallenges(time.Now())
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, ch := range expired {
				if _, err := s.CompleteByDeadline(ch.ID, "deadline reached"); err != nil {
					if errors.Is(err, ErrAlreadyCompleted) {
						continue
					}
					log.Printf("[Scheduler] Failed to close challenge %s: %v", ch.ID, err)
				} else {
					log.Printf("✅ Auto-closed expired challenge: %s", ch.Title)
				}
			}
		}),
	)
}
