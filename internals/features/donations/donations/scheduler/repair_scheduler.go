package scheduler

import (
	"context"
	"log"
	"time"

	donationService "crowdfund_backend/internals/features/donations/donations/service"
)

// StartRepairScheduler replays unapplied webhook events and then re-checks
// campaign totals against the ledger, once at start and every interval.
func StartRepairScheduler(ctx context.Context, svc *donationService.DonationService, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			RunOnce(ctx, svc)

			select {
			case <-ctx.Done():
				log.Println("[REPAIR] scheduler stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

func RunOnce(ctx context.Context, svc *donationService.DonationService) {
	if n, err := svc.Events.Replay(ctx, 200); err != nil {
		log.Printf("[REPAIR ERROR] event replay: %v", err)
	} else if n > 0 {
		log.Printf("[REPAIR] %d gateway events replayed", n)
	}

	if _, err := svc.RepairAggregates(ctx); err != nil {
		log.Printf("[REPAIR ERROR] aggregate repair: %v", err)
	}
}
