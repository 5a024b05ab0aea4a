package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"kidsbook_backend/internal/logger"
	"kidsbook_backend/internal/repositories"
)

// SubscriptionWorker следит за жизненным циклом подписок в фоне.
// Основной сценарий: ACTIVE подписка с истекшим периодом, по которой
// так и не пришло продление от биллинга, помечается PAST_DUE и
// перестает проходить проверку допуска к бронированию.
type SubscriptionWorker struct {
	db               *gorm.DB
	subscriptionRepo repositories.SubscriptionRepository
	interval         time.Duration
}

func NewSubscriptionWorker(db *gorm.DB, subscriptionRepo repositories.SubscriptionRepository) *SubscriptionWorker {
	return &SubscriptionWorker{
		db:               db,
		subscriptionRepo: subscriptionRepo,
		interval:         1 * time.Hour,
	}
}

// Start запускает фоновые задачи для подписок
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.lapseExpiredSubscriptions(ctx)
}

func (w *SubscriptionWorker) lapseExpiredSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			lapsed, err := w.subscriptionRepo.MarkLapsed(w.db, time.Now().UTC())
			if err != nil {
				logger.WorkerLog("subscription", "lapse_expired", err)
				continue
			}
			if lapsed > 0 {
				logger.Info("Marked expired subscriptions as past due", "count", lapsed)
			}
		}
	}
}
