package workers

import (
	"context"
	"time"

	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/services"
)

// SubscriptionWorker по таймеру активирует запланированные тарифы, чей
// срок наступил. Дублирует ленивую активацию на пути запросов — для
// пользователей, которые долго не заходят.
type SubscriptionWorker struct {
	subscriptions services.SubscriptionService
	interval      time.Duration
}

func NewSubscriptionWorker(subscriptions services.SubscriptionService, interval time.Duration) *SubscriptionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionWorker{
		subscriptions: subscriptions,
		interval:      interval,
	}
}

// Start запускает фоновую активацию тарифов.
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.activateDueTariffs(ctx)
}

func (w *SubscriptionWorker) activateDueTariffs(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("subscription", "stop", nil)
			return
		case <-ticker.C:
			count, err := w.subscriptions.ActivateDueTariffs()
			if err != nil {
				logger.WorkerLog("subscription", "activate_due_tariffs", err)
				continue
			}
			if count > 0 {
				logger.Info("activated scheduled tariffs", "worker", "subscription", "count", count)
			}
		}
	}
}
