package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cafedash/internal/domain"
	"cafedash/internal/metrics"
)

// Notifier delivers a status change to one downstream system.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, change domain.StatusChange) error
}

type NotificationService struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewNotificationService(logger *zap.Logger, notifiers ...Notifier) *NotificationService {
	return &NotificationService{
		notifiers: notifiers,
		logger:    logger,
	}
}

// Dispatch sends change to every notifier in parallel. Each failure is
// logged and counted; the joined error is returned for the caller to log.
func (s *NotificationService) Dispatch(ctx context.Context, change domain.StatusChange) error {
	if len(s.notifiers) == 0 {
		return nil
	}

	errs := make([]error, len(s.notifiers))
	var wg sync.WaitGroup
	for i, n := range s.notifiers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := n.Notify(ctx, change); err != nil {
				metrics.NotificationFailuresTotal.WithLabelValues(n.Name()).Inc()
				s.logger.Warn("status notification failed",
					zap.String("notifier", n.Name()),
					zap.String("orderId", change.OrderID),
					zap.Error(err),
				)
				errs[i] = fmt.Errorf("%s: %w", n.Name(), err)
				return
			}
			s.logger.Debug("status notification sent", zap.String("notifier", n.Name()), zap.String("orderId", change.OrderID))
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
