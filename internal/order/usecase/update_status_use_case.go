package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cafedash/internal/domain"
	apperrors "cafedash/internal/errors"
	"cafedash/internal/metrics"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}

type StatusNotifier interface {
	Dispatch(ctx context.Context, change domain.StatusChange) error
}

type UpdateStatusUseCase struct {
	orderRepo     OrderRepository
	notifier      StatusNotifier
	logger        *zap.Logger
	notifyTimeout time.Duration
	now           func() time.Time

	pending sync.WaitGroup
}

func NewUpdateStatusUseCase(
	orderRepo OrderRepository,
	notifier StatusNotifier,
	logger *zap.Logger,
	notifyTimeout time.Duration,
) *UpdateStatusUseCase {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &UpdateStatusUseCase{
		orderRepo:     orderRepo,
		notifier:      notifier,
		logger:        logger,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

// UpdateStatus writes status for orderID and then notifies downstream
// systems in the background. The result reflects the store write only.
func (uc *UpdateStatusUseCase) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	if err := validateUpdate(orderID, status); err != nil {
		metrics.StatusUpdatesTotal.WithLabelValues("invalid").Inc()
		return err
	}

	uc.logger.Info("status update started", zap.String("orderId", orderID), zap.String("status", string(status)))

	order, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			metrics.StatusUpdatesTotal.WithLabelValues("not_found").Inc()
			return apperrors.NewNotFoundError("order not found")
		}
		metrics.StatusUpdatesTotal.WithLabelValues("error").Inc()
		return storeFailure("reading order", err)
	}

	previous := order.DisplayStatus()
	if err := uc.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			metrics.StatusUpdatesTotal.WithLabelValues("not_found").Inc()
			return apperrors.NewNotFoundError("order not found")
		}
		metrics.StatusUpdatesTotal.WithLabelValues("error").Inc()
		return storeFailure("writing status", err)
	}

	metrics.StatusUpdatesTotal.WithLabelValues("ok").Inc()
	uc.logger.Info("status updated",
		zap.String("orderId", orderID),
		zap.String("previousStatus", string(previous)),
		zap.String("status", string(status)),
	)

	uc.notify(ctx, domain.StatusChange{
		OrderID:        orderID,
		NewStatus:      status,
		PreviousStatus: previous,
		CustomerName:   order.CustomerName,
		Phone:          order.CustomerNumber,
		Timestamp:      uc.now().UnixMilli(),
	})
	return nil
}

// Wait blocks until background notifications have finished.
func (uc *UpdateStatusUseCase) Wait() {
	uc.pending.Wait()
}

func (uc *UpdateStatusUseCase) notify(ctx context.Context, change domain.StatusChange) {
	if uc.notifier == nil {
		return
	}

	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.notifyTimeout)
		defer cancel()

		if err := uc.notifier.Dispatch(ctx, change); err != nil {
			uc.logger.Warn("downstream notification incomplete", zap.String("orderId", change.OrderID), zap.Error(err))
		}
	}()
}

func validateUpdate(orderID string, status domain.Status) error {
	var details []apperrors.ValidationDetail

	if orderID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId is required",
		})
	} else if !domain.ValidOrderID(orderID) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId contains characters that are not allowed",
		})
	}

	if status == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "status",
			Message: "status is required",
		})
	} else if _, ok := domain.ParseStatus(string(status)); !ok {
		details = append(details, apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of %v", domain.Statuses),
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("Missing or invalid orderId or status", details...)
	}
	return nil
}

// storeFailure keeps store and transport errors as they are and marks
// anything else as internal.
func storeFailure(op string, err error) error {
	if _, ok := apperrors.IsStoreError(err); ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := apperrors.IsTransportError(err); ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return apperrors.NewInternalError(op, err)
}
