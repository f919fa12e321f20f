package feed

import (
	"context"
	"fmt"
	"time"

	"cafedash/internal/domain"
	apperrors "cafedash/internal/errors"
)

// Relay persists a status change for one order.
type Relay interface {
	UpdateStatus(ctx context.Context, orderID string, status domain.Status) error
}

type Updater struct {
	relay   Relay
	timeout time.Duration
}

func NewUpdater(relay Relay, timeout time.Duration) *Updater {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Updater{relay: relay, timeout: timeout}
}

// Validate checks an edit against the local snapshot before anything is
// sent to the relay.
func Validate(orders []domain.Order, orderID, status string) (domain.Status, error) {
	var details []apperrors.ValidationDetail

	if orderID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "orderId", Message: "orderId is required"})
	} else if !containsOrder(orders, orderID) {
		details = append(details, apperrors.ValidationDetail{Field: "orderId", Message: "order is not in the current list"})
	}

	st, ok := domain.ParseStatus(status)
	if !ok {
		details = append(details, apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of %v", domain.Statuses),
		})
	}

	if len(details) > 0 {
		return "", apperrors.NewValidationError("invalid status update", details...)
	}
	return st, nil
}

// Send issues the relay call. The call is bounded by the updater timeout
// but is not tied to the caller's cancellation: once issued it runs to
// completion and the caller decides whether the result still matters.
func (u *Updater) Send(ctx context.Context, orderID string, status domain.Status) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
	defer cancel()

	if err := u.relay.UpdateStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("updating order %s: %w", orderID, err)
	}
	return nil
}

func containsOrder(orders []domain.Order, orderID string) bool {
	for _, o := range orders {
		if o.ID == orderID {
			return true
		}
	}
	return false
}
