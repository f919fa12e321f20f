package usecase

import (
	"context"
	"fmt"
	"time"

	"cafedash/internal/domain"
)

type OrderLister interface {
	ListSince(ctx context.Context, sinceMillis int64) ([]domain.Order, error)
}

// ListOrdersUseCase returns the orders inside the recency window.
type ListOrdersUseCase struct {
	lister OrderLister
	window time.Duration
	now    func() time.Time
}

func NewListOrdersUseCase(lister OrderLister, window time.Duration) *ListOrdersUseCase {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ListOrdersUseCase{lister: lister, window: window, now: time.Now}
}

func (uc *ListOrdersUseCase) ListRecent(ctx context.Context) ([]domain.Order, error) {
	since := uc.now().Add(-uc.window).UnixMilli()

	orders, err := uc.lister.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	domain.SortNewestFirst(orders)
	return orders, nil
}
