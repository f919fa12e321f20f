package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"cafedash/internal/domain"
	"cafedash/internal/errors"
)

type MySQLOrderRepository struct {
	db           *sql.DB
	pollInterval time.Duration
}

func NewMySQLOrderRepository(db *sql.DB, pollInterval time.Duration) *MySQLOrderRepository {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &MySQLOrderRepository{db: db, pollInterval: pollInterval}
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, customerName, customerNumber, orderDetails, status, timestamp
		FROM Orders
		WHERE id = ?
	`

	var order domain.Order
	var status sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.CustomerName, &order.CustomerNumber, &order.OrderDetails,
		&status, &order.Timestamp,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, errors.NewStoreError("querying order by id", err)
	}

	order.Status = domain.Status(status.String)
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	return &order, nil
}

func (r *MySQLOrderRepository) ListSince(ctx context.Context, sinceMillis int64) ([]domain.Order, error) {
	query := `
		SELECT id, customerName, customerNumber, orderDetails, status, timestamp
		FROM Orders
		WHERE timestamp >= ?
		ORDER BY timestamp DESC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sinceMillis)
	if err != nil {
		return nil, errors.NewStoreError("listing orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		var status sql.NullString
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.CustomerNumber, &o.OrderDetails, &status, &o.Timestamp); err != nil {
			return nil, errors.NewStoreError("scanning order", err)
		}
		o.Status = domain.Status(status.String)
		if o.Status == "" {
			o.Status = domain.StatusPending
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("iterating orders", err)
	}

	return orders, nil
}

// UpdateStatus relies on clientFoundRows in the DSN so that rewriting the
// same status still counts as a matched row.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	query := `UPDATE Orders SET status = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return errors.NewStoreError("updating order status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}

	return nil
}

// Watch polls the window and pushes a snapshot whenever its content
// changes. The first poll always pushes. A query failure ends the watch.
func (r *MySQLOrderRepository) Watch(ctx context.Context, sinceMillis int64, push func(domain.Snapshot)) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var last []domain.Order
	first := true
	for {
		orders, err := r.ListSince(ctx, sinceMillis)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if first || !slices.Equal(last, orders) {
			snap := make(domain.Snapshot, len(orders))
			for _, o := range orders {
				snap[o.ID] = o
			}
			push(snap)
			last = orders
			first = false
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
