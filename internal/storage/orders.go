// Package storage persists accepted orders.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/aquabot/internal/config"
	"github.com/m3rciful/aquabot/internal/logger"
	"github.com/m3rciful/aquabot/internal/models"
)

// Orders is the sqlx-backed order repository.
type Orders struct {
	db *sqlx.DB
}

// NewOrders wraps a connected database handle.
func NewOrders(db *sqlx.DB) *Orders {
	return &Orders{db: db}
}

// Create inserts a single order and returns its assigned identity.
// No retries: a failed insert is reported to the flow as-is.
func (r *Orders) Create(ctx context.Context, order models.Order) (int64, error) {
	start := time.Now()

	var (
		id  int64
		err error
	)
	// lib/pq does not support LastInsertId, so postgres takes the
	// RETURNING path while sqlite3 uses the plain exec result.
	if r.db.DriverName() == config.DriverPostgres {
		err = r.db.QueryRowContext(ctx, `
			INSERT INTO orders (delivery_date, client_name, client_address, phone, bottles)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			order.DeliveryDate, order.ClientName, order.ClientAddress, order.Phone, order.Bottles,
		).Scan(&id)
	} else {
		var res sql.Result
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO orders (delivery_date, client_name, client_address, phone, bottles)
			VALUES (?, ?, ?, ?, ?)`,
			order.DeliveryDate, order.ClientName, order.ClientAddress, order.Phone, order.Bottles,
		)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}

	took := time.Since(start)
	if err != nil {
		logger.DB.Error("order insert failed",
			slog.String("event", "orders.create"),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("insert order: %w", err)
	}

	logger.DB.Info("order stored",
		slog.String("event", "orders.create"),
		slog.Int64("order_id", id),
		slog.String("delivery_date", order.DeliveryDate),
		slog.Int("bottles", order.Bottles),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return id, nil
}

// ListRecent returns the newest orders, most recent first.
func (r *Orders) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	query := r.db.Rebind(`
		SELECT id, delivery_date, client_name, client_address, phone, bottles, created_at
		FROM orders
		ORDER BY id DESC
		LIMIT ?`)

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, limit); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
