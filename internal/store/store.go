// Package store is the durable, append-only order ledger backed by
// Postgres. Orders are written atomically: the header and all of its line
// items become visible together or not at all.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/annapurna-pos/backend-billing/internal/billing"
	"github.com/annapurna-pos/backend-billing/internal/menu"
	"github.com/annapurna-pos/backend-billing/internal/money"
	"github.com/annapurna-pos/backend-billing/internal/report"
)

var (
	// ErrNotFound is returned when an order id is not in the ledger.
	ErrNotFound = errors.New("store: order not found")
	// ErrPersistence wraps storage failures. A failed write leaves the
	// ledger exactly as it was.
	ErrPersistence = errors.New("store: persistence failure")
)

// Order is a finalized, immutable ledger entry.
type Order struct {
	ID            int64          `json:"id"`
	Mode          billing.Mode   `json:"mode"`
	PaymentMethod string         `json:"paymentMethod"`
	Totals        billing.Totals `json:"totals"`
	CreatedAt     time.Time      `json:"createdAt"`
	Lines         []billing.Line `json:"lines,omitempty"`
}

// Store provides ledger access over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// CreateOrder appends an order and its lines in a single transaction and
// returns the assigned id. Ids are monotonically increasing; created_at is
// recorded at second precision.
func (s *Store) CreateOrder(ctx context.Context, mode billing.Mode, paymentMethod string, lines []billing.Line, totals billing.Totals) (int64, error) {
	if len(lines) == 0 {
		return 0, billing.ErrEmptyCart
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, persistence("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	createdAt := time.Now().UTC().Truncate(time.Second)
	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (mode, payment_method, subtotal_cents, gst_cents, discount_cents, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, string(mode), paymentMethod, int64(totals.Subtotal), int64(totals.GST), int64(totals.Discount), int64(totals.Total), createdAt).Scan(&orderID)
	if err != nil {
		return 0, persistence("insert order", err)
	}
	for i, ln := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, item_name, qty, unit_price_cents, line_total_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, i, ln.ItemName, ln.Qty, int64(ln.UnitPrice), int64(ln.LineTotal))
		if err != nil {
			return 0, persistence("insert order item", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, persistence("commit order", err)
	}
	return orderID, nil
}

// GetOrder reads one order with its lines in entry order.
func (s *Store) GetOrder(ctx context.Context, id int64) (Order, error) {
	var (
		ord  Order
		mode string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, mode, payment_method, subtotal_cents, gst_cents, discount_cents, total_cents, created_at
		FROM orders WHERE id = $1
	`, id).Scan(&ord.ID, &mode, &ord.PaymentMethod, &ord.Totals.Subtotal, &ord.Totals.GST, &ord.Totals.Discount, &ord.Totals.Total, &ord.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, persistence("select order", err)
	}
	ord.Mode = billing.Mode(mode)

	rows, err := s.pool.Query(ctx, `
		SELECT item_name, qty, unit_price_cents, line_total_cents
		FROM order_items WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return Order{}, persistence("select order items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ln billing.Line
		if err := rows.Scan(&ln.ItemName, &ln.Qty, &ln.UnitPrice, &ln.LineTotal); err != nil {
			return Order{}, persistence("scan order item", err)
		}
		ord.Lines = append(ord.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return Order{}, persistence("read order items", err)
	}
	return ord, nil
}

// ListOrders returns order headers newest-first plus the total ledger count.
func (s *Store) ListOrders(ctx context.Context, limit, offset int32) ([]Order, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, persistence("count orders", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, mode, payment_method, subtotal_cents, gst_cents, discount_cents, total_cents, created_at
		FROM orders
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, persistence("select orders", err)
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		var (
			ord  Order
			mode string
		)
		if err := rows.Scan(&ord.ID, &mode, &ord.PaymentMethod, &ord.Totals.Subtotal, &ord.Totals.GST, &ord.Totals.Discount, &ord.Totals.Total, &ord.CreatedAt); err != nil {
			return nil, 0, persistence("scan order", err)
		}
		ord.Mode = billing.Mode(mode)
		orders = append(orders, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistence("read orders", err)
	}
	return orders, total, nil
}

// BootstrapMenu seeds the menu relation when it is empty. Repeated calls
// after the first are no-ops; the returned count is the number of rows
// written.
func (s *Store) BootstrapMenu(ctx context.Context, items []menu.Item) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, persistence("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var existing int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM menu`).Scan(&existing); err != nil {
		return 0, persistence("count menu", err)
	}
	if existing > 0 {
		return 0, nil
	}
	written := 0
	for _, it := range items {
		tag, err := tx.Exec(ctx, `
			INSERT INTO menu (name, category, price_cents)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, it.Name, it.Category, int64(it.UnitPrice))
		if err != nil {
			return 0, persistence("insert menu item", err)
		}
		written += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, persistence("commit menu bootstrap", err)
	}
	return written, nil
}

// ListMenu returns the persisted catalog sorted by name.
func (s *Store) ListMenu(ctx context.Context) ([]menu.Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, category, price_cents FROM menu ORDER BY name`)
	if err != nil {
		return nil, persistence("select menu", err)
	}
	defer rows.Close()

	var items []menu.Item
	for rows.Next() {
		var (
			it    menu.Item
			price int64
		)
		if err := rows.Scan(&it.Name, &it.Category, &price); err != nil {
			return nil, persistence("scan menu item", err)
		}
		it.UnitPrice = money.Cents(price)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("read menu", err)
	}
	return items, nil
}

// ListOrderTotals feeds the sales reporter with (created_at, total) pairs.
func (s *Store) ListOrderTotals(ctx context.Context) ([]report.OrderTotal, error) {
	rows, err := s.pool.Query(ctx, `SELECT created_at, total_cents FROM orders ORDER BY created_at`)
	if err != nil {
		return nil, persistence("select order totals", err)
	}
	defer rows.Close()

	var totals []report.OrderTotal
	for rows.Next() {
		var ot report.OrderTotal
		if err := rows.Scan(&ot.CreatedAt, &ot.Total); err != nil {
			return nil, persistence("scan order total", err)
		}
		totals = append(totals, ot)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("read order totals", err)
	}
	return totals, nil
}
