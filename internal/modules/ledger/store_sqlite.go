// README: Device-local ledger store on SQLite (database/sql + go-sqlite3).
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"courier/internal/modules/order"
	"courier/internal/types"
)

const sqliteTime = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Insert(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO order_history (
            id, status,
            restaurant_name, restaurant_address, pickup_lat, pickup_lng,
            customer_name, customer_address, customer_phone, drop_lat, drop_lng,
            items, distance_km, estimated_time, earnings, currency, payment_type, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO NOTHING`,
		string(o.ID), string(o.Status),
		o.Restaurant.Name, o.Restaurant.Address, o.Restaurant.Pickup.Lat, o.Restaurant.Pickup.Lng,
		o.Customer.Name, o.Customer.Address, o.Customer.Phone, o.Customer.Drop.Lat, o.Customer.Drop.Lng,
		string(items), o.DistanceKm, o.EstimatedTime, o.Earnings.Amount, currencyOf(o.Earnings), string(o.PaymentType),
		o.CreatedAt.UTC().Format(sqliteTime),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, status,
               restaurant_name, restaurant_address, pickup_lat, pickup_lng,
               customer_name, customer_address, customer_phone, drop_lat, drop_lng,
               items, distance_km, estimated_time, earnings, currency, payment_type, created_at
        FROM order_history
        ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		var o order.Order
		var items, createdAt string
		if err := rows.Scan(
			&o.ID, &o.Status,
			&o.Restaurant.Name, &o.Restaurant.Address, &o.Restaurant.Pickup.Lat, &o.Restaurant.Pickup.Lng,
			&o.Customer.Name, &o.Customer.Address, &o.Customer.Phone, &o.Customer.Drop.Lat, &o.Customer.Drop.Lng,
			&items, &o.DistanceKm, &o.EstimatedTime, &o.Earnings.Amount, &o.Earnings.Currency, &o.PaymentType,
			&createdAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return nil, err
		}
		t, err := time.Parse(sqliteTime, createdAt)
		if err != nil {
			return nil, err
		}
		o.CreatedAt = t.Local()
		out = append(out, &o)
	}
	return out, rows.Err()
}

// Record stores a transition in the local event log.
func (s *SQLiteStore) Record(ctx context.Context, e order.Event) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO order_events (id, order_id, from_status, to_status, actor, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.OrderID), string(e.FromStatus), string(e.ToStatus), e.Actor,
		e.CreatedAt.UTC().Format(sqliteTime),
	)
	return err
}

// Events returns the transitions recorded for one order, oldest first.
func (s *SQLiteStore) Events(ctx context.Context, id types.ID) ([]order.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, order_id, from_status, to_status, actor, created_at
        FROM order_events WHERE order_id = ? ORDER BY created_at, rowid`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []order.Event
	for rows.Next() {
		var e order.Event
		var createdAt string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.FromStatus, &e.ToStatus, &e.Actor, &createdAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(sqliteTime, createdAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func currencyOf(m types.Money) string {
	if m.Currency == "" {
		return types.DefaultCurrency
	}
	return m.Currency
}
