// README: Ledger store backed by PostgreSQL, scoped per partner.
package ledger

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"courier/internal/modules/order"
	"courier/internal/types"
)

type PostgresStore struct {
	db        *pgxpool.Pool
	partnerID types.ID
}

func NewPostgresStore(db *pgxpool.Pool, partnerID types.ID) *PostgresStore {
	return &PostgresStore{db: db, partnerID: partnerID}
}

func (s *PostgresStore) Insert(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
        INSERT INTO order_history (
            id, partner_id, status,
            restaurant_name, restaurant_address, pickup_lat, pickup_lng,
            customer_name, customer_address, customer_phone, drop_lat, drop_lng,
            items, distance_km, estimated_time, earnings, currency, payment_type, created_at
        ) VALUES (
            $1, $2, $3,
            $4, $5, $6, $7,
            $8, $9, $10, $11, $12,
            $13, $14, $15, $16, $17, $18, $19
        )
        ON CONFLICT (id) DO NOTHING`,
		string(o.ID), string(s.partnerID), string(o.Status),
		o.Restaurant.Name, o.Restaurant.Address, o.Restaurant.Pickup.Lat, o.Restaurant.Pickup.Lng,
		o.Customer.Name, o.Customer.Address, o.Customer.Phone, o.Customer.Drop.Lat, o.Customer.Drop.Lng,
		items, o.DistanceKm, o.EstimatedTime, o.Earnings.Amount, currencyOf(o.Earnings), string(o.PaymentType),
		o.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*order.Order, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, status,
               restaurant_name, restaurant_address, pickup_lat, pickup_lng,
               customer_name, customer_address, customer_phone, drop_lat, drop_lng,
               items, distance_km, estimated_time, earnings, currency, payment_type, created_at
        FROM order_history
        WHERE partner_id = $1
        ORDER BY created_at DESC`, string(s.partnerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		var o order.Order
		var items []byte
		if err := rows.Scan(
			&o.ID, &o.Status,
			&o.Restaurant.Name, &o.Restaurant.Address, &o.Restaurant.Pickup.Lat, &o.Restaurant.Pickup.Lng,
			&o.Customer.Name, &o.Customer.Address, &o.Customer.Phone, &o.Customer.Drop.Lat, &o.Customer.Drop.Lng,
			&items, &o.DistanceKm, &o.EstimatedTime, &o.Earnings.Amount, &o.Earnings.Currency, &o.PaymentType,
			&o.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Record(ctx context.Context, e order.Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO order_state_events (
            id, partner_id, order_id, from_status, to_status, actor_type, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID,
		string(s.partnerID),
		string(e.OrderID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.Actor,
		e.CreatedAt,
	)
	return err
}
