package invalidator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"resto-pos/internal/orders"
	"resto-pos/internal/redisx"
)

// Service reacts to the invalidation signals the POS API emits after a
// committed order: it drops the cached read views and reports products that
// fell to or under their minimum stock.
type Service struct {
	DB          *pgxpool.Pool
	Redis       *redis.Client
	ServiceName string
}

// HandleOrdersChanged drops the cached sales view for the order's day.
func (s *Service) HandleOrdersChanged(ctx context.Context, m kafkago.Message) error {
	env, ok, err := s.decode(ctx, m, orders.EventOrderCompleted)
	if err != nil || !ok {
		return err
	}
	var p orders.OrderCompletedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}
	if p.Day != "" {
		key := fmt.Sprintf(redisx.KeySalesDay, p.Day)
		if err := s.Redis.Del(ctx, key).Err(); err != nil {
			return err
		}
	}
	return nil
}

// HandleInventoryChanged drops the cached product lists and logs any active
// non-combo product at or under its minimum stock, so the floor hears about
// it before the shelf is empty.
func (s *Service) HandleInventoryChanged(ctx context.Context, m kafkago.Message) error {
	_, ok, err := s.decode(ctx, m, orders.EventInventoryChanged)
	if err != nil || !ok {
		return err
	}
	if err := s.Redis.Del(ctx, redisx.KeyProductList, redisx.KeyProductListActive).Err(); err != nil {
		return err
	}
	return s.reportLowStock(ctx)
}

// decode unmarshals the envelope, filters by event type and dedups on
// event_id via Redis. ok=false means "handled, nothing to do".
func (s *Service) decode(ctx context.Context, m kafkago.Message, wantType string) (*orders.Envelope, bool, error) {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return nil, false, err
	}
	if env.EventType != wantType {
		return nil, false, nil
	}
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil, false, nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return &env, true, nil
}

func (s *Service) reportLowStock(ctx context.Context) error {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, stock, min_stock FROM products
		WHERE is_active AND NOT is_combo AND stock <= min_stock
		ORDER BY stock`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		var stock, minStock int
		if err := rows.Scan(&id, &name, &stock, &minStock); err != nil {
			return err
		}
		log.Printf("low stock: %s (%s) stock=%d min=%d", name, id, stock, minStock)
	}
	return rows.Err()
}
