package projector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-tour-booking.git/internal/booking"
	kafkax "github.com/ariefcatur/go-tour-booking.git/internal/kafka"
	"github.com/ariefcatur/go-tour-booking.git/internal/redisx"
)

// Service memelihara read cache status order di redis dari event stream,
// supaya GET status tidak selalu ke DB. Bukan notifikasi user.
type Service struct {
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

// HandleOrderEvent dipasang sebagai handler consumer untuk topic order
// created & status. Dedup per event_id via redis.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env booking.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	body, err := projectBody(env)
	if err != nil {
		return err
	}
	if body == nil {
		return nil // event type di luar urusan projector
	}

	orderID, _ := body["order_id"].(string)
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := s.Redis.Set(ctx, key, kafkax.MustMarshal(body), redisx.TTLStatusCache).Err(); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	s.Log.Debug("order status projected",
		zap.String("order_id", orderID),
		zap.String("event_type", env.EventType))
	return nil
}

// projectBody menerjemahkan event ke isi cache status. nil = tidak relevan.
// OrderPaymentChanged hanya menggeser sumbu pembayaran, status order tetap.
func projectBody(env booking.Envelope) (map[string]any, error) {
	switch env.EventType {
	case booking.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[booking.OrderCreatedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return map[string]any{"order_id": p.OrderID, "status": p.Status, "payment_status": "unpaid"}, nil
	case booking.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[booking.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return map[string]any{"order_id": p.OrderID, "status": p.To, "payment_status": p.PaymentStatus}, nil
	case booking.EventOrderPaymentChanged:
		p, err := kafkax.UnwrapPayload[booking.OrderPaymentChangedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		return map[string]any{"order_id": p.OrderID, "status": p.Status, "payment_status": p.To}, nil
	default:
		return nil, nil
	}
}
