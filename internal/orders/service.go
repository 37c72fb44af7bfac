// Package orders manages order records: created by the dashboard, consumed
// by the receipt formatter. An order is an immutable snapshot once created;
// only its status moves.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/store"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an order does not exist for this restaurant.
var ErrNotFound = errors.New("order not found")

// Input carries the caller-supplied order fields.
type Input struct {
	TableLabel string            `json:"table"`
	Items      []store.OrderItem `json:"items"`
	Total      float64           `json:"total"`
	Note       string            `json:"note"`
}

// Service is the order store scoped to one restaurant.
type Service struct {
	db           *store.DB
	bus          *bus.Bus
	logger       *zap.Logger
	restaurantID string
}

// NewService creates an order service for the given restaurant.
func NewService(db *store.DB, b *bus.Bus, restaurantID string, logger *zap.Logger) *Service {
	return &Service{db: db, bus: b, logger: logger, restaurantID: restaurantID}
}

// Create validates and stores a new order. The stored total is taken as-is;
// it is not re-derived from the items.
func (s *Service) Create(ctx context.Context, in Input) (*store.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("order needs at least one item")
	}
	for i, item := range in.Items {
		if item.Qty < 1 {
			return nil, fmt.Errorf("item %d (%s): quantity must be at least 1", i, item.Name)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("item %d (%s): price cannot be negative", i, item.Name)
		}
	}
	if in.Total < 0 {
		return nil, fmt.Errorf("total cannot be negative")
	}

	o := &store.Order{
		ID:           uuid.NewString(),
		RestaurantID: s.restaurantID,
		TableLabel:   in.TableLabel,
		Items:        in.Items,
		Total:        in.Total,
		Note:         in.Note,
	}
	if err := s.db.CreateOrder(o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.notify(bus.KindOrderCreated, o.ID)
	return o, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (*store.Order, error) {
	o, err := s.db.GetOrder(id, s.restaurantID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns the restaurant's orders, newest first.
func (s *Service) List(ctx context.Context) ([]store.Order, error) {
	out, err := s.db.ListOrders(s.restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// SetStatus moves an order's status.
func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	switch status {
	case "open", "preparing", "done", "cancelled":
	default:
		return fmt.Errorf("unknown order status %q", status)
	}
	if err := s.db.UpdateOrderStatus(id, s.restaurantID, status); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("update order status: %w", err)
	}
	s.notify(bus.KindOrderUpdated, id)
	return nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteOrder(id, s.restaurantID); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}
	s.notify(bus.KindOrderDeleted, id)
	return nil
}

func (s *Service) notify(kind, id string) {
	s.bus.Publish(bus.Event{
		Kind:    kind,
		Payload: map[string]string{"order_id": id},
	})
	s.logger.Info("order event", zap.String("kind", kind), zap.String("order_id", id))
}
