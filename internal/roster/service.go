// Package roster manages the restaurant's customer roster: the allow-list
// that filters and renames gateway conversations. Every successful mutation
// publishes a change event on the bus, the in-process stand-in for a
// database change-notification channel, so interested parties re-read
// without polling.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/chats"
	"github.com/pedeai/pedeai/internal/store"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a customer does not exist for this restaurant.
var ErrNotFound = errors.New("customer not found")

// Input carries the caller-supplied customer fields.
type Input struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	CurrentTable string `json:"currentTable"`
	VisitCount   int    `json:"visitCount"`
}

// Service is the roster store scoped to one restaurant.
type Service struct {
	db           *store.DB
	bus          *bus.Bus
	logger       *zap.Logger
	restaurantID string
}

// NewService creates a roster service for the given restaurant.
func NewService(db *store.DB, b *bus.Bus, restaurantID string, logger *zap.Logger) *Service {
	return &Service{db: db, bus: b, logger: logger, restaurantID: restaurantID}
}

// List returns the roster, newest first.
func (s *Service) List(ctx context.Context) ([]store.Customer, error) {
	customers, err := s.db.ListCustomers(s.restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// Add creates a roster entry. A failed write reaches the caller with the
// store's message and leaves no partial state.
func (s *Service) Add(ctx context.Context, in Input) (*store.Customer, error) {
	if in.Name == "" && in.Phone == "" {
		return nil, fmt.Errorf("customer needs a name or phone")
	}
	if in.VisitCount <= 0 {
		in.VisitCount = 1
	}
	c := &store.Customer{
		ID:           uuid.NewString(),
		RestaurantID: s.restaurantID,
		Name:         in.Name,
		Phone:        in.Phone,
		CurrentTable: in.CurrentTable,
		VisitCount:   in.VisitCount,
	}
	if err := s.db.CreateCustomer(c); err != nil {
		return nil, fmt.Errorf("add customer: %w", err)
	}
	s.notify("created", c.ID)
	return c, nil
}

// Update rewrites a roster entry.
func (s *Service) Update(ctx context.Context, id string, in Input) (*store.Customer, error) {
	existing, err := s.db.GetCustomer(id, s.restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	existing.Name = in.Name
	existing.Phone = in.Phone
	existing.CurrentTable = in.CurrentTable
	if in.VisitCount > 0 {
		existing.VisitCount = in.VisitCount
	}
	if err := s.db.UpdateCustomer(existing); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	s.notify("updated", id)
	return existing, nil
}

// Remove deletes a roster entry.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.db.DeleteCustomer(id, s.restaurantID); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("remove customer: %w", err)
	}
	s.notify("deleted", id)
	return nil
}

// AllowedContacts adapts the roster to the conversation unifier's filter
// input.
func (s *Service) AllowedContacts(ctx context.Context) ([]chats.AllowedContact, error) {
	customers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	allowed := make([]chats.AllowedContact, 0, len(customers))
	for _, c := range customers {
		if c.Phone == "" {
			continue
		}
		allowed = append(allowed, chats.AllowedContact{Phone: c.Phone, Name: c.Name})
	}
	return allowed, nil
}

func (s *Service) notify(op, id string) {
	s.bus.Publish(bus.Event{
		Kind:    bus.KindRosterChanged,
		Payload: map[string]string{"op": op, "customer_id": id},
	})
	s.logger.Info("roster changed", zap.String("op", op), zap.String("customer_id", id))
}
