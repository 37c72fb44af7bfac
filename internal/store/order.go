package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateOrder inserts an order with its line items serialized inline.
func (db *DB) CreateOrder(o *Order) error {
	if o.CreatedAt == 0 {
		o.CreatedAt = time.Now().UnixMilli()
	}
	if o.Status == "" {
		o.Status = "open"
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = db.Exec(db.rebind(`
		INSERT INTO orders (id, restaurant_id, table_label, items, total, note, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		o.ID, o.RestaurantID, o.TableLabel, string(items), o.Total, o.Note, o.Status, o.CreatedAt)
	return err
}

// GetOrder returns an order by id, or nil when absent.
func (db *DB) GetOrder(id, restaurantID string) (*Order, error) {
	row := db.QueryRow(db.rebind(`
		SELECT id, restaurant_id, table_label, items, total, note, status, created_at
		FROM orders WHERE id = ? AND restaurant_id = ?`), id, restaurantID)
	o, err := scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns the restaurant's orders, newest first.
func (db *DB) ListOrders(restaurantID string) ([]Order, error) {
	rows, err := db.Query(db.rebind(`
		SELECT id, restaurant_id, table_label, items, total, note, status, created_at
		FROM orders WHERE restaurant_id = ?
		ORDER BY created_at DESC`), restaurantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus changes an order's status. Returns sql.ErrNoRows when
// the order does not belong to the restaurant.
func (db *DB) UpdateOrderStatus(id, restaurantID, status string) error {
	res, err := db.Exec(db.rebind(`UPDATE orders SET status = ? WHERE id = ? AND restaurant_id = ?`),
		status, id, restaurantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteOrder removes an order scoped by restaurant.
func (db *DB) DeleteOrder(id, restaurantID string) error {
	res, err := db.Exec(db.rebind(`DELETE FROM orders WHERE id = ? AND restaurant_id = ?`), id, restaurantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanOrder(scan func(...any) error) (*Order, error) {
	var o Order
	var items string
	if err := scan(&o.ID, &o.RestaurantID, &o.TableLabel, &items, &o.Total, &o.Note, &o.Status, &o.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return &o, nil
}
