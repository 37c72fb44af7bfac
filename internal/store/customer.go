package store

import (
	"database/sql"
	"time"
)

// CreateCustomer inserts a roster entry.
func (db *DB) CreateCustomer(c *Customer) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(db.rebind(`
		INSERT INTO customers (id, restaurant_id, name, phone, current_table, visit_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.RestaurantID, c.Name, c.Phone, c.CurrentTable, c.VisitCount, c.CreatedAt)
	return err
}

// UpdateCustomer updates a roster entry scoped by restaurant. Returns
// sql.ErrNoRows when the entry does not belong to the restaurant.
func (db *DB) UpdateCustomer(c *Customer) error {
	res, err := db.Exec(db.rebind(`
		UPDATE customers SET name = ?, phone = ?, current_table = ?, visit_count = ?
		WHERE id = ? AND restaurant_id = ?`),
		c.Name, c.Phone, c.CurrentTable, c.VisitCount, c.ID, c.RestaurantID)
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

// DeleteCustomer removes a roster entry scoped by restaurant.
func (db *DB) DeleteCustomer(id, restaurantID string) error {
	res, err := db.Exec(db.rebind(`DELETE FROM customers WHERE id = ? AND restaurant_id = ?`), id, restaurantID)
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

// GetCustomer returns a roster entry by id, or nil when absent.
func (db *DB) GetCustomer(id, restaurantID string) (*Customer, error) {
	var c Customer
	err := db.QueryRow(db.rebind(`
		SELECT id, restaurant_id, name, phone, current_table, visit_count, created_at
		FROM customers WHERE id = ? AND restaurant_id = ?`), id, restaurantID).
		Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Phone, &c.CurrentTable, &c.VisitCount, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns the restaurant's roster, newest first.
func (db *DB) ListCustomers(restaurantID string) ([]Customer, error) {
	rows, err := db.Query(db.rebind(`
		SELECT id, restaurant_id, name, phone, current_table, visit_count, created_at
		FROM customers WHERE restaurant_id = ?
		ORDER BY created_at DESC`), restaurantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Phone, &c.CurrentTable, &c.VisitCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
