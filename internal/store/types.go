package store

// Customer is one roster entry: an allowed WhatsApp contact of the
// restaurant, scoped by restaurant id.
type Customer struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurantId"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	CurrentTable string `json:"currentTable"`
	VisitCount   int    `json:"visitCount"`
	CreatedAt    int64  `json:"createdAt"`
}

// OrderItem is one line item of an order.
type OrderItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// Order is an immutable order snapshot once created; only status changes.
type Order struct {
	ID           string      `json:"id"`
	RestaurantID string      `json:"restaurantId"`
	TableLabel   string      `json:"table"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Note         string      `json:"note"`
	Status       string      `json:"status"`
	CreatedAt    int64       `json:"createdAt"`
}

// PrintJob tracks one receipt dispatched to the spool.
// Status is queued, printing, printed or failed.
type PrintJob struct {
	ID           string
	OrderID      string
	Document     string
	Status       string
	ErrorMessage string
	CreatedAt    int64
	UpdatedAt    int64
}
