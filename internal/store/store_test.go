package store

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn"); err == nil {
		t.Error("Open() expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: "sqlite3"}
	pg := &DB{driver: "postgres"}

	q := `INSERT INTO t (a, b) VALUES (?, ?)`
	if got := sqlite.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	want := `INSERT INTO t (a, b) VALUES ($1, $2)`
	if got := pg.rebind(q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestCustomerCRUD(t *testing.T) {
	db := testDB(t)

	c := &Customer{ID: "c1", RestaurantID: "r1", Name: "Ana", Phone: "5511987654321", VisitCount: 1}
	if err := db.CreateCustomer(c); err != nil {
		t.Fatal(err)
	}

	c.Name = "Ana Silva"
	c.CurrentTable = "5"
	if err := db.UpdateCustomer(c); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetCustomer("c1", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Ana Silva" || got.CurrentTable != "5" {
		t.Errorf("GetCustomer() = %+v", got)
	}

	// Scoped by restaurant: wrong tenant sees nothing.
	if got, err := db.GetCustomer("c1", "other"); err != nil || got != nil {
		t.Errorf("cross-tenant GetCustomer() = %+v, %v", got, err)
	}
	if err := db.UpdateCustomer(&Customer{ID: "c1", RestaurantID: "other"}); err != sql.ErrNoRows {
		t.Errorf("cross-tenant UpdateCustomer() = %v, want ErrNoRows", err)
	}

	if err := db.DeleteCustomer("c1", "r1"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteCustomer("c1", "r1"); err != sql.ErrNoRows {
		t.Errorf("second delete = %v, want ErrNoRows", err)
	}
}

func TestListCustomersNewestFirst(t *testing.T) {
	db := testDB(t)

	for i, c := range []*Customer{
		{ID: "c1", RestaurantID: "r1", Name: "Old", CreatedAt: 100},
		{ID: "c2", RestaurantID: "r1", Name: "New", CreatedAt: 200},
		{ID: "c3", RestaurantID: "r2", Name: "Other tenant", CreatedAt: 300},
	} {
		if err := db.CreateCustomer(c); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	customers, err := db.ListCustomers("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(customers) != 2 {
		t.Fatalf("got %d customers, want 2", len(customers))
	}
	if customers[0].Name != "New" {
		t.Errorf("first = %q, want New", customers[0].Name)
	}
}

func TestOrderRoundTrip(t *testing.T) {
	db := testDB(t)

	o := &Order{
		ID:           "o1",
		RestaurantID: "r1",
		TableLabel:   "12",
		Items: []OrderItem{
			{Name: "Coca-Cola", Price: 5, Qty: 2},
			{Name: "X-Burger", Price: 20, Qty: 1},
		},
		Total: 30,
		Note:  "sem gelo",
	}
	if err := db.CreateOrder(o); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetOrder("o1", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("GetOrder() = nil")
	}
	if len(got.Items) != 2 || got.Items[0].Name != "Coca-Cola" || got.Items[0].Qty != 2 {
		t.Errorf("items = %+v", got.Items)
	}
	if got.Status != "open" {
		t.Errorf("status = %q, want default open", got.Status)
	}
	if got.CreatedAt == 0 {
		t.Error("CreatedAt not stamped")
	}

	if err := db.UpdateOrderStatus("o1", "r1", "done"); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetOrder("o1", "r1")
	if got.Status != "done" {
		t.Errorf("status = %q, want done", got.Status)
	}

	if err := db.DeleteOrder("o1", "r1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetOrder("o1", "r1"); got != nil {
		t.Errorf("order survived delete: %+v", got)
	}
}

func TestPrintJobLifecycle(t *testing.T) {
	db := testDB(t)

	if err := db.QueuePrintJob("j1", "o1", "<html>doc</html>"); err != nil {
		t.Fatal(err)
	}
	if err := db.QueuePrintJob("j2", "o2", "<html>doc2</html>"); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingPrintJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending jobs, want 2", len(pending))
	}

	if err := db.MarkPrintJobPrinting("j1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkPrintJobPrinted("j1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkPrintJobFailed("j2", "printer on fire"); err != nil {
		t.Fatal(err)
	}

	pending, err = db.PendingPrintJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending jobs after processing, want 0", len(pending))
	}
}
