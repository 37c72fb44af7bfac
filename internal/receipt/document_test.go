package receipt

import (
	"testing"
	"time"

	"github.com/pedeai/pedeai/internal/store"
)

func sampleOrder() *store.Order {
	return &store.Order{
		ID:         "ped-42",
		TableLabel: "12",
		Items: []store.OrderItem{
			{Name: "Coca-Cola", Price: 5, Qty: 2},
			{Name: "X-Burger", Price: 20, Qty: 1},
		},
		Total:     30,
		Note:      "sem cebola",
		CreatedAt: time.Date(2026, 8, 29, 19, 30, 0, 0, time.Local).UnixMilli(),
	}
}

func TestBuildDocumentItemLines(t *testing.T) {
	doc := BuildDocument(sampleOrder(), "Cantina da Ana")

	if doc.RestaurantName != "Cantina da Ana" {
		t.Errorf("RestaurantName = %q", doc.RestaurantName)
	}
	if doc.TableLabel != "12" || doc.OrderID != "ped-42" {
		t.Errorf("header = %q / %q", doc.TableLabel, doc.OrderID)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("got %d item lines, want 2", len(doc.Items))
	}
	if doc.Items[0].Label != "2x Coca-Cola" || doc.Items[0].Amount != "R$ 10.00" {
		t.Errorf("item 0 = %+v, want 2x Coca-Cola / R$ 10.00", doc.Items[0])
	}
	if doc.Items[1].Label != "1x X-Burger" || doc.Items[1].Amount != "R$ 20.00" {
		t.Errorf("item 1 = %+v, want 1x X-Burger / R$ 20.00", doc.Items[1])
	}
	if doc.Total != "R$ 30.00" {
		t.Errorf("Total = %q, want R$ 30.00", doc.Total)
	}
	if doc.DateTime != "29/08/2026, 19:30:00" {
		t.Errorf("DateTime = %q", doc.DateTime)
	}
}

// The total line is the stored total, not the item sum.
func TestBuildDocumentDoesNotRederiveTotal(t *testing.T) {
	o := sampleOrder()
	o.Total = 99.9

	doc := BuildDocument(o, "")
	if doc.Total != "R$ 99.90" {
		t.Errorf("Total = %q, want stored R$ 99.90", doc.Total)
	}
}

func TestBuildDocumentDefaultName(t *testing.T) {
	doc := BuildDocument(sampleOrder(), "")
	if doc.RestaurantName != DefaultRestaurantName {
		t.Errorf("RestaurantName = %q, want %q", doc.RestaurantName, DefaultRestaurantName)
	}
}

func TestBuildDocumentEmptyNote(t *testing.T) {
	o := sampleOrder()
	o.Note = ""
	doc := BuildDocument(o, "x")
	if doc.Note != "" {
		t.Errorf("Note = %q, want empty", doc.Note)
	}
}
