// Package receipt turns an order snapshot into a printable thermal-receipt
// document (58mm or 80mm bobina) and spools it to the printer.
package receipt

import (
	"fmt"
	"time"

	"github.com/pedeai/pedeai/internal/store"
)

// DefaultRestaurantName labels receipts when no display name is configured.
const DefaultRestaurantName = "PedeAí"

const (
	courtesyLine = "Obrigado pela preferência!"
	systemLine   = "Sistema PedeAí - Pedidos Online"
)

// ItemLine is one printed line item: label on the left, amount on the right.
type ItemLine struct {
	Label  string
	Amount string
}

// Document is the fully formatted receipt, ready to render. Building it is
// a pure transform of the order snapshot.
type Document struct {
	RestaurantName string
	DateTime       string
	TableLabel     string
	OrderID        string
	Items          []ItemLine
	Total          string
	Note           string
	CourtesyLine   string
	SystemLine     string
}

// BuildDocument formats an order into a receipt document. Each item amount
// is unit price times quantity computed here; the total line is the order's
// stored total verbatim, and the two are not reconciled.
func BuildDocument(o *store.Order, restaurantName string) Document {
	if restaurantName == "" {
		restaurantName = DefaultRestaurantName
	}

	items := make([]ItemLine, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemLine{
			Label:  fmt.Sprintf("%dx %s", item.Qty, item.Name),
			Amount: money(item.Price * float64(item.Qty)),
		})
	}

	return Document{
		RestaurantName: restaurantName,
		DateTime:       time.UnixMilli(o.CreatedAt).Format("02/01/2006, 15:04:05"),
		TableLabel:     o.TableLabel,
		OrderID:        o.ID,
		Items:          items,
		Total:          money(o.Total),
		Note:           o.Note,
		CourtesyLine:   courtesyLine,
		SystemLine:     systemLine,
	}
}

func money(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}
