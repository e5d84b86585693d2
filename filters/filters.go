// Package filters derives the visible subset of an order list from the
// dashboard's filter controls. Everything here is pure: same inputs, same
// output, no side effects.
package filters

import (
	"strconv"
	"strings"

	"github.com/menudrop/orderdesk/models"
)

// All disables a status or type filter.
const All = "all"

type Criteria struct {
	Status    string // All or an OrderStatus value
	OrderType string // All or an OrderType value
	Search    string
}

// Apply returns the orders matching every criterion. The preparing bucket
// intentionally also matches out_for_delivery, so the dashboard shows dine_in
// and take_out orders that are being worked on in a single column.
func Apply(orders []models.Order, c Criteria) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if matchStatus(o, c.Status) && matchType(o, c.OrderType) && matchSearch(o, c.Search) {
			out = append(out, o)
		}
	}
	return out
}

func matchStatus(o models.Order, status string) bool {
	if status == "" || status == All {
		return true
	}
	if status == string(models.StatusPreparing) {
		return o.Status == models.StatusPreparing || o.Status == models.StatusOutForDelivery
	}
	return string(o.Status) == status
}

func matchType(o models.Order, orderType string) bool {
	if orderType == "" || orderType == All {
		return true
	}
	return string(o.OrderType) == orderType
}

func matchSearch(o models.Order, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	if o.OrderNumber != 0 && strings.Contains(strconv.FormatInt(o.OrderNumber, 10), term) {
		return true
	}
	if strings.Contains(strings.ToLower(o.ID.String()), term) {
		return true
	}
	return strings.Contains(strconv.FormatFloat(o.TotalPrice, 'f', 2, 64), term)
}
