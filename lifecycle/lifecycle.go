package lifecycle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/menudrop/orderdesk/models"
)

// InvalidTransitionError is returned when the target status is not reachable
// from the order's current status.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// ValidationError is returned when the transition input itself is incomplete,
// before the transition table is even consulted against the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Extra carries the optional payload some transitions require.
type Extra struct {
	Driver *models.Driver
}

type edge struct {
	to          models.OrderStatus
	onlyType    models.OrderType // zero value means any order type
	needsDriver bool
}

// Transition table. Cancellation from any non-terminal state is handled
// separately in edgeFor. Both order types may use the ready shortcut; the
// out_for_delivery path is take_out only and needs a driver attached.
var transitions = map[models.OrderStatus][]edge{
	models.StatusPending: {
		{to: models.StatusPreparing},
	},
	models.StatusPreparing: {
		{to: models.StatusCompleted, onlyType: models.OrderTypeDineIn},
		{to: models.StatusOutForDelivery, onlyType: models.OrderTypeTakeOut, needsDriver: true},
		{to: models.StatusReady},
	},
	models.StatusReady: {
		{to: models.StatusCompleted},
	},
	models.StatusOutForDelivery: {
		{to: models.StatusCompleted},
	},
}

func edgeFor(status models.OrderStatus, orderType models.OrderType, target models.OrderStatus) (edge, bool) {
	if target == models.StatusCancelled {
		if status.IsTerminal() || !status.IsValid() {
			return edge{}, false
		}
		return edge{to: models.StatusCancelled}, true
	}
	for _, e := range transitions[status] {
		if e.to != target {
			continue
		}
		if e.onlyType != "" && e.onlyType != orderType {
			continue
		}
		return e, true
	}
	return edge{}, false
}

// AllowedNext returns every status reachable from the given status for the
// given order type. Terminal statuses return nil.
func AllowedNext(status models.OrderStatus, orderType models.OrderType) []models.OrderStatus {
	if status.IsTerminal() || !status.IsValid() {
		return nil
	}
	var next []models.OrderStatus
	for _, e := range transitions[status] {
		if e.onlyType != "" && e.onlyType != orderType {
			continue
		}
		next = append(next, e.to)
	}
	return append(next, models.StatusCancelled)
}

// CanTransition reports whether the edge exists, ignoring payload
// requirements.
func CanTransition(order *models.Order, target models.OrderStatus) bool {
	if !target.IsValid() {
		return false
	}
	_, ok := edgeFor(order.Status, order.OrderType, target)
	return ok
}

// Validate checks a requested transition against the table and its payload
// requirements. It never silently no-ops: an illegal request always yields
// either an InvalidTransitionError or a ValidationError, and callers must not
// issue the network call when it fails.
func Validate(order *models.Order, target models.OrderStatus, extra *Extra) error {
	if !target.IsValid() {
		return &InvalidTransitionError{From: order.Status, To: target}
	}
	e, ok := edgeFor(order.Status, order.OrderType, target)
	if !ok {
		return &InvalidTransitionError{From: order.Status, To: target}
	}
	if e.needsDriver {
		if extra == nil || extra.Driver == nil || extra.Driver.Name == "" {
			return &ValidationError{Field: "driver", Reason: "a driver with a name is required to send an order out for delivery"}
		}
	}
	return nil
}

// Apply returns a new order slice with the matching order's status replaced.
// It is pure: the input slice and its orders are left untouched. Callers
// apply it only after the server has acknowledged the transition.
func Apply(orders []models.Order, id uuid.UUID, status models.OrderStatus) []models.Order {
	out := make([]models.Order, len(orders))
	copy(out, orders)
	for i := range out {
		if out[i].ID == id {
			out[i].Status = status
		}
	}
	return out
}
