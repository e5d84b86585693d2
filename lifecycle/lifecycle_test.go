package lifecycle

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menudrop/orderdesk/models"
)

func testOrder(status models.OrderStatus, orderType models.OrderType) *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		Status:    status,
		OrderType: orderType,
	}
}

func driverExtra() *Extra {
	return &Extra{Driver: &models.Driver{Name: "Alisher", Phone: "555-0101"}}
}

var allStatuses = []models.OrderStatus{
	models.StatusPending,
	models.StatusPreparing,
	models.StatusOutForDelivery,
	models.StatusReady,
	models.StatusCompleted,
	models.StatusCancelled,
}

// allowed enumerates every legal (type, from, to) triple. Anything outside
// this table must be rejected.
var allowed = map[models.OrderType]map[models.OrderStatus][]models.OrderStatus{
	models.OrderTypeDineIn: {
		models.StatusPending:        {models.StatusPreparing, models.StatusCancelled},
		models.StatusPreparing:      {models.StatusCompleted, models.StatusReady, models.StatusCancelled},
		models.StatusReady:          {models.StatusCompleted, models.StatusCancelled},
		models.StatusOutForDelivery: {models.StatusCompleted, models.StatusCancelled},
	},
	models.OrderTypeTakeOut: {
		models.StatusPending:        {models.StatusPreparing, models.StatusCancelled},
		models.StatusPreparing:      {models.StatusOutForDelivery, models.StatusReady, models.StatusCancelled},
		models.StatusReady:          {models.StatusCompleted, models.StatusCancelled},
		models.StatusOutForDelivery: {models.StatusCompleted, models.StatusCancelled},
	},
}

func isAllowed(orderType models.OrderType, from, to models.OrderStatus) bool {
	for _, t := range allowed[orderType][from] {
		if t == to {
			return true
		}
	}
	return false
}

func TestValidateExhaustive(t *testing.T) {
	for _, orderType := range []models.OrderType{models.OrderTypeDineIn, models.OrderTypeTakeOut} {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				order := testOrder(from, orderType)
				err := Validate(order, to, driverExtra())
				if isAllowed(orderType, from, to) {
					assert.NoErrorf(t, err, "%s %s -> %s should be legal", orderType, from, to)
				} else {
					var invalid *InvalidTransitionError
					require.Errorf(t, err, "%s %s -> %s should be rejected", orderType, from, to)
					assert.Truef(t, errors.As(err, &invalid),
						"%s %s -> %s should fail with InvalidTransitionError, got %v", orderType, from, to, err)
				}
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, to := range allStatuses {
			err := Validate(testOrder(terminal, models.OrderTypeDineIn), to, driverExtra())
			assert.Errorf(t, err, "%s -> %s must be rejected", terminal, to)
		}
		assert.Nil(t, AllowedNext(terminal, models.OrderTypeDineIn))
		assert.Nil(t, AllowedNext(terminal, models.OrderTypeTakeOut))
	}
}

func TestValidateUnknownTarget(t *testing.T) {
	err := Validate(testOrder(models.StatusPending, models.OrderTypeDineIn), "shipped", nil)
	var invalid *InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
}

func TestDineInPath(t *testing.T) {
	order := testOrder(models.StatusPending, models.OrderTypeDineIn)
	require.NoError(t, Validate(order, models.StatusPreparing, nil))

	order.Status = models.StatusPreparing
	var invalid *InvalidTransitionError
	err := Validate(order, models.StatusOutForDelivery, driverExtra())
	require.True(t, errors.As(err, &invalid), "dine_in orders never go out for delivery")

	require.NoError(t, Validate(order, models.StatusCompleted, nil))
}

func TestTakeOutRequiresDriver(t *testing.T) {
	order := testOrder(models.StatusPreparing, models.OrderTypeTakeOut)

	var verr *ValidationError
	err := Validate(order, models.StatusOutForDelivery, nil)
	require.True(t, errors.As(err, &verr), "missing driver must fail validation, got %v", err)

	err = Validate(order, models.StatusOutForDelivery, &Extra{Driver: &models.Driver{}})
	require.True(t, errors.As(err, &verr), "driver without a name must fail validation")

	require.NoError(t, Validate(order, models.StatusOutForDelivery, &Extra{Driver: &models.Driver{Name: "X"}}))
}

func TestTakeOutCannotCompleteFromPreparing(t *testing.T) {
	order := testOrder(models.StatusPreparing, models.OrderTypeTakeOut)
	var invalid *InvalidTransitionError
	err := Validate(order, models.StatusCompleted, nil)
	require.True(t, errors.As(err, &invalid))
}

func TestAllowedNext(t *testing.T) {
	next := AllowedNext(models.StatusPreparing, models.OrderTypeDineIn)
	assert.ElementsMatch(t, []models.OrderStatus{
		models.StatusCompleted, models.StatusReady, models.StatusCancelled,
	}, next)

	next = AllowedNext(models.StatusPreparing, models.OrderTypeTakeOut)
	assert.ElementsMatch(t, []models.OrderStatus{
		models.StatusOutForDelivery, models.StatusReady, models.StatusCancelled,
	}, next)
}

func TestApplyIsPure(t *testing.T) {
	id := uuid.New()
	orders := []models.Order{
		{ID: id, Status: models.StatusPending},
		{ID: uuid.New(), Status: models.StatusPreparing},
	}

	updated := Apply(orders, id, models.StatusPreparing)

	assert.Equal(t, models.StatusPending, orders[0].Status, "input slice must not be mutated")
	assert.Equal(t, models.StatusPreparing, updated[0].Status)
	assert.Equal(t, orders[1].Status, updated[1].Status)
	assert.Len(t, updated, len(orders))
}

func TestApplyUnknownIDLeavesOrdersUntouched(t *testing.T) {
	orders := []models.Order{{ID: uuid.New(), Status: models.StatusPending}}
	updated := Apply(orders, uuid.New(), models.StatusCancelled)
	assert.Equal(t, orders, updated)
}
