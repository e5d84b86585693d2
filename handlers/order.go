package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/menudrop/orderdesk/database"
	"github.com/menudrop/orderdesk/database/dbhelper"
	"github.com/menudrop/orderdesk/lifecycle"
	"github.com/menudrop/orderdesk/models"
	"github.com/menudrop/orderdesk/utils"
)

// Platform commission withheld from each order.
const commissionRate = 0.05

// Cancelling a paid order this soon after creation triggers a refund, and
// the operator is warned before the dashboard moves on.
const refundWarningWindow = 5 * time.Minute

func ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := dbhelper.GetOrders()
	if err != nil {
		logrus.WithError(err).Error("failed to list orders")
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// UpdateOrderStatus is the server-side transition guard. Clients validate
// before calling, but an invalid transition still fails here with a 4xx so
// a stale dashboard can never push an order backward.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
		Driver *models.Driver     `json:"driver,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := dbhelper.GetOrderByID(orderID)
	if err == sql.ErrNoRows {
		utils.RespondError(w, http.StatusNotFound, "order not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to load order")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	var extra *lifecycle.Extra
	if req.Driver != nil {
		extra = &lifecycle.Extra{Driver: req.Driver}
	}
	if err := lifecycle.Validate(order, req.Status, extra); err != nil {
		var invalid *lifecycle.InvalidTransitionError
		if errors.As(err, &invalid) {
			utils.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	message := policyMessage(order, req.Status)

	updated, err := dbhelper.UpdateOrderStatus(orderID, order.Status, req.Status, req.Driver)
	if err == sql.ErrNoRows {
		// Another operator moved the order between our read and our write;
		// the transition was validated against a stale snapshot.
		utils.RespondError(w, http.StatusConflict, "order status changed concurrently, refresh and retry")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to update order status")
		utils.RespondError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     order.Status,
		"to":       updated.Status,
	}).Info("order status updated")

	resp := map[string]interface{}{"order": updated}
	if message != "" {
		resp["message"] = message
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// policyMessage returns the human-readable notice attached to a transition,
// if any. Clients treat it as an opaque string to display.
func policyMessage(order *models.Order, target models.OrderStatus) string {
	if target != models.StatusCancelled {
		return ""
	}
	if order.PaymentStatus == models.PaymentPaid && time.Since(order.CreatedAt) <= refundWarningWindow {
		return "This order was paid online less than 5 minutes ago; cancelling it will trigger an automatic refund."
	}
	return ""
}

func GetPublicOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.URL.Query().Get("orderId"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := dbhelper.GetOrderByID(orderID)
	if err == sql.ErrNoRows {
		utils.RespondError(w, http.StatusNotFound, "order not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to load public order")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

func SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestaurantName  string             `json:"restaurantName"`
		OrderType       models.OrderType   `json:"orderType"`
		TableNumber     string             `json:"tableNumber"`
		DeliveryAddress string             `json:"deliveryAddress"`
		PaymentMethod   string             `json:"paymentMethod"`
		Items           []models.OrderItem `json:"items"`
		TotalPrice      float64            `json:"totalPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var verr *multierror.Error
	if req.RestaurantName == "" {
		verr = multierror.Append(verr, errors.New("restaurantName is required"))
	}
	if !req.OrderType.IsValid() {
		verr = multierror.Append(verr, errors.New("orderType must be dine_in or take_out"))
	}
	if req.OrderType == models.OrderTypeDineIn && req.TableNumber == "" {
		verr = multierror.Append(verr, errors.New("tableNumber is required for dine_in orders"))
	}
	if req.OrderType == models.OrderTypeTakeOut && req.DeliveryAddress == "" {
		verr = multierror.Append(verr, errors.New("deliveryAddress is required for take_out orders"))
	}
	if req.PaymentMethod == "" {
		verr = multierror.Append(verr, errors.New("paymentMethod is required"))
	}
	if len(req.Items) == 0 {
		verr = multierror.Append(verr, errors.New("order must contain at least one item"))
	}
	if req.TotalPrice <= 0 {
		verr = multierror.Append(verr, errors.New("totalPrice must be positive"))
	}
	if err := verr.ErrorOrNil(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order := models.Order{
		RestaurantName:   req.RestaurantName,
		OrderType:        req.OrderType,
		TableNumber:      req.TableNumber,
		DeliveryAddress:  req.DeliveryAddress,
		PaymentStatus:    paymentStatusFor(req.PaymentMethod),
		TotalPrice:       req.TotalPrice,
		CommissionAmount: math.Round(req.TotalPrice*commissionRate*100) / 100,
		Items:            req.Items,
	}

	txErr := database.Tx(func(tx *sql.Tx) error {
		return dbhelper.CreateOrder(tx, &order)
	})
	if txErr != nil {
		logrus.WithError(txErr).Error("failed to create order")
		utils.RespondError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"order_type":   order.OrderType,
	}).Info("order submitted")

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"order": order})
}

func paymentStatusFor(method string) models.PaymentStatus {
	switch method {
	case "cash":
		return models.PaymentPendingCash
	case "card", "online":
		return models.PaymentPaid
	default:
		return models.PaymentUnpaid
	}
}
