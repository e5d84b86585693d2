package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/menudrop/orderdesk/database/dbhelper"
	"github.com/menudrop/orderdesk/middlewares"
	"github.com/menudrop/orderdesk/models"
	"github.com/menudrop/orderdesk/utils"
)

// CreateMenuItem persists one entry produced by the build-your-menu wizard.
func CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if item.RestaurantName == "" || item.Name == "" {
		utils.RespondError(w, http.StatusBadRequest, "restaurant_name and name are required")
		return
	}
	if item.Price < 0 {
		utils.RespondError(w, http.StatusBadRequest, "price cannot be negative")
		return
	}

	if err := dbhelper.CreateMenuItem(&item, claims.UserID); err != nil {
		logrus.WithError(err).Error("failed to create menu item")
		utils.RespondError(w, http.StatusInternalServerError, "failed to create menu item")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"menu_item": item})
}

func ListMenuItems(w http.ResponseWriter, r *http.Request) {
	restaurantName := r.URL.Query().Get("restaurant")
	if restaurantName == "" {
		utils.RespondError(w, http.StatusBadRequest, "restaurant query parameter is required")
		return
	}

	items, err := dbhelper.ListMenuItems(restaurantName)
	if err != nil {
		logrus.WithError(err).Error("failed to list menu items")
		utils.RespondError(w, http.StatusInternalServerError, "failed to list menu items")
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"menu_items": items})
}

func CreatePromotion(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var promo models.Promotion
	if err := json.NewDecoder(r.Body).Decode(&promo); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if promo.RestaurantName == "" || promo.Title == "" {
		utils.RespondError(w, http.StatusBadRequest, "restaurant_name and title are required")
		return
	}
	if promo.DiscountPercent <= 0 || promo.DiscountPercent > 100 {
		utils.RespondError(w, http.StatusBadRequest, "discount_percent must be between 0 and 100")
		return
	}
	if promo.StartsAt.IsZero() {
		promo.StartsAt = time.Now()
	}

	if err := dbhelper.CreatePromotion(&promo, claims.UserID); err != nil {
		logrus.WithError(err).Error("failed to create promotion")
		utils.RespondError(w, http.StatusInternalServerError, "failed to create promotion")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"promotion": promo})
}

func ListPromotions(w http.ResponseWriter, r *http.Request) {
	restaurantName := r.URL.Query().Get("restaurant")
	if restaurantName == "" {
		utils.RespondError(w, http.StatusBadRequest, "restaurant query parameter is required")
		return
	}

	promos, err := dbhelper.ListPromotions(restaurantName)
	if err != nil {
		logrus.WithError(err).Error("failed to list promotions")
		utils.RespondError(w, http.StatusInternalServerError, "failed to list promotions")
		return
	}
	if promos == nil {
		promos = []models.Promotion{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"promotions": promos})
}

func TogglePromotion(w http.ResponseWriter, r *http.Request) {
	promoID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid promotion id")
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := dbhelper.SetPromotionActive(promoID, req.IsActive); err != nil {
		logrus.WithError(err).Error("failed to toggle promotion")
		utils.RespondError(w, http.StatusInternalServerError, "failed to update promotion")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "promotion updated"})
}
