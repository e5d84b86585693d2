package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is a saved entry from the build-your-menu wizard.
type MenuItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	RestaurantName string    `db:"restaurant_name" json:"restaurant_name"`
	Name           string    `db:"name" json:"name"`
	Category       string    `db:"category" json:"category"`
	Price          float64   `db:"price" json:"price"`
	Sizes          []string  `db:"-" json:"sizes,omitempty"`
	IsAvailable    bool      `db:"is_available" json:"is_available"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type Promotion struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	RestaurantName  string     `db:"restaurant_name" json:"restaurant_name"`
	Title           string     `db:"title" json:"title"`
	DiscountPercent float64    `db:"discount_percent" json:"discount_percent"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	StartsAt        time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt          *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
