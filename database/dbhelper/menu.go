package dbhelper

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/menudrop/orderdesk/database"
	"github.com/menudrop/orderdesk/models"
)

func CreateMenuItem(item *models.MenuItem, createdBy uuid.UUID) error {
	return database.OrderDesk.QueryRow(`
		INSERT INTO menu_items (restaurant_name, name, category, price, sizes, is_available, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		item.RestaurantName, item.Name, item.Category, item.Price,
		pq.Array(item.Sizes), item.IsAvailable, createdBy).
		Scan(&item.ID, &item.CreatedAt)
}

func ListMenuItems(restaurantName string) ([]models.MenuItem, error) {
	rows, err := database.OrderDesk.Query(`
		SELECT id, restaurant_name, name, COALESCE(category, ''), price, sizes, is_available, created_at
		FROM menu_items
		WHERE restaurant_name = $1
		ORDER BY category, name`, restaurantName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantName, &m.Name, &m.Category,
			&m.Price, pq.Array(&m.Sizes), &m.IsAvailable, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func CreatePromotion(p *models.Promotion, createdBy uuid.UUID) error {
	return database.OrderDesk.QueryRow(`
		INSERT INTO promotions (restaurant_name, title, discount_percent, is_active, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		p.RestaurantName, p.Title, p.DiscountPercent, p.IsActive, p.StartsAt, p.EndsAt, createdBy).
		Scan(&p.ID, &p.CreatedAt)
}

func ListPromotions(restaurantName string) ([]models.Promotion, error) {
	rows, err := database.OrderDesk.Query(`
		SELECT id, restaurant_name, title, discount_percent, is_active, starts_at, ends_at, created_at
		FROM promotions
		WHERE restaurant_name = $1
		ORDER BY created_at DESC`, restaurantName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promos []models.Promotion
	for rows.Next() {
		var p models.Promotion
		var endsAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.RestaurantName, &p.Title, &p.DiscountPercent,
			&p.IsActive, &p.StartsAt, &endsAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if endsAt.Valid {
			p.EndsAt = &endsAt.Time
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func SetPromotionActive(id uuid.UUID, active bool) error {
	_, err := database.OrderDesk.Exec(`UPDATE promotions SET is_active = $2 WHERE id = $1`, id, active)
	return err
}
