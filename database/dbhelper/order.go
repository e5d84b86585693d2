package dbhelper

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/menudrop/orderdesk/database"
	"github.com/menudrop/orderdesk/models"
)

const orderColumns = `id, order_number, restaurant_name, status, order_type,
	COALESCE(table_number, ''), COALESCE(delivery_address, ''),
	payment_status, total_price, commission_amount,
	driver_name, driver_phone, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	var driverName, driverPhone sql.NullString
	err := row.Scan(&o.ID, &o.OrderNumber, &o.RestaurantName, &o.Status, &o.OrderType,
		&o.TableNumber, &o.DeliveryAddress,
		&o.PaymentStatus, &o.TotalPrice, &o.CommissionAmount,
		&driverName, &driverPhone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if driverName.Valid && driverName.String != "" {
		o.Driver = &models.Driver{Name: driverName.String, Phone: driverPhone.String}
	}
	return &o, nil
}

func CreateOrder(tx *sql.Tx, o *models.Order) error {
	err := tx.QueryRow(`
		INSERT INTO orders (restaurant_name, order_type, table_number, delivery_address,
			payment_status, total_price, commission_amount)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		RETURNING id, order_number, status, created_at, updated_at`,
		o.RestaurantName, o.OrderType, o.TableNumber, o.DeliveryAddress,
		o.PaymentStatus, o.TotalPrice, o.CommissionAmount).
		Scan(&o.ID, &o.OrderNumber, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := tx.QueryRow(`
			INSERT INTO order_items (order_id, name, size, price, quantity, modifiers)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
			RETURNING id`,
			o.ID, item.Name, item.Size, item.Price, item.Quantity, pq.Array(item.Modifiers)).
			Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func GetOrders() ([]models.Order, error) {
	rows, err := database.OrderDesk.Query(`
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := itemsByOrder(ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func GetOrderByID(id uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(database.OrderDesk.QueryRow(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	items, err := itemsByOrder([]uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

// UpdateOrderStatus applies an already-validated transition and returns the
// fresh row. The write is conditional on the status the caller validated
// against, so two racing transitions cannot both win: the loser matches no
// row and gets sql.ErrNoRows. updated_at moves on every transition.
func UpdateOrderStatus(id uuid.UUID, from, to models.OrderStatus, driver *models.Driver) (*models.Order, error) {
	var driverName, driverPhone sql.NullString
	if driver != nil {
		driverName = sql.NullString{String: driver.Name, Valid: true}
		driverPhone = sql.NullString{String: driver.Phone, Valid: driver.Phone != ""}
	}

	o, err := scanOrder(database.OrderDesk.QueryRow(`
		UPDATE orders
		SET status = $2,
			driver_name = COALESCE($3, driver_name),
			driver_phone = COALESCE($4, driver_phone),
			updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING `+orderColumns, id, to, driverName, driverPhone, from))
	if err != nil {
		return nil, err
	}

	items, err := itemsByOrder([]uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

func itemsByOrder(ids []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	out := make(map[uuid.UUID][]models.OrderItem)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := database.OrderDesk.Query(`
		SELECT id, order_id, name, COALESCE(size, ''), price, quantity, modifiers
		FROM order_items
		WHERE order_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Name, &item.Size,
			&item.Price, &item.Quantity, pq.Array(&item.Modifiers)); err != nil {
			return nil, err
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, rows.Err()
}
