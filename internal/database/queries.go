package database

// Order queries
const (
	// AdvisoryXactLockSQL serializes gap-filling id allocation across
	// concurrent order creations without locking the orders table.
	AdvisoryXactLockSQL = `SELECT pg_advisory_xact_lock($1)`

	SelectOrderIDsSQL = `SELECT id FROM orders ORDER BY id`

	InsertOrderSQL = `
		INSERT INTO orders (id, customer_name, total_price, status, order_type, payment_method,
			table_number, needs_assistance, note, customer_email, email_receipt, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	orderColumns = `id, customer_name, total_price, status, order_type, payment_method,
			table_number, needs_assistance, note, customer_email, email_receipt,
			payment_status, qr_code_data, created_at`

	GetOrderSQL = `
		SELECT ` + orderColumns + `
		FROM orders WHERE id = $1`

	GetOrderForUpdateSQL = GetOrderSQL + ` FOR UPDATE`

	ListOrdersSQL = `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC, id DESC`

	ListOrdersByStatusSQL = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = ANY($1)
		ORDER BY created_at DESC, id DESC`

	UpdateOrderStatusSQL = `
		UPDATE orders
		SET status = $1,
			qr_code_data = $2,
			table_number = CASE WHEN $3 THEN NULL ELSE table_number END,
			updated_at = NOW()
		WHERE id = $4`

	UpdateOrderDetailsSQL = `
		UPDATE orders
		SET customer_name = $1,
			total_price = $2,
			needs_assistance = $3,
			note = $4,
			table_number = $5,
			updated_at = NOW()
		WHERE id = $6`

	DeleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	InsertOrderLineSQL = `
		INSERT INTO order_items (order_id, product_id, quantity, selected_options)
		VALUES ($1, $2, $3, $4)`

	DeleteOrderLinesSQL = `DELETE FROM order_items WHERE order_id = $1`

	SelectOrderLinesSQL = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.selected_options, p.name, p.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`
)

// Catalog queries
const (
	SelectProductPriceSQL = `SELECT price FROM products WHERE id = $1`
)

// Table queries
const (
	// LockTablesSQL locks the whole roster for the reservation decision.
	// The roster is a small, provisioning-time set; locking rows in id
	// order keeps concurrent reservations deadlock-free.
	LockTablesSQL = `
		SELECT id, number, display_name, occupied, current_order_id, created_at, updated_at
		FROM tables
		ORDER BY id
		FOR UPDATE`

	SetTableOccupancySQL = `
		UPDATE tables
		SET occupied = $1, current_order_id = $2, updated_at = NOW()
		WHERE id = $3`

	ListTablesSQL = `
		SELECT id, number, display_name, occupied, current_order_id, created_at, updated_at
		FROM tables
		ORDER BY length(number), number`

	TablesOverviewSQL = `
		SELECT t.number, t.display_name, t.occupied, t.current_order_id,
			o.status, o.customer_name, o.total_price, o.payment_status
		FROM tables t
		LEFT JOIN orders o ON o.id = t.current_order_id
		ORDER BY length(t.number), t.number`

	UpsertTableSQL = `
		INSERT INTO tables (number, display_name)
		VALUES ($1, $2)
		ON CONFLICT (number) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = NOW()`
)
