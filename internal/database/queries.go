package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, number, type, status, party_size, delivery_address,
			items, removed_items, subtotal, tax, service_charges, gratuity, discounts,
			tip, total, selected_discount_ids, selected_gratuity_id, table_id,
			table_number, customer, version)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, NULLIF($17, ''), NULLIF($18, ''), $19, $20, 1)
		RETURNING created_at, updated_at`

	orderColumns = `
		id, number, type, status, party_size, COALESCE(delivery_address, ''),
		items, removed_items, subtotal, tax, service_charges, gratuity, discounts,
		tip, total, selected_discount_ids, COALESCE(selected_gratuity_id, ''),
		COALESCE(table_id, ''), COALESCE(table_number, 0), customer,
		COALESCE(payment_method, ''), COALESCE(payment_status, ''),
		COALESCE(cash_received, 0), COALESCE(change_amount, 0), cancellation,
		version, created_at, updated_at`

	GetOrderSQL = `SELECT` + orderColumns + ` FROM orders WHERE id = $1`

	GetOrderByNumberSQL = `SELECT` + orderColumns + ` FROM orders WHERE number = $1`

	ListOrdersSQL = `SELECT` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1`

	// Full-document replace guarded by the version column. Zero rows affected
	// means a concurrent writer got there first.
	UpdateOrderSQL = `
		UPDATE orders SET
			status = $2, party_size = $3, delivery_address = NULLIF($4, ''),
			items = $5, removed_items = $6, subtotal = $7, tax = $8,
			service_charges = $9, gratuity = $10, discounts = $11, tip = $12,
			total = $13, selected_discount_ids = $14,
			selected_gratuity_id = NULLIF($15, ''), table_id = NULLIF($16, ''),
			table_number = $17, customer = $18, payment_method = NULLIF($19, ''),
			payment_status = NULLIF($20, ''), cash_received = $21,
			change_amount = $22, cancellation = $23,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $24`

	DeleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	NextOrderSequenceSQL = `
		SELECT COALESCE(MAX(CAST(SUBSTRING(number FROM 'ORD_[0-9]{8}_([0-9]{3})') AS INTEGER)), 0) + 1
		FROM orders
		WHERE number LIKE $1`
)

// Table queries
const (
	tableColumns = `
		id, number, name, capacity, status, COALESCE(current_order_id, ''),
		version, created_at, updated_at`

	GetTableSQL = `SELECT` + tableColumns + ` FROM tables WHERE id = $1`

	ListTablesSQL = `SELECT` + tableColumns + ` FROM tables ORDER BY number ASC`

	UpdateTableSQL = `
		UPDATE tables SET
			status = $2, current_order_id = NULLIF($3, ''),
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $4`
)

// Charge rule queries
const (
	ListActiveRulesSQL = `
		SELECT id, kind, name, active, magnitude_type, rate, order_types,
			minimum_order_amount, maximum_order_amount, applies_to_subtotal,
			party_size_minimum, requires_manager_approval, valid_from, valid_until,
			usage_count, usage_limit
		FROM charge_rules
		WHERE active = TRUE
		ORDER BY kind, name`

	IncrementDiscountUsageSQL = `
		UPDATE charge_rules SET usage_count = usage_count + 1
		WHERE id = ANY($1) AND kind = 'discount'`
)

// Catalog queries
const (
	GetMenuItemSQL = `SELECT id, name, price FROM menu_items WHERE id = $1`

	GetModifierSQL = `SELECT id, name, price, group_id FROM modifiers WHERE id = $1`
)

// Customer queries
const (
	FindCustomerByPhoneSQL = `
		SELECT id, name, phone, COALESCE(address, ''), total_orders, total_spent, last_order_at
		FROM customers WHERE phone = $1`

	UpsertCustomerSQL = `
		INSERT INTO customers (id, name, phone, address)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (phone) DO UPDATE SET
			name = EXCLUDED.name,
			address = COALESCE(EXCLUDED.address, customers.address)
		RETURNING id`

	// Stats are recomputed from the full paid-order set so the recompute is
	// idempotent rather than incremental.
	RecomputeCustomerStatsSQL = `
		UPDATE customers SET
			total_orders = stats.order_count,
			total_spent = stats.spend,
			last_order_at = stats.last_at
		FROM (
			SELECT COUNT(*) AS order_count,
				COALESCE(SUM(total), 0) AS spend,
				MAX(updated_at) AS last_at
			FROM orders
			WHERE status = 'paid' AND customer->>'customer_id' = $1
		) AS stats
		WHERE customers.id = $1`
)
