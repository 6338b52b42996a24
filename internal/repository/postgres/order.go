package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/repository"
	"github.com/utafrali/cartql/pkg/database"
	apperrors "github.com/utafrali/cartql/pkg/errors"
)

const uniqueViolation = "23505"

const orderColumns = `id, cart_id, email, status, currency, sub_total, shipping_total, tax_total,
	grand_total, total_items, total_unique_items, shipping_address, billing_address,
	notes, attributes, metadata, created_at, updated_at`

const insertOrderSQL = `
	INSERT INTO orders (` + orderColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

const insertOrderItemSQL = `
	INSERT INTO order_items (order_id, position, id, name, description, type, images, unit_total, quantity, attributes, metadata, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const selectOrderSQL = `
	SELECT
		o.id, o.cart_id, o.email, o.status, o.currency, o.sub_total, o.shipping_total, o.tax_total,
		o.grand_total, o.total_items, o.total_unique_items, o.shipping_address, o.billing_address,
		o.notes, o.attributes, o.metadata, o.created_at, o.updated_at,
		COALESCE(
			JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'id', oi.id,
					'name', oi.name,
					'description', oi.description,
					'type', oi.type,
					'images', oi.images,
					'unit_total', oi.unit_total,
					'quantity', oi.quantity,
					'attributes', oi.attributes,
					'metadata', oi.metadata,
					'created_at', oi.created_at,
					'updated_at', oi.updated_at
				) ORDER BY oi.position
			) FILTER (WHERE oi.id IS NOT NULL),
			'[]'::jsonb
		) AS items
	FROM orders o
	LEFT JOIN order_items oi ON o.id = oi.order_id
	WHERE o.id = $1
	GROUP BY o.id`

const selectItemsSQL = `
	SELECT order_id, id, name, description, type, images, unit_total, quantity, attributes, metadata, created_at, updated_at
	FROM order_items
	WHERE order_id = ANY($1)
	ORDER BY order_id, position`

const updateStatusSQL = `
	UPDATE orders
	SET status = $1, updated_at = $2
	WHERE id = $3 AND status = $4`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", insertOrderSQL)
	defer func() { end(err) }()

	currency, err := json.Marshal(o.Currency)
	if err != nil {
		return fmt.Errorf("marshal currency: %w", err)
	}
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}
	billing, err := json.Marshal(o.Billing)
	if err != nil {
		return fmt.Errorf("marshal billing address: %w", err)
	}
	attributes, err := marshalList(o.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID,
		o.CartID,
		o.Email,
		string(o.Status),
		currency,
		o.SubTotal,
		o.ShippingTotal,
		o.TaxTotal,
		o.GrandTotal,
		o.TotalItems,
		o.TotalUniqueItems,
		shipping,
		billing,
		o.Notes,
		attributes,
		nullableJSON(o.Metadata),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Conflict(fmt.Sprintf("order %s already exists", o.ID))
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		images, err := marshalList(item.Images)
		if err != nil {
			return fmt.Errorf("marshal item images: %w", err)
		}
		attrs, err := marshalList(item.Attributes)
		if err != nil {
			return fmt.Errorf("marshal item attributes: %w", err)
		}
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			o.ID,
			i,
			item.ID,
			item.Name,
			item.Description,
			string(item.Type),
			images,
			item.UnitTotal,
			item.Quantity,
			attrs,
			nullableJSON(item.Metadata),
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, loading its items in the same query.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrder", selectOrderSQL)
	defer func() { end(err) }()

	var (
		row       orderRow
		itemsJSON []byte
	)
	if err := r.pool.QueryRow(ctx, selectOrderSQL, id).Scan(append(row.dest(), &itemsJSON)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o, err := row.decode()
	if err != nil {
		return nil, err
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		normalizeItems(o.Items)
	}

	return o, nil
}

// List returns orders matching the given filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (_ []domain.Order, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.CartID != nil {
		conditions = append(conditions, fmt.Sprintf("cart_id = $%d", argIndex))
		args = append(args, *filter.CartID)
		argIndex++
	}
	if filter.Email != nil {
		conditions = append(conditions, fmt.Sprintf("email = $%d", argIndex))
		args = append(args, *filter.Email)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
			count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	limit, offset := filter.Limit()
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(append(row.dest(), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		o, err := row.decode()
		if err != nil {
			return nil, 0, err
		}
		o.Items = []domain.OrderItem{}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if len(orders) == 0 {
		return orders, totalCount, nil
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, totalCount, nil
}

// loadItems batch-loads the items of orders in one query.
func (r *OrderRepository) loadItems(ctx context.Context, orders []domain.Order) error {
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
	}

	rows, err := r.pool.Query(ctx, selectItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("batch load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID  string
			item     domain.OrderItem
			itemType string
			images   []byte
			attrs    []byte
			metadata []byte
		)
		if err := rows.Scan(
			&orderID,
			&item.ID,
			&item.Name,
			&item.Description,
			&itemType,
			&images,
			&item.UnitTotal,
			&item.Quantity,
			&attrs,
			&metadata,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.Type = domain.ItemType(itemType)
		if err := unmarshalList(images, &item.Images); err != nil {
			return fmt.Errorf("unmarshal item images: %w", err)
		}
		if err := unmarshalList(attrs, &item.Attributes); err != nil {
			return fmt.Errorf("unmarshal item attributes: %w", err)
		}
		item.Metadata = rawOrNil(metadata)

		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}
	return nil
}

// UpdateStatus sets the order status when it currently equals from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", updateStatusSQL)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, updateStatusSQL, string(to), at, id, string(from))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = r.pool.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", id)
		}
		return fmt.Errorf("read order status: %w", err)
	}
	return apperrors.Conflict(fmt.Sprintf("order %s is %s, expected %s", id, current, from))
}

// orderRow holds the scan targets for one orders row.
type orderRow struct {
	o          domain.Order
	status     string
	currency   []byte
	shipping   []byte
	billing    []byte
	attributes []byte
	metadata   []byte
}

func (r *orderRow) dest() []any {
	return []any{
		&r.o.ID,
		&r.o.CartID,
		&r.o.Email,
		&r.status,
		&r.currency,
		&r.o.SubTotal,
		&r.o.ShippingTotal,
		&r.o.TaxTotal,
		&r.o.GrandTotal,
		&r.o.TotalItems,
		&r.o.TotalUniqueItems,
		&r.shipping,
		&r.billing,
		&r.o.Notes,
		&r.attributes,
		&r.metadata,
		&r.o.CreatedAt,
		&r.o.UpdatedAt,
	}
}

func (r *orderRow) decode() (*domain.Order, error) {
	o := r.o
	o.Status = domain.OrderStatus(r.status)
	if err := json.Unmarshal(r.currency, &o.Currency); err != nil {
		return nil, fmt.Errorf("unmarshal currency: %w", err)
	}
	if err := json.Unmarshal(r.shipping, &o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(r.billing, &o.Billing); err != nil {
		return nil, fmt.Errorf("unmarshal billing address: %w", err)
	}
	if err := unmarshalList(r.attributes, &o.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	o.Metadata = rawOrNil(r.metadata)
	return &o, nil
}

// marshalList encodes a slice, writing [] for nil.
func marshalList[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// unmarshalList decodes a JSON array, leaving dst nil for empty input.
func unmarshalList[T any](data []byte, dst *[]T) error {
	if len(data) == 0 || string(data) == "null" || string(data) == "[]" {
		*dst = nil
		return nil
	}
	return json.Unmarshal(data, dst)
}

// normalizeItems maps the empty arrays and JSON nulls produced by
// JSONB_BUILD_OBJECT back to nil.
func normalizeItems(items []domain.OrderItem) {
	for i := range items {
		if len(items[i].Images) == 0 {
			items[i].Images = nil
		}
		if len(items[i].Attributes) == 0 {
			items[i].Attributes = nil
		}
		items[i].Metadata = rawOrNil(items[i].Metadata)
	}
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return json.RawMessage(b)
}
