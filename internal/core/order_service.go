package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService manages the order lifecycle, the warehouse allocation split,
// and fulfillment recomputation. Transitions into ReadyToShip/Shipped that
// fail the fulfillment gate come back as a declined StatusDecision, not an
// error — a frequent, expected outcome surfaced with a user-facing reason.
type OrderService interface {
	CreateOrder(ctx context.Context, input OrderInput) (*Order, error)
	GetOrder(ctx context.Context, orderID int) (*Order, error)
	GetOrders(ctx context.Context, status *OrderStatus) ([]Order, error)

	// UpdateStatus applies a user-driven transition, enforcing the fulfillment
	// gate and running the shipment stock-out atomically with the transition
	// into Shipped.
	UpdateStatus(ctx context.Context, orderID int, newStatus OrderStatus) (*Order, *StatusDecision, error)

	// SetAllocation splits the order's demand between warehouse regimes.
	// The split must sum to the order total within 0.01; available stock is
	// deliberately not checked here (the calculator surfaces over-commitment).
	SetAllocation(ctx context.Context, orderID int, general, bonded decimal.Decimal) (*Order, error)
	// ClearAllocation restores the default single-regime assumption.
	ClearAllocation(ctx context.Context, orderID int) (*Order, error)

	// Fulfillment recomputes the order's fulfillment from the current
	// inventory and line snapshot.
	Fulfillment(ctx context.Context, orderID int) (*FulfillmentResult, error)
}

// StatusDecision is the outcome of a transition attempt. A declined decision
// leaves the order and inventory untouched.
type StatusDecision struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// OrderInput carries the fields for order creation.
type OrderInput struct {
	OrderNo   string
	Customer  string
	StyleNo   string
	TotalTons decimal.Decimal
	TradeType WarehouseType
	LineIDs   string
}

type orderService struct {
	pool  *pgxpool.Pool
	inv   InventoryService
	lines LineService
}

func NewOrderService(pool *pgxpool.Pool, inv InventoryService, lines LineService) OrderService {
	return &orderService{pool: pool, inv: inv, lines: lines}
}

const orderColumns = `id, order_no, customer, style_no, total_tons, trade_type, line_ids,
	status, alloc_general, alloc_bonded, created_at, updated_at, shipped_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var allocGeneral, allocBonded *decimal.Decimal
	err := row.Scan(&o.ID, &o.OrderNo, &o.Customer, &o.StyleNo, &o.TotalTons, &o.TradeType, &o.LineIDs,
		&o.Status, &allocGeneral, &allocBonded, &o.CreatedAt, &o.UpdatedAt, &o.ShippedAt)
	if err != nil {
		return nil, err
	}
	if allocGeneral != nil && allocBonded != nil {
		o.Allocation = &WarehouseAllocation{General: *allocGeneral, Bonded: *allocBonded}
	}
	return &o, nil
}

func (s *orderService) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	if input.StyleNo == "" {
		return nil, fmt.Errorf("%w: style number is required", ErrValidation)
	}
	if !input.TotalTons.IsPositive() {
		return nil, fmt.Errorf("%w: order total must be positive, got %s tons", ErrValidation, input.TotalTons)
	}
	switch input.TradeType {
	case WarehouseGeneral, WarehouseBonded:
	default:
		return nil, fmt.Errorf("%w: unknown trade type %q", ErrValidation, input.TradeType)
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO orders (order_no, customer, style_no, total_tons, trade_type, line_ids, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, input.OrderNo, input.Customer, input.StyleNo, input.TotalTons, input.TradeType, input.LineIDs, OrderPending).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	return o, nil
}

func (s *orderService) GetOrders(ctx context.Context, status *OrderStatus) ([]Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	var args []any
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// UpdateStatus applies a user-driven transition. Orders never leave Shipped.
// Entering ReadyToShip or Shipped requires fulfillment percent >= 100; a
// shortfall declines the transition without touching anything. Entering
// Shipped deducts the order's tonnage per regime inside the same transaction,
// so insufficient stock at shipment time aborts the whole transition.
func (s *orderService) UpdateStatus(ctx context.Context, orderID int, newStatus OrderStatus) (*Order, *StatusDecision, error) {
	if !newStatus.valid() {
		return nil, nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, newStatus)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := scanOrder(tx.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	if order.Status == OrderShipped {
		return nil, nil, fmt.Errorf("%w: order %s is already shipped, its status is final", ErrValidation, order.OrderNo)
	}
	if order.Status == newStatus {
		return order, &StatusDecision{Applied: true}, nil
	}

	if newStatus.Gated() {
		result, err := s.fulfillmentFor(ctx, *order)
		if err != nil {
			return nil, nil, err
		}
		if result.Percent < 100 {
			// Declined, not an error: nothing changed, tell the user why.
			return order, &StatusDecision{
				Applied: false,
				Reason: fmt.Sprintf("order %s is only %.1f%% fulfillable (%s of %s tons); stock in or free up inventory first",
					order.OrderNo, result.Percent, result.Breakdown.TotalAvailable, order.TotalTons),
			}, nil
		}
	}

	if newStatus == OrderShipped {
		if err := s.shipOrderTx(ctx, tx, *order); err != nil {
			return nil, nil, err
		}
		_, err = tx.Exec(ctx,
			"UPDATE orders SET status = $1, shipped_at = NOW(), updated_at = NOW() WHERE id = $2",
			newStatus, orderID)
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
			newStatus, orderID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update order %d status: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit status change: %w", err)
	}

	updated, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return updated, &StatusDecision{Applied: true}, nil
}

// shipOrderTx deducts the order's tonnage from inventory within the caller's
// TX, split per the explicit allocation when present, else wholly from the
// regime matching the trade type.
func (s *orderService) shipOrderTx(ctx context.Context, tx pgx.Tx, order Order) error {
	type regimeDemand struct {
		regime WarehouseType
		qty    decimal.Decimal
	}
	var demands []regimeDemand
	if order.Allocation != nil {
		demands = []regimeDemand{
			{WarehouseGeneral, order.Allocation.General},
			{WarehouseBonded, order.Allocation.Bonded},
		}
	} else {
		demands = []regimeDemand{{order.TradeType, order.TotalTons}}
	}

	lineSet := ParseLineIDs(order.LineIDs)
	note := fmt.Sprintf("shipment for order %s", order.OrderNo)
	for _, d := range demands {
		if !d.qty.IsPositive() {
			continue
		}
		if err := s.inv.ShipStockTx(ctx, tx, order.StyleNo, d.regime, lineSet, d.qty, note); err != nil {
			return fmt.Errorf("shipment of order %s failed: %w", order.OrderNo, err)
		}
	}
	return nil
}

func (s *orderService) SetAllocation(ctx context.Context, orderID int, general, bonded decimal.Decimal) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := scanOrder(tx.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	if err := ValidateAllocation(order.TotalTons, general, bonded); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE orders SET alloc_general = $1, alloc_bonded = $2, updated_at = NOW() WHERE id = $3",
		general, bonded, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to set allocation for order %d: %w", orderID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit allocation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) ClearAllocation(ctx context.Context, orderID int) (*Order, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE orders SET alloc_general = NULL, alloc_bonded = NULL, updated_at = NOW() WHERE id = $1",
		orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear allocation for order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) Fulfillment(ctx context.Context, orderID int) (*FulfillmentResult, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.fulfillmentFor(ctx, *order)
}

// fulfillmentFor loads the inventory and line snapshot for the order's style
// and runs the pure calculator over it.
func (s *orderService) fulfillmentFor(ctx context.Context, order Order) (*FulfillmentResult, error) {
	records, err := s.inv.GetRecords(ctx, RecordFilter{StyleNo: order.StyleNo})
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory for fulfillment of order %s: %w", order.OrderNo, err)
	}
	lines, err := s.lines.GetLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for fulfillment of order %s: %w", order.OrderNo, err)
	}
	result := CalculateFulfillment(order, records, lines)
	return &result, nil
}
