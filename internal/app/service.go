package app

import (
	"context"

	"prodsales-backend/internal/core"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from business logic. Implementations must contain
// no HTTP types and no display logic of any kind.
type ApplicationService interface {
	// ListInventory returns inventory records matching the filter.
	ListInventory(ctx context.Context, req InventoryFilterRequest) (*InventoryListResult, error)

	// StockIn books incoming stock against one key tuple.
	StockIn(ctx context.Context, req StockMoveRequest) (*BalanceResult, error)

	// StockOut books outgoing stock; the availability check is per grade.
	StockOut(ctx context.Context, req StockMoveRequest) (*BalanceResult, error)

	// AdjustStock overwrites both grade quantities after a stocktake.
	AdjustStock(ctx context.Context, req AdjustRequest) (*BalanceResult, error)

	// LockStock reserves quantity against future shipment.
	LockStock(ctx context.Context, req LockRequest) (*BalanceResult, error)

	// UnlockStock releases a reservation, clamped at zero.
	UnlockStock(ctx context.Context, req LockRequest) (*BalanceResult, error)

	// SetSafetyStock updates one tuple's alert threshold.
	SetSafetyStock(ctx context.Context, req SafetyStockRequest) error

	// ListAlerts derives current safety-stock breaches.
	ListAlerts(ctx context.Context) (*AlertListResult, error)

	// ListTransactions pages through the append-only ledger, newest first.
	ListTransactions(ctx context.Context, req TransactionFilterRequest) (*TransactionListResult, error)

	// ListAuditLogs pages through the administrative audit log.
	ListAuditLogs(ctx context.Context, limit, offset int) (*AuditLogListResult, error)

	// ListLines returns all production lines with their sub-lines.
	ListLines(ctx context.Context) (*LineListResult, error)

	GetLine(ctx context.Context, lineID int) (*LineResult, error)
	CreateLine(ctx context.Context, req LineRequest) (*LineResult, error)
	UpdateLine(ctx context.Context, lineID int, req LineRequest) (*LineResult, error)

	// StyleCapacity aggregates running-line capacity feeding one style.
	StyleCapacity(ctx context.Context, styleNo string) (*core.StyleCapacity, error)

	// PendingStockIn lists completed production awaiting warehouse confirmation.
	PendingStockIn(ctx context.Context) (*PendingStockInResult, error)

	// ConfirmProduction consumes one pending item: capacity reset and stock-in
	// happen in a single transaction.
	ConfirmProduction(ctx context.Context, req ConfirmProductionRequest) (*BalanceResult, error)

	// ListOrders returns orders, optionally filtered by status.
	ListOrders(ctx context.Context, status string) (*OrderListResult, error)

	GetOrder(ctx context.Context, orderID int) (*OrderResult, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// UpdateOrderStatus attempts a lifecycle transition. A gate failure is a
	// declined decision in the result, not an error.
	UpdateOrderStatus(ctx context.Context, orderID int, status string) (*OrderResult, error)

	// SetAllocation splits an order's demand between warehouse regimes.
	SetAllocation(ctx context.Context, req AllocationRequest) (*OrderResult, error)

	// ClearAllocation restores the default single-regime assumption.
	ClearAllocation(ctx context.Context, orderID int) (*OrderResult, error)

	// GetFulfillment recomputes an order's fulfillment from current state.
	GetFulfillment(ctx context.Context, orderID int) (*core.FulfillmentResult, error)
}
