package app

import (
	"context"
	"fmt"
	"time"

	"prodsales-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool   *pgxpool.Pool
	inv    core.InventoryService
	lines  core.LineService
	orders core.OrderService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	inv core.InventoryService,
	lines core.LineService,
	orders core.OrderService,
) ApplicationService {
	return &appService{
		pool:   pool,
		inv:    inv,
		lines:  lines,
		orders: orders,
	}
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) ListInventory(ctx context.Context, req InventoryFilterRequest) (*InventoryListResult, error) {
	records, err := s.inv.GetRecords(ctx, core.RecordFilter{
		StyleNo:       req.StyleNo,
		WarehouseType: core.WarehouseType(req.WarehouseType),
		PackageSpec:   core.PackageSpec(req.PackageSpec),
		LineID:        req.LineID,
	})
	if err != nil {
		return nil, err
	}
	return &InventoryListResult{Records: records}, nil
}

func (s *appService) StockIn(ctx context.Context, req StockMoveRequest) (*BalanceResult, error) {
	key := req.Key.toKey()
	balance, err := s.inv.StockIn(ctx, key, req.Quantity, core.StockGrade(req.Grade), req.Source, req.Note)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Key: key, Balance: balance}, nil
}

func (s *appService) StockOut(ctx context.Context, req StockMoveRequest) (*BalanceResult, error) {
	key := req.Key.toKey()
	balance, err := s.inv.StockOut(ctx, key, req.Quantity, core.StockGrade(req.Grade), req.Source, req.Note)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Key: key, Balance: balance}, nil
}

func (s *appService) AdjustStock(ctx context.Context, req AdjustRequest) (*BalanceResult, error) {
	key := req.Key.toKey()
	balance, err := s.inv.Adjust(ctx, key, req.GradeA, req.GradeB, req.Reason, req.Actor)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Key: key, Balance: balance}, nil
}

func (s *appService) LockStock(ctx context.Context, req LockRequest) (*BalanceResult, error) {
	key := req.Key.toKey()
	locked, err := s.inv.Lock(ctx, key, req.Quantity, req.Reason, req.Actor)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Key: key, Balance: locked}, nil
}

func (s *appService) UnlockStock(ctx context.Context, req LockRequest) (*BalanceResult, error) {
	key := req.Key.toKey()
	locked, err := s.inv.Unlock(ctx, key, req.Quantity, req.Reason, req.Actor)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Key: key, Balance: locked}, nil
}

func (s *appService) SetSafetyStock(ctx context.Context, req SafetyStockRequest) error {
	return s.inv.SetSafetyStock(ctx, req.Key.toKey(), req.Threshold)
}

func (s *appService) ListAlerts(ctx context.Context) (*AlertListResult, error) {
	alerts, err := s.inv.GetAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return &AlertListResult{Alerts: alerts}, nil
}

func (s *appService) ListTransactions(ctx context.Context, req TransactionFilterRequest) (*TransactionListResult, error) {
	q := core.TransactionQuery{
		StyleNo:       req.StyleNo,
		WarehouseType: core.WarehouseType(req.WarehouseType),
		PackageSpec:   core.PackageSpec(req.PackageSpec),
		LineID:        req.LineID,
		Type:          core.TransactionType(req.Type),
		Limit:         req.Limit,
		Offset:        req.Offset,
	}
	var err error
	if q.From, err = parseDate(req.From); err != nil {
		return nil, err
	}
	if q.To, err = parseDate(req.To); err != nil {
		return nil, err
	}

	entries, total, err := s.inv.GetTransactions(ctx, q)
	if err != nil {
		return nil, err
	}
	return &TransactionListResult{Entries: entries, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *appService) ListAuditLogs(ctx context.Context, limit, offset int) (*AuditLogListResult, error) {
	entries, err := s.inv.GetAuditLogs(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &AuditLogListResult{Entries: entries}, nil
}

// ── Production lines ──────────────────────────────────────────────────────────

func (s *appService) ListLines(ctx context.Context) (*LineListResult, error) {
	lines, err := s.lines.GetLines(ctx)
	if err != nil {
		return nil, err
	}
	return &LineListResult{Lines: lines}, nil
}

func (s *appService) GetLine(ctx context.Context, lineID int) (*LineResult, error) {
	line, err := s.lines.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	return &LineResult{Line: line}, nil
}

func (s *appService) CreateLine(ctx context.Context, req LineRequest) (*LineResult, error) {
	line, err := s.lines.CreateLine(ctx, toLineInput(req))
	if err != nil {
		return nil, err
	}
	return &LineResult{Line: line}, nil
}

func (s *appService) UpdateLine(ctx context.Context, lineID int, req LineRequest) (*LineResult, error) {
	line, err := s.lines.UpdateLine(ctx, lineID, toLineInput(req))
	if err != nil {
		return nil, err
	}
	return &LineResult{Line: line}, nil
}

func toLineInput(req LineRequest) core.LineInput {
	in := core.LineInput{
		Name:           req.Name,
		Status:         core.LineStatus(req.Status),
		CurrentStyle:   req.CurrentStyle,
		DailyCapacity:  req.DailyCapacity,
		ExportCapacity: req.ExportCapacity,
	}
	for _, sub := range req.SubLines {
		in.SubLines = append(in.SubLines, core.SubLineInput{
			Name:           sub.Name,
			CurrentStyle:   sub.CurrentStyle,
			DailyCapacity:  sub.DailyCapacity,
			ExportCapacity: sub.ExportCapacity,
		})
	}
	return in
}

func (s *appService) StyleCapacity(ctx context.Context, styleNo string) (*core.StyleCapacity, error) {
	if styleNo == "" {
		return nil, fmt.Errorf("%w: style number is required", core.ErrValidation)
	}
	return s.lines.CapacityForStyle(ctx, styleNo)
}

func (s *appService) PendingStockIn(ctx context.Context) (*PendingStockInResult, error) {
	items, err := s.lines.PendingStockIn(ctx)
	if err != nil {
		return nil, err
	}
	return &PendingStockInResult{Items: items}, nil
}

func (s *appService) ConfirmProduction(ctx context.Context, req ConfirmProductionRequest) (*BalanceResult, error) {
	balance, err := s.lines.ConfirmProduction(ctx, req.LineID, req.SubLineID,
		core.WarehouseType(req.WarehouseType), core.PackageSpec(req.PackageSpec), core.StockGrade(req.Grade))
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Balance: balance}, nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *appService) ListOrders(ctx context.Context, status string) (*OrderListResult, error) {
	var statusPtr *core.OrderStatus
	if status != "" {
		st := core.OrderStatus(status)
		statusPtr = &st
	}
	orders, err := s.orders.GetOrders(ctx, statusPtr)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) GetOrder(ctx context.Context, orderID int) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	order, err := s.orders.CreateOrder(ctx, core.OrderInput{
		OrderNo:   req.OrderNo,
		Customer:  req.Customer,
		StyleNo:   req.StyleNo,
		TotalTons: req.TotalTons,
		TradeType: core.WarehouseType(req.TradeType),
		LineIDs:   req.LineIDs,
	})
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, orderID int, status string) (*OrderResult, error) {
	order, decision, err := s.orders.UpdateStatus(ctx, orderID, core.OrderStatus(status))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order, Decision: decision}, nil
}

func (s *appService) SetAllocation(ctx context.Context, req AllocationRequest) (*OrderResult, error) {
	order, err := s.orders.SetAllocation(ctx, req.OrderID, req.General, req.Bonded)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ClearAllocation(ctx context.Context, orderID int) (*OrderResult, error) {
	order, err := s.orders.ClearAllocation(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetFulfillment(ctx context.Context, orderID int) (*core.FulfillmentResult, error) {
	return s.orders.Fulfillment(ctx, orderID)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", core.ErrValidation, s)
	}
	return t, nil
}
