package core_test

import (
	"context"
	"errors"
	"testing"

	"prodsales-backend/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func setupOrderServices(t *testing.T) (core.OrderService, core.InventoryService, core.LineService, *pgxpool.Pool, context.Context) {
	t.Helper()
	pool, ctx := setupTestDB(t)
	inv := core.NewInventoryService(pool)
	lines := core.NewLineService(pool, inv)
	orders := core.NewOrderService(pool, inv, lines)
	return orders, inv, lines, pool, ctx
}

func createTestOrder(t *testing.T, ctx context.Context, orders core.OrderService, tons float64, trade core.WarehouseType) *core.Order {
	t.Helper()
	order, err := orders.CreateOrder(ctx, core.OrderInput{
		OrderNo:   "SO-1001",
		Customer:  "Jiangsu Export Co",
		StyleNo:   "BE3250",
		TotalTons: decimal.NewFromFloat(tons),
		TradeType: trade,
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	return order
}

func bondedKey(style string) core.InventoryKey {
	return core.InventoryKey{
		StyleNo:       style,
		WarehouseType: core.WarehouseBonded,
		PackageSpec:   core.Package820,
	}
}

func TestOrder_CreateValidation(t *testing.T) {
	orders, _, _, _, ctx := setupOrderServices(t)

	_, err := orders.CreateOrder(ctx, core.OrderInput{
		OrderNo:   "SO-1",
		StyleNo:   "BE3250",
		TotalTons: decimal.Zero,
		TradeType: core.WarehouseGeneral,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for zero tons, got %v", err)
	}

	_, err = orders.CreateOrder(ctx, core.OrderInput{
		OrderNo:   "SO-1",
		StyleNo:   "BE3250",
		TotalTons: decimal.NewFromInt(10),
		TradeType: "offshore",
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for bad trade type, got %v", err)
	}
}

// 100t bonded order against 40t bonded stock plus 30t export capacity is 70%
// fulfillable, so the transition into ReadyToShip is declined without state change.
func TestOrder_StatusGateDeclinesShortfall(t *testing.T) {
	orders, inv, lines, _, ctx := setupOrderServices(t)
	order := createTestOrder(t, ctx, orders, 100, core.WarehouseBonded)

	if _, err := inv.StockIn(ctx, bondedKey("BE3250"), decimal.NewFromInt(40), core.GradeA, "purchase", ""); err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}
	_, err := lines.CreateLine(ctx, core.LineInput{
		Name:           "Line 1",
		Status:         core.LineRunning,
		CurrentStyle:   "BE3250",
		DailyCapacity:  decimal.NewFromInt(50),
		ExportCapacity: decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("CreateLine failed: %v", err)
	}

	result, err := orders.Fulfillment(ctx, order.ID)
	if err != nil {
		t.Fatalf("Fulfillment failed: %v", err)
	}
	if result.Percent != 70 || !result.IsShortage {
		t.Errorf("Expected 70%% shortage, got %v / %v", result.Percent, result.IsShortage)
	}

	updated, decision, err := orders.UpdateStatus(ctx, order.ID, core.OrderReadyToShip)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if decision.Applied {
		t.Error("Expected the transition to be declined")
	}
	if decision.Reason == "" {
		t.Error("Declined decision must carry a user-facing reason")
	}
	if updated.Status != core.OrderPending {
		t.Errorf("Declined transition changed status to %s", updated.Status)
	}

	// Inventory untouched by the declined attempt.
	rec, err := inv.GetRecord(ctx, bondedKey("BE3250"))
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if !rec.CurrentStock.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Declined transition mutated inventory: %s", rec.CurrentStock)
	}
}

func TestOrder_ShipDeductsInventory(t *testing.T) {
	orders, inv, _, _, ctx := setupOrderServices(t)
	order := createTestOrder(t, ctx, orders, 60, core.WarehouseBonded)

	key := bondedKey("BE3250")
	if _, err := inv.StockIn(ctx, key, decimal.NewFromInt(50), core.GradeA, "purchase", ""); err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}
	if _, err := inv.StockIn(ctx, key, decimal.NewFromInt(30), core.GradeB, "purchase", ""); err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}

	updated, decision, err := orders.UpdateStatus(ctx, order.ID, core.OrderShipped)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if !decision.Applied || updated.Status != core.OrderShipped {
		t.Fatalf("Expected shipped, got applied=%v status=%s", decision.Applied, updated.Status)
	}
	if updated.ShippedAt == nil {
		t.Error("Shipped order must carry shipped_at")
	}

	// Grade A drains first (50), remainder from grade B (10).
	rec, err := inv.GetRecord(ctx, key)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if !rec.GradeA.IsZero() || !rec.GradeB.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected grades 0/20 after shipment, got %s/%s", rec.GradeA, rec.GradeB)
	}

	// Shipped is final.
	_, _, err = orders.UpdateStatus(ctx, order.ID, core.OrderPending)
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation when leaving Shipped, got %v", err)
	}
}

// Capacity can satisfy the gate, but shipping still needs physical stock: the
// transition into Shipped aborts wholesale when the warehouse cannot cover it.
func TestOrder_ShipAbortsOnInsufficientStock(t *testing.T) {
	orders, inv, lines, _, ctx := setupOrderServices(t)
	order := createTestOrder(t, ctx, orders, 50, core.WarehouseBonded)

	if _, err := inv.StockIn(ctx, bondedKey("BE3250"), decimal.NewFromInt(10), core.GradeA, "purchase", ""); err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}
	_, err := lines.CreateLine(ctx, core.LineInput{
		Name:           "Line 1",
		Status:         core.LineRunning,
		CurrentStyle:   "BE3250",
		DailyCapacity:  decimal.NewFromInt(60),
		ExportCapacity: decimal.NewFromInt(45),
	})
	if err != nil {
		t.Fatalf("CreateLine failed: %v", err)
	}

	_, _, err = orders.UpdateStatus(ctx, order.ID, core.OrderShipped)
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}

	// Aborted transition left both status and stock untouched.
	reloaded, err := orders.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if reloaded.Status != core.OrderPending {
		t.Errorf("Aborted shipment changed status to %s", reloaded.Status)
	}
	rec, err := inv.GetRecord(ctx, bondedKey("BE3250"))
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if !rec.CurrentStock.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Aborted shipment mutated inventory: %s", rec.CurrentStock)
	}
}

func TestOrder_ShipSplitsAcrossRegimes(t *testing.T) {
	orders, inv, _, _, ctx := setupOrderServices(t)
	order := createTestOrder(t, ctx, orders, 100, core.WarehouseBonded)

	generalKey := testKey("BE3250")
	if _, err := inv.StockIn(ctx, generalKey, decimal.NewFromInt(70), core.GradeA, "purchase", ""); err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}
	if _, err := inv.StockIn(ctx, bondedKey("BE3250"), decimal.NewFromInt(40), core.GradeA, "purchase", ""); err != nil {
		t.Fatalf("StockIn failed: %v", err)
	}

	if _, err := orders.SetAllocation(ctx, order.ID, decimal.NewFromInt(60), decimal.NewFromInt(40)); err != nil {
		t.Fatalf("SetAllocation failed: %v", err)
	}

	updated, decision, err := orders.UpdateStatus(ctx, order.ID, core.OrderShipped)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if !decision.Applied || updated.Status != core.OrderShipped {
		t.Fatalf("Expected shipped, got applied=%v status=%s", decision.Applied, updated.Status)
	}

	general, err := inv.GetRecord(ctx, generalKey)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	bonded, err := inv.GetRecord(ctx, bondedKey("BE3250"))
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if !general.CurrentStock.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected 10t left in general, got %s", general.CurrentStock)
	}
	if !bonded.CurrentStock.IsZero() {
		t.Errorf("Expected bonded drained, got %s", bonded.CurrentStock)
	}
}

func TestOrder_SetAllocationValidatesSum(t *testing.T) {
	orders, _, _, _, ctx := setupOrderServices(t)
	order := createTestOrder(t, ctx, orders, 100, core.WarehouseGeneral)

	_, err := orders.SetAllocation(ctx, order.ID, decimal.NewFromInt(60), decimal.NewFromInt(30))
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for bad sum, got %v", err)
	}

	// Over-committed against stock is fine here; the calculator surfaces it.
	updated, err := orders.SetAllocation(ctx, order.ID, decimal.NewFromInt(60), decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("SetAllocation failed: %v", err)
	}
	if updated.Allocation == nil || !updated.Allocation.General.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Allocation not persisted: %+v", updated.Allocation)
	}

	cleared, err := orders.ClearAllocation(ctx, order.ID)
	if err != nil {
		t.Fatalf("ClearAllocation failed: %v", err)
	}
	if cleared.Allocation != nil {
		t.Errorf("Expected allocation cleared, got %+v", cleared.Allocation)
	}
}

func TestOrder_IntermediateTransitionsUngated(t *testing.T) {
	orders, _, _, _, ctx := setupOrderServices(t)
	order := createTestOrder(t, ctx, orders, 100, core.WarehouseGeneral)

	// No stock anywhere; non-gated transitions still proceed.
	for _, next := range []core.OrderStatus{core.OrderConfirmed, core.OrderInProduction} {
		updated, decision, err := orders.UpdateStatus(ctx, order.ID, next)
		if err != nil {
			t.Fatalf("UpdateStatus(%s) failed: %v", next, err)
		}
		if !decision.Applied || updated.Status != next {
			t.Errorf("Expected %s applied, got applied=%v status=%s", next, decision.Applied, updated.Status)
		}
	}
}
