package core_test

import (
	"testing"

	"prodsales-backend/internal/core"

	"github.com/shopspring/decimal"
)

func record(style string, wh core.WarehouseType, spec core.PackageSpec, lineID int, gradeA, gradeB, locked float64) core.InventoryRecord {
	a := decimal.NewFromFloat(gradeA)
	b := decimal.NewFromFloat(gradeB)
	return core.InventoryRecord{
		Key:            core.InventoryKey{StyleNo: style, WarehouseType: wh, PackageSpec: spec, LineID: lineID},
		GradeA:         a,
		GradeB:         b,
		CurrentStock:   a.Add(b),
		LockedForToday: decimal.NewFromFloat(locked),
	}
}

func runningLine(id int, name, style string, daily, export float64) core.ProductLine {
	return core.ProductLine{
		ID:             id,
		Name:           name,
		Status:         core.LineRunning,
		CurrentStyle:   style,
		DailyCapacity:  decimal.NewFromFloat(daily),
		ExportCapacity: decimal.NewFromFloat(export),
	}
}

func pendingOrder(style string, tons float64, trade core.WarehouseType, lineIDs string) core.Order {
	return core.Order{
		ID:        1,
		OrderNo:   "SO-1",
		StyleNo:   style,
		TotalTons: decimal.NewFromFloat(tons),
		TradeType: trade,
		LineIDs:   lineIDs,
		Status:    core.OrderPending,
	}
}

// Bonded order for 100t, 40t unlocked bonded stock, one running line with 30t
// export capacity: 70% fulfillable, shortage.
func TestCalculateFulfillment_StockPlusCapacity(t *testing.T) {
	order := pendingOrder("BE3250", 100, core.WarehouseBonded, "")
	records := []core.InventoryRecord{
		record("BE3250", core.WarehouseBonded, core.Package820, 0, 40, 0, 0),
	}
	lines := []core.ProductLine{runningLine(1, "Line 1", "BE3250", 50, 30)}

	result := core.CalculateFulfillment(order, records, lines)
	if result.Percent != 70 {
		t.Errorf("Expected percent=70, got %v", result.Percent)
	}
	if !result.IsShortage {
		t.Error("Expected shortage")
	}
	if !result.Breakdown.TotalAvailable.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Expected total available 70, got %s", result.Breakdown.TotalAvailable)
	}
}

func TestCalculateFulfillment_LockedStockExcluded(t *testing.T) {
	order := pendingOrder("BE3250", 50, core.WarehouseGeneral, "")
	records := []core.InventoryRecord{
		record("BE3250", core.WarehouseGeneral, core.Package820, 0, 60, 0, 20),
	}

	result := core.CalculateFulfillment(order, records, nil)
	if !result.Breakdown.AvailableStock.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected available=40 (60 - 20 locked), got %s", result.Breakdown.AvailableStock)
	}
	if result.Percent != 80 {
		t.Errorf("Expected percent=80, got %v", result.Percent)
	}
}

func TestCalculateFulfillment_WrongRegimeIgnored(t *testing.T) {
	order := pendingOrder("BE3250", 100, core.WarehouseBonded, "")
	records := []core.InventoryRecord{
		record("BE3250", core.WarehouseGeneral, core.Package820, 0, 500, 0, 0),
	}

	result := core.CalculateFulfillment(order, records, nil)
	if result.Percent != 0 {
		t.Errorf("Expected percent=0 (stock is in the other regime), got %v", result.Percent)
	}
	if !result.IsShortage {
		t.Error("Expected shortage")
	}
}

func TestCalculateFulfillment_LineRestriction(t *testing.T) {
	order := pendingOrder("BE3250", 100, core.WarehouseGeneral, "1/3")
	records := []core.InventoryRecord{
		record("BE3250", core.WarehouseGeneral, core.Package820, 1, 30, 0, 0),
		record("BE3250", core.WarehouseGeneral, core.Package820, 2, 500, 0, 0), // outside line set
		record("BE3250", core.WarehouseGeneral, core.Package750, 0, 10, 0, 0), // unscoped, serves any order
	}
	lines := []core.ProductLine{
		runningLine(1, "Line 1", "BE3250", 40, 20),
		runningLine(2, "Line 2", "BE3250", 40, 35), // outside line set
	}

	result := core.CalculateFulfillment(order, records, lines)
	// 30 (line 1) + 10 (unscoped) + 20 (line 1 export) = 60
	if !result.Breakdown.TotalAvailable.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected total available 60, got %s", result.Breakdown.TotalAvailable)
	}
}

func TestCalculateFulfillment_AllocationSplitsAcrossRegimes(t *testing.T) {
	order := pendingOrder("BE3250", 100, core.WarehouseBonded, "")
	order.Allocation = &core.WarehouseAllocation{
		General: decimal.NewFromInt(60),
		Bonded:  decimal.NewFromInt(40),
	}
	records := []core.InventoryRecord{
		record("BE3250", core.WarehouseGeneral, core.Package820, 0, 100, 0, 0), // counted only up to 60
		record("BE3250", core.WarehouseBonded, core.Package820, 0, 25, 0, 0),
	}

	result := core.CalculateFulfillment(order, records, nil)
	// min(100, 60) + min(25, 40) = 85
	if !result.Breakdown.AvailableStock.Equal(decimal.NewFromInt(85)) {
		t.Errorf("Expected available=85, got %s", result.Breakdown.AvailableStock)
	}
	if result.Percent != 85 {
		t.Errorf("Expected percent=85, got %v", result.Percent)
	}
}

func TestCalculateFulfillment_SurplusExceeds100(t *testing.T) {
	order := pendingOrder("BE3250", 50, core.WarehouseGeneral, "")
	records := []core.InventoryRecord{
		record("BE3250", core.WarehouseGeneral, core.Package820, 0, 80, 0, 0),
	}

	result := core.CalculateFulfillment(order, records, nil)
	if result.Percent != 160 {
		t.Errorf("Expected percent=160 (surplus not capped), got %v", result.Percent)
	}
	if result.IsShortage {
		t.Error("Surplus must not report shortage")
	}
}

func TestCalculateFulfillment_TerminalStatesSkipRecomputation(t *testing.T) {
	for _, status := range []core.OrderStatus{core.OrderReadyToShip, core.OrderShipped} {
		order := pendingOrder("BE3250", 100, core.WarehouseBonded, "")
		order.Status = status

		// No stock at all: a terminal order still reports fulfilled.
		result := core.CalculateFulfillment(order, nil, nil)
		if result.Percent != 100 || result.IsShortage {
			t.Errorf("%s: expected 100%% / no shortage by convention, got %v / %v",
				status, result.Percent, result.IsShortage)
		}
	}
}

// Adding stock to a matching regime never lowers the percent; locking stock
// never raises it.
func TestCalculateFulfillment_Monotonicity(t *testing.T) {
	order := pendingOrder("BE3250", 100, core.WarehouseGeneral, "")
	base := []core.InventoryRecord{
		record("BE3250", core.WarehouseGeneral, core.Package820, 0, 30, 10, 0),
	}
	baseline := core.CalculateFulfillment(order, base, nil)

	more := append([]core.InventoryRecord{}, base...)
	more[0].GradeA = more[0].GradeA.Add(decimal.NewFromInt(25))
	more[0].CurrentStock = more[0].GradeA.Add(more[0].GradeB)
	increased := core.CalculateFulfillment(order, more, nil)
	if increased.Percent < baseline.Percent {
		t.Errorf("More stock lowered percent: %v -> %v", baseline.Percent, increased.Percent)
	}

	locked := append([]core.InventoryRecord{}, base...)
	locked[0].LockedForToday = decimal.NewFromInt(15)
	withLock := core.CalculateFulfillment(order, locked, nil)
	if withLock.Percent > baseline.Percent {
		t.Errorf("More locked stock raised percent: %v -> %v", baseline.Percent, withLock.Percent)
	}
}
