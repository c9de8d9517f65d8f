package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WarehouseType is the customs/trade regime a record is held under.
type WarehouseType string

const (
	WarehouseGeneral WarehouseType = "general"
	WarehouseBonded  WarehouseType = "bonded"
)

// PackageSpec is the packaging unit for a stock record.
type PackageSpec string

const (
	Package820 PackageSpec = "820kg"
	Package750 PackageSpec = "750kg"
	Package25  PackageSpec = "25kg"
)

// StockGrade is the quality tier of stock; grade A and B of the same style are
// tracked separately and sum to the record's current stock.
type StockGrade string

const (
	GradeA StockGrade = "A"
	GradeB StockGrade = "B"
)

// InventoryKey uniquely identifies an inventory record. LineID 0 means the
// record is not scoped to a production line. Using a value type instead of a
// concatenated string key avoids silent mismatches from inconsistent formatting.
type InventoryKey struct {
	StyleNo       string        `json:"style_no"`
	WarehouseType WarehouseType `json:"warehouse_type"`
	PackageSpec   PackageSpec   `json:"package_spec"`
	LineID        int           `json:"line_id,omitempty"`
}

func (k InventoryKey) String() string {
	if k.LineID == 0 {
		return fmt.Sprintf("%s/%s/%s", k.StyleNo, k.WarehouseType, k.PackageSpec)
	}
	return fmt.Sprintf("%s/%s/%s/line-%d", k.StyleNo, k.WarehouseType, k.PackageSpec, k.LineID)
}

// Validate checks the enum fields. StyleNo is free-form but required.
func (k InventoryKey) Validate() error {
	if k.StyleNo == "" {
		return fmt.Errorf("%w: style number is required", ErrValidation)
	}
	switch k.WarehouseType {
	case WarehouseGeneral, WarehouseBonded:
	default:
		return fmt.Errorf("%w: unknown warehouse type %q", ErrValidation, k.WarehouseType)
	}
	switch k.PackageSpec {
	case Package820, Package750, Package25:
	default:
		return fmt.Errorf("%w: unknown package spec %q", ErrValidation, k.PackageSpec)
	}
	if k.LineID < 0 {
		return fmt.Errorf("%w: line id cannot be negative", ErrValidation)
	}
	return nil
}

// InventoryRecord is the current quantity state for one key tuple.
// CurrentStock is always grade A + grade B; it is recomputed on every write and
// never trusted independently. LockedForToday never exceeds CurrentStock.
type InventoryRecord struct {
	ID             int             `json:"id"`
	Key            InventoryKey    `json:"key"`
	GradeA         decimal.Decimal `json:"grade_a"`
	GradeB         decimal.Decimal `json:"grade_b"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	LockedForToday decimal.Decimal `json:"locked_for_today"`
	SafetyStock    decimal.Decimal `json:"safety_stock"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Available is the quantity not locked against future shipment.
func (r InventoryRecord) Available() decimal.Decimal {
	return r.CurrentStock.Sub(r.LockedForToday)
}

// TransactionType classifies a stock transaction. IN and ADJUST_IN count
// positive on replay, OUT and ADJUST_OUT negative.
type TransactionType string

const (
	TxIn        TransactionType = "IN"
	TxOut       TransactionType = "OUT"
	TxAdjustIn  TransactionType = "ADJUST_IN"
	TxAdjustOut TransactionType = "ADJUST_OUT"
)

// Signed returns the quantity with the replay sign for this transaction type.
func (t TransactionType) Signed(qty decimal.Decimal) decimal.Decimal {
	if t == TxOut || t == TxAdjustOut {
		return qty.Neg()
	}
	return qty
}

// StockTransaction is one immutable entry in the append-only transaction
// ledger. Balance is the record's current_stock after the operation; replaying
// a tuple's entries in creation order reproduces its current stock.
type StockTransaction struct {
	ID        int             `json:"id"`
	Key       InventoryKey    `json:"key"`
	Type      TransactionType `json:"type"`
	Grade     StockGrade      `json:"grade"`
	Quantity  decimal.Decimal `json:"quantity"`
	Balance   decimal.Decimal `json:"balance"`
	Source    string          `json:"source"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

// SourceProduction marks stock-ins that consume a line's pending export
// capacity; other sources are free-form ("purchase", "return", ...).
const SourceProduction = "production"

// AuditLogEntry records the state snapshot around an administrative action
// (adjust, lock, unlock). Distinct from the transaction ledger, which records
// quantity flow.
type AuditLogEntry struct {
	ID           int             `json:"id"`
	Key          InventoryKey    `json:"key"`
	Action       string          `json:"action"` // "adjust", "lock", "unlock"
	BeforeGradeA decimal.Decimal `json:"before_grade_a"`
	BeforeGradeB decimal.Decimal `json:"before_grade_b"`
	AfterGradeA  decimal.Decimal `json:"after_grade_a"`
	AfterGradeB  decimal.Decimal `json:"after_grade_b"`
	Reason       string          `json:"reason"`
	Actor        string          `json:"actor"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StockAlert is a freshly derived safety-stock breach. Alerts are never
// persisted; fixing the underlying stock is the only way to clear one.
type StockAlert struct {
	Key          InventoryKey    `json:"key"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	SafetyStock  decimal.Decimal `json:"safety_stock"`
	Shortage     decimal.Decimal `json:"shortage"`
}
