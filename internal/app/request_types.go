package app

import (
	"github.com/shopspring/decimal"

	"prodsales-backend/internal/core"
)

// KeyInput carries the four fields naming an inventory record. LineID zero
// means the record is not scoped to a production line.
type KeyInput struct {
	StyleNo       string
	WarehouseType string
	PackageSpec   string
	LineID        int
}

func (k KeyInput) toKey() core.InventoryKey {
	return core.InventoryKey{
		StyleNo:       k.StyleNo,
		WarehouseType: core.WarehouseType(k.WarehouseType),
		PackageSpec:   core.PackageSpec(k.PackageSpec),
		LineID:        k.LineID,
	}
}

type InventoryFilterRequest struct {
	StyleNo       string
	WarehouseType string
	PackageSpec   string
	LineID        int
}

// StockMoveRequest is shared by stock-in and stock-out.
type StockMoveRequest struct {
	Key      KeyInput
	Quantity decimal.Decimal
	Grade    string
	Source   string
	Note     string
}

type AdjustRequest struct {
	Key    KeyInput
	GradeA decimal.Decimal
	GradeB decimal.Decimal
	Reason string
	Actor  string
}

// LockRequest is shared by lock and unlock.
type LockRequest struct {
	Key      KeyInput
	Quantity decimal.Decimal
	Reason   string
	Actor    string
}

type SafetyStockRequest struct {
	Key       KeyInput
	Threshold decimal.Decimal
}

type TransactionFilterRequest struct {
	StyleNo       string
	WarehouseType string
	PackageSpec   string
	LineID        int
	Type          string
	From          string // YYYY-MM-DD, optional
	To            string
	Limit         int
	Offset        int
}

type LineRequest struct {
	Name           string
	Status         string
	CurrentStyle   string
	DailyCapacity  decimal.Decimal
	ExportCapacity decimal.Decimal
	SubLines       []SubLineRequest
}

type SubLineRequest struct {
	Name           string
	CurrentStyle   string
	DailyCapacity  decimal.Decimal
	ExportCapacity decimal.Decimal
}

type ConfirmProductionRequest struct {
	LineID        int
	SubLineID     int
	WarehouseType string
	PackageSpec   string
	Grade         string
}

type CreateOrderRequest struct {
	OrderNo   string
	Customer  string
	StyleNo   string
	TotalTons decimal.Decimal
	TradeType string
	LineIDs   string
}

type AllocationRequest struct {
	OrderID int
	General decimal.Decimal
	Bonded  decimal.Decimal
}
