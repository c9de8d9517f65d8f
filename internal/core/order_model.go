package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state. Transitions are user-driven; the
// engine enforces a single invariant: entering ReadyToShip or Shipped requires
// the order's fulfillment percent to be at least 100, and entering Shipped
// additionally deducts the order's tonnage from inventory.
type OrderStatus string

const (
	OrderPending      OrderStatus = "Pending"
	OrderConfirmed    OrderStatus = "Confirmed"
	OrderInProduction OrderStatus = "InProduction"
	OrderReadyToShip  OrderStatus = "ReadyToShip"
	OrderShipped      OrderStatus = "Shipped"
)

// Terminal reports whether the order's stock has already been earmarked or
// deducted; terminal orders skip fulfillment recomputation.
func (s OrderStatus) Terminal() bool {
	return s == OrderReadyToShip || s == OrderShipped
}

// Gated reports whether entering this status requires full fulfillment.
func (s OrderStatus) Gated() bool {
	return s == OrderReadyToShip || s == OrderShipped
}

func (s OrderStatus) valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderInProduction, OrderReadyToShip, OrderShipped:
		return true
	}
	return false
}

// WarehouseAllocation is an explicit split of an order's demand between the
// two warehouse regimes. When absent, the full demand is assumed to belong to
// the regime matching the order's trade type.
type WarehouseAllocation struct {
	General decimal.Decimal `json:"general"`
	Bonded  decimal.Decimal `json:"bonded"`
}

// Order is a customer order for one style.
type Order struct {
	ID         int                  `json:"id"`
	OrderNo    string               `json:"order_no"`
	Customer   string               `json:"customer"`
	StyleNo    string               `json:"style_no"`
	TotalTons  decimal.Decimal      `json:"total_tons"`
	TradeType  WarehouseType        `json:"trade_type"`
	LineIDs    string               `json:"line_ids"` // slash or comma delimited; empty = any line
	Status     OrderStatus          `json:"status"`
	Allocation *WarehouseAllocation `json:"warehouse_allocation,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	ShippedAt  *time.Time           `json:"shipped_at,omitempty"`
}

// ParseLineIDs parses an order's line restriction. The field arrives as a
// slash- or comma-delimited string ("3/7", "3,7") or a single id; empty means
// "any line". Unparseable fragments are dropped rather than failing the order.
func ParseLineIDs(raw string) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == NoStyle {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == ','
	})
	var ids []int
	for _, f := range fields {
		id, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// allocationEpsilon is the tolerance for the allocation sum check; tonnage is
// entered by hand and hundredths-of-a-ton rounding noise is expected.
var allocationEpsilon = decimal.NewFromFloat(0.01)

// ValidateAllocation checks that an explicit warehouse split is non-negative
// and sums to the order total within tolerance.
func ValidateAllocation(totalTons, general, bonded decimal.Decimal) error {
	if general.IsNegative() || bonded.IsNegative() {
		return fmt.Errorf("%w: allocation quantities cannot be negative (general=%s, bonded=%s)",
			ErrValidation, general, bonded)
	}
	diff := general.Add(bonded).Sub(totalTons).Abs()
	if diff.GreaterThan(allocationEpsilon) {
		return fmt.Errorf("%w: allocation must sum to order total (general %s + bonded %s != %s)",
			ErrValidation, general, bonded, totalTons)
	}
	return nil
}
