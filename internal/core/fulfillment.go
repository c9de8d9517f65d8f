package core

import "github.com/shopspring/decimal"

// RegimeAvailability is one warehouse regime's contribution to an order's
// fulfillment. Counted can be lower than Available when an explicit allocation
// caps how much of this regime's stock the order may claim.
type RegimeAvailability struct {
	Regime    WarehouseType   `json:"regime"`
	Demand    decimal.Decimal `json:"demand"`
	Available decimal.Decimal `json:"available"`
	Counted   decimal.Decimal `json:"counted"`
}

// FulfillmentBreakdown explains how a fulfillment percent was derived.
type FulfillmentBreakdown struct {
	Demand           decimal.Decimal      `json:"demand"`
	AvailableStock   decimal.Decimal      `json:"available_stock"`
	IncomingCapacity decimal.Decimal      `json:"incoming_capacity"`
	TotalAvailable   decimal.Decimal      `json:"total_available"`
	Regimes          []RegimeAvailability `json:"regimes"`
}

// FulfillmentResult reports what fraction of an order's demand is satisfiable
// from unlocked stock plus today's unconfirmed production. Percent may exceed
// 100 to convey surplus; status gating treats anything at or above 100 as
// satisfied.
type FulfillmentResult struct {
	Percent    float64              `json:"percent"`
	IsShortage bool                 `json:"is_shortage"`
	Breakdown  FulfillmentBreakdown `json:"breakdown"`
}

// CalculateFulfillment computes an order's fulfillment against a snapshot of
// inventory records and production lines. Pure and side-effect-free: safe to
// recompute on every inventory, order, or line change.
//
// Available stock is current minus locked, summed over records matching the
// order's style, regime(s), and line restriction. Records not scoped to any
// line serve every order. Same-style export capacity from running lines is
// added as today's incoming supply; it is counted once per style, so several
// pending orders may each see the same unconfirmed capacity. Fulfillment is an
// optimistic display figure; the hard check happens at the shipment drain.
//
// With an explicit warehouse allocation both regimes are considered and each
// regime's stock counts only up to its allocated share, so an over-committed
// allocation simply surfaces as a larger shortfall. Without one, the order's
// full demand belongs to the regime matching its trade type.
func CalculateFulfillment(order Order, records []InventoryRecord, lines []ProductLine) FulfillmentResult {
	if order.Status.Terminal() {
		// Stock already earmarked or deducted; report fulfilled by convention.
		return FulfillmentResult{
			Percent:    100,
			IsShortage: false,
			Breakdown:  FulfillmentBreakdown{Demand: order.TotalTons},
		}
	}

	lineSet := ParseLineIDs(order.LineIDs)

	var regimes []RegimeAvailability
	if order.Allocation != nil {
		regimes = []RegimeAvailability{
			{Regime: WarehouseGeneral, Demand: order.Allocation.General},
			{Regime: WarehouseBonded, Demand: order.Allocation.Bonded},
		}
	} else {
		regimes = []RegimeAvailability{
			{Regime: order.TradeType, Demand: order.TotalTons},
		}
	}

	availableStock := decimal.Zero
	for i := range regimes {
		avail := availableForRegime(records, order.StyleNo, regimes[i].Regime, lineSet)
		counted := avail
		if order.Allocation != nil && counted.GreaterThan(regimes[i].Demand) {
			counted = regimes[i].Demand
		}
		regimes[i].Available = avail
		regimes[i].Counted = counted
		availableStock = availableStock.Add(counted)
	}

	incoming := exportCapacityForStyle(lines, order.StyleNo, lineSet)
	total := availableStock.Add(incoming)

	percent := 0.0
	if order.TotalTons.IsPositive() {
		percent, _ = total.Div(order.TotalTons).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	return FulfillmentResult{
		Percent:    percent,
		IsShortage: total.LessThan(order.TotalTons),
		Breakdown: FulfillmentBreakdown{
			Demand:           order.TotalTons,
			AvailableStock:   availableStock,
			IncomingCapacity: incoming,
			TotalAvailable:   total,
			Regimes:          regimes,
		},
	}
}

func availableForRegime(records []InventoryRecord, styleNo string, regime WarehouseType, lineSet []int) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		if rec.Key.StyleNo != styleNo || rec.Key.WarehouseType != regime {
			continue
		}
		if rec.Key.LineID != 0 && !lineInSet(rec.Key.LineID, lineSet) {
			continue
		}
		total = total.Add(rec.Available())
	}
	return total
}
