package app

import (
	"github.com/shopspring/decimal"

	"prodsales-backend/internal/core"
)

type InventoryListResult struct {
	Records []core.InventoryRecord `json:"records"`
}

// BalanceResult is the post-operation balance a mutation reports back.
// For stock moves it is the record's current stock; for lock/unlock it is the
// locked quantity.
type BalanceResult struct {
	Key     core.InventoryKey `json:"key"`
	Balance decimal.Decimal   `json:"balance"`
}

type AlertListResult struct {
	Alerts []core.StockAlert `json:"alerts"`
}

type TransactionListResult struct {
	Entries []core.StockTransaction `json:"entries"`
	Total   int                     `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

type AuditLogListResult struct {
	Entries []core.AuditLogEntry `json:"entries"`
}

type LineListResult struct {
	Lines []core.ProductLine `json:"lines"`
}

type LineResult struct {
	Line *core.ProductLine `json:"line"`
}

type PendingStockInResult struct {
	Items []core.PendingStockIn `json:"items"`
}

type OrderListResult struct {
	Orders []core.Order `json:"orders"`
}

// OrderResult carries the order plus, for status transitions, the decision.
// A declined decision means the order is unchanged and Reason says why.
type OrderResult struct {
	Order    *core.Order          `json:"order"`
	Decision *core.StatusDecision `json:"decision,omitempty"`
}
