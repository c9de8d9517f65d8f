package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineStatus is the operating state of a production line. Only Running lines
// contribute capacity; Maintenance and Stopped lines never do, even when their
// current style matches — capacity is a current availability signal, not a
// capability record.
type LineStatus string

const (
	LineRunning     LineStatus = "Running"
	LineMaintenance LineStatus = "Maintenance"
	LineStopped     LineStatus = "Stopped"
)

// NoStyle marks a line or sub-line that is not producing anything.
const NoStyle = "-"

// SubLine is one parallel branch of a production line (e.g. two pipe sizes),
// independently tracking its own style and capacity.
type SubLine struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	CurrentStyle  string          `json:"current_style"`
	DailyCapacity decimal.Decimal `json:"daily_capacity"`
	// ExportCapacity is completed production awaiting a warehouse stock-in
	// confirmation; reset to zero when the stock-in is confirmed.
	ExportCapacity decimal.Decimal `json:"export_capacity"`
}

// ProductLine is a production line. A line either produces one style directly
// or is branched into sub-lines; capacityContribution handles both shapes so
// callers never branch on the presence of SubLines.
type ProductLine struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Status         LineStatus      `json:"status"`
	CurrentStyle   string          `json:"current_style"`
	DailyCapacity  decimal.Decimal `json:"daily_capacity"`
	ExportCapacity decimal.Decimal `json:"export_capacity"`
	SubLines       []SubLine       `json:"sub_lines,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Branched reports whether the line is split into sub-lines. A branched line's
// own style/capacity fields are ignored; the sub-lines carry the state.
func (l ProductLine) Branched() bool { return len(l.SubLines) > 0 }

// capacityContribution returns the line's daily and export capacity for one
// style. A branched line may contribute under two styles simultaneously via
// different sub-lines. Non-running lines contribute nothing.
func (l ProductLine) capacityContribution(styleNo string) (daily, export decimal.Decimal) {
	if l.Status != LineRunning {
		return decimal.Zero, decimal.Zero
	}
	if !l.Branched() {
		if l.CurrentStyle == styleNo {
			return l.DailyCapacity, l.ExportCapacity
		}
		return decimal.Zero, decimal.Zero
	}
	for _, sub := range l.SubLines {
		if sub.CurrentStyle == styleNo {
			daily = daily.Add(sub.DailyCapacity)
			export = export.Add(sub.ExportCapacity)
		}
	}
	return daily, export
}

// StyleCapacity aggregates what all running lines can add for one style today.
type StyleCapacity struct {
	StyleNo           string          `json:"style_no"`
	TotalCapacity     decimal.Decimal `json:"total_capacity"`
	ExportCapacity    decimal.Decimal `json:"export_capacity"`
	ContributingLines []string        `json:"contributing_lines"`
}

// PendingStockIn is one queue item of completed production awaiting warehouse
// confirmation. SubLineID is zero for unbranched lines.
type PendingStockIn struct {
	LineID      int             `json:"line_id"`
	LineName    string          `json:"line_name"`
	SubLineID   int             `json:"sub_line_id,omitempty"`
	SubLineName string          `json:"sub_line_name,omitempty"`
	StyleNo     string          `json:"style_no"`
	Quantity    decimal.Decimal `json:"quantity"`
}
