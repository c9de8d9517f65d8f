package core

import "github.com/shopspring/decimal"

// CapacityForStyle aggregates the total daily and export capacity all running
// lines can feed into one style. Pure function over a loaded line snapshot —
// safe to recompute on every read.
func CapacityForStyle(lines []ProductLine, styleNo string) StyleCapacity {
	agg := StyleCapacity{StyleNo: styleNo}
	if styleNo == "" || styleNo == NoStyle {
		return agg
	}
	for _, line := range lines {
		daily, export := line.capacityContribution(styleNo)
		if daily.IsZero() && export.IsZero() {
			continue
		}
		agg.TotalCapacity = agg.TotalCapacity.Add(daily)
		agg.ExportCapacity = agg.ExportCapacity.Add(export)
		agg.ContributingLines = append(agg.ContributingLines, line.Name)
	}
	return agg
}

// exportCapacityForStyle is CapacityForStyle restricted to a line set.
// An empty lineIDs set means any line. Used by the fulfillment calculator as
// "today's incoming supply".
func exportCapacityForStyle(lines []ProductLine, styleNo string, lineIDs []int) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if !lineInSet(line.ID, lineIDs) {
			continue
		}
		_, export := line.capacityContribution(styleNo)
		total = total.Add(export)
	}
	return total
}

func lineInSet(id int, set []int) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// PendingStockInQueue lists every running line or sub-line holding completed
// production (export capacity > 0) that still awaits a warehouse stock-in
// confirmation. Items leave the queue only through ConfirmProduction, which
// resets the unit's export capacity and books the stock-in atomically.
func PendingStockInQueue(lines []ProductLine) []PendingStockIn {
	var queue []PendingStockIn
	for _, line := range lines {
		if line.Status != LineRunning {
			continue
		}
		if !line.Branched() {
			if line.CurrentStyle != NoStyle && line.CurrentStyle != "" && line.ExportCapacity.IsPositive() {
				queue = append(queue, PendingStockIn{
					LineID:   line.ID,
					LineName: line.Name,
					StyleNo:  line.CurrentStyle,
					Quantity: line.ExportCapacity,
				})
			}
			continue
		}
		for _, sub := range line.SubLines {
			if sub.CurrentStyle != NoStyle && sub.CurrentStyle != "" && sub.ExportCapacity.IsPositive() {
				queue = append(queue, PendingStockIn{
					LineID:      line.ID,
					LineName:    line.Name,
					SubLineID:   sub.ID,
					SubLineName: sub.Name,
					StyleNo:     sub.CurrentStyle,
					Quantity:    sub.ExportCapacity,
				})
			}
		}
	}
	return queue
}
