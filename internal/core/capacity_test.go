package core_test

import (
	"testing"

	"prodsales-backend/internal/core"

	"github.com/shopspring/decimal"
)

func branchedLine(id int, name string, status core.LineStatus, subs ...core.SubLine) core.ProductLine {
	return core.ProductLine{ID: id, Name: name, Status: status, CurrentStyle: core.NoStyle, SubLines: subs}
}

func subLine(id int, name, style string, daily, export float64) core.SubLine {
	return core.SubLine{
		ID:             id,
		Name:           name,
		CurrentStyle:   style,
		DailyCapacity:  decimal.NewFromFloat(daily),
		ExportCapacity: decimal.NewFromFloat(export),
	}
}

func TestCapacityForStyle_SimpleLines(t *testing.T) {
	lines := []core.ProductLine{
		runningLine(1, "Line 1", "BE3250", 50, 30),
		runningLine(2, "Line 2", "BE3250", 40, 0),
		runningLine(3, "Line 3", "TP8040", 60, 25),
	}

	agg := core.CapacityForStyle(lines, "BE3250")
	if !agg.TotalCapacity.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Expected total capacity 90, got %s", agg.TotalCapacity)
	}
	if !agg.ExportCapacity.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected export capacity 30, got %s", agg.ExportCapacity)
	}
	if len(agg.ContributingLines) != 2 {
		t.Errorf("Expected 2 contributing lines, got %v", agg.ContributingLines)
	}
}

func TestCapacityForStyle_NonRunningLinesNeverContribute(t *testing.T) {
	for _, status := range []core.LineStatus{core.LineMaintenance, core.LineStopped} {
		line := runningLine(1, "Line 1", "BE3250", 50, 30)
		line.Status = status

		agg := core.CapacityForStyle([]core.ProductLine{line}, "BE3250")
		if !agg.TotalCapacity.IsZero() || !agg.ExportCapacity.IsZero() {
			t.Errorf("%s line contributed capacity: total=%s export=%s",
				status, agg.TotalCapacity, agg.ExportCapacity)
		}
	}
}

// A branched line can feed two styles at once through different sub-lines.
func TestCapacityForStyle_SubLinesContributePerStyle(t *testing.T) {
	lines := []core.ProductLine{
		branchedLine(1, "Line 1", core.LineRunning,
			subLine(1, "DN200", "BE3250", 25, 10),
			subLine(2, "DN300", "TP8040", 35, 15),
		),
	}

	for _, tt := range []struct {
		style        string
		total, export int64
	}{
		{"BE3250", 25, 10},
		{"TP8040", 35, 15},
	} {
		agg := core.CapacityForStyle(lines, tt.style)
		if !agg.TotalCapacity.Equal(decimal.NewFromInt(tt.total)) {
			t.Errorf("%s: expected total %d, got %s", tt.style, tt.total, agg.TotalCapacity)
		}
		if !agg.ExportCapacity.Equal(decimal.NewFromInt(tt.export)) {
			t.Errorf("%s: expected export %d, got %s", tt.style, tt.export, agg.ExportCapacity)
		}
	}
}

func TestCapacityForStyle_NoStyle(t *testing.T) {
	lines := []core.ProductLine{runningLine(1, "Line 1", core.NoStyle, 50, 30)}
	agg := core.CapacityForStyle(lines, core.NoStyle)
	if !agg.TotalCapacity.IsZero() {
		t.Errorf("Idle style must aggregate nothing, got %s", agg.TotalCapacity)
	}
}

func TestPendingStockInQueue(t *testing.T) {
	stopped := runningLine(3, "Line 3", "BE3250", 50, 40)
	stopped.Status = core.LineStopped

	lines := []core.ProductLine{
		runningLine(1, "Line 1", "BE3250", 50, 30),
		runningLine(2, "Line 2", "TP8040", 40, 0), // nothing pending
		stopped, // not running
		branchedLine(4, "Line 4", core.LineRunning,
			subLine(1, "DN200", "BE3250", 25, 12),
			subLine(2, "DN300", core.NoStyle, 35, 8), // idle branch
		),
	}

	queue := core.PendingStockInQueue(lines)
	if len(queue) != 2 {
		t.Fatalf("Expected 2 queue items, got %d: %+v", len(queue), queue)
	}
	if queue[0].LineID != 1 || !queue[0].Quantity.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Unexpected first item: %+v", queue[0])
	}
	if queue[1].LineID != 4 || queue[1].SubLineID != 1 || !queue[1].Quantity.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Unexpected second item: %+v", queue[1])
	}
}
