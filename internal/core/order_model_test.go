package core_test

import (
	"reflect"
	"testing"

	"prodsales-backend/internal/core"

	"github.com/shopspring/decimal"
)

func TestParseLineIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int
	}{
		{"empty means any line", "", nil},
		{"dash placeholder", "-", nil},
		{"single id", "3", []int{3}},
		{"slash delimited", "3/7", []int{3, 7}},
		{"comma delimited", "3,7,12", []int{3, 7, 12}},
		{"mixed delimiters with spaces", "3 / 7, 12", []int{3, 7, 12}},
		{"garbage fragments dropped", "3/x/7", []int{3, 7}},
		{"non-positive ids dropped", "0/-2/5", []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ParseLineIDs(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLineIDs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateAllocation(t *testing.T) {
	total := decimal.NewFromInt(100)

	tests := []struct {
		name      string
		general   float64
		bonded    float64
		expectErr bool
	}{
		{"exact split", 60, 40, false},
		{"single regime", 100, 0, false},
		{"within epsilon", 60.005, 40, false},
		{"sum too low", 60, 30, true},
		{"sum too high", 60, 50, true},
		{"just outside epsilon", 60.02, 40, true},
		{"negative general", -10, 110, true},
		{"negative bonded", 110, -10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateAllocation(total,
				decimal.NewFromFloat(tt.general), decimal.NewFromFloat(tt.bonded))
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
