package app

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSeedHouses(t *testing.T) {
	hs, err := ParseSeedHouses(" 1:10:900, 2:11:1500.50 ,")
	if err != nil {
		t.Fatalf("ParseSeedHouses() error: %v", err)
	}
	if len(hs) != 2 {
		t.Fatalf("got %d houses, want 2", len(hs))
	}
	if hs[1].ID != 2 || hs[1].OwnerID != 11 || !hs[1].PricePerMonth.Equal(decimal.RequireFromString("1500.5")) {
		t.Errorf("second house = %+v", hs[1])
	}

	empty, err := ParseSeedHouses("")
	if err != nil || len(empty) != 0 {
		t.Errorf("ParseSeedHouses(\"\") = %v, %v; want none", empty, err)
	}
}

func TestParseSeedHouses_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing field", "1:10"},
		{"zero id", "0:10:900"},
		{"bad owner", "1:x:900"},
		{"zero price", "1:10:0"},
		{"negative price", "1:10:-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSeedHouses(tt.in); err == nil {
				t.Errorf("ParseSeedHouses(%q) succeeded, want error", tt.in)
			}
		})
	}
}
