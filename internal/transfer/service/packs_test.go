package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIntoPacks(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		packs    int
		want     []float64
	}{
		{"even split", 10, 2, []float64{5, 5}},
		{"remainder to first pack", 10, 3, []float64{4, 3, 3}},
		{"single pack", 10, 1, []float64{10}},
		{"more packs than units", 2, 5, []float64{2}},
		{"fractional quantity", 7.5, 2, []float64{4.5, 3}},
		{"zero packs treated as one", 10, 0, []float64{10}},
		{"negative packs treated as one", 10, -2, []float64{10}},
		{"zero quantity yields no packs", 0, 3, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitIntoPacks(tt.quantity, tt.packs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitIntoPacksConservesQuantity(t *testing.T) {
	for _, quantity := range []float64{1, 7, 10.5, 99, 1000.25} {
		for packs := 1; packs <= 7; packs++ {
			var sum float64
			for _, q := range SplitIntoPacks(quantity, packs) {
				sum += q
			}
			assert.InDelta(t, quantity, sum, 1e-9, "quantity %v packs %d", quantity, packs)
		}
	}
}
