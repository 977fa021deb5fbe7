package service

import "math"

// SplitIntoPacks divides a quantity into pack counts using floor
// division, with the remainder added onto the first pack. Packs that
// would receive zero are omitted, so the result can be shorter than the
// requested pack count. A pack count below one is treated as one.
func SplitIntoPacks(quantity float64, packs int) []float64 {
	if packs < 1 {
		packs = 1
	}

	base := math.Floor(quantity / float64(packs))
	remainder := quantity - base*float64(packs)

	result := make([]float64, 0, packs)
	for i := 0; i < packs; i++ {
		q := base
		if i == 0 {
			q += remainder
		}
		if q <= 0 {
			continue
		}
		result = append(result, q)
	}
	return result
}
