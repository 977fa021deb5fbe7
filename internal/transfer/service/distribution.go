package service

// BatchShare is the quantity pair distributed onto one batch
type BatchShare struct {
	Approved float64
	Rejected float64
}

// Distribute spreads an item's approved and rejected totals across its
// batches proportionally to each batch quantity. Returns nil when the
// total batch quantity is zero, in which case no distribution applies.
func Distribute(approvedTotal, rejectedTotal float64, batchQuantities []float64) []BatchShare {
	var total float64
	for _, q := range batchQuantities {
		total += q
	}
	if total == 0 {
		return nil
	}

	shares := make([]BatchShare, len(batchQuantities))
	for i, q := range batchQuantities {
		shares[i] = BatchShare{
			Approved: approvedTotal * q / total,
			Rejected: rejectedTotal * q / total,
		}
	}
	return shares
}
