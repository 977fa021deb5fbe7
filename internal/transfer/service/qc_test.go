package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/repository"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
)

func TestCheckQuantities(t *testing.T) {
	item := &repository.TransferItem{
		ItemCode:         "MED001",
		ReceivedQuantity: 10,
	}

	tests := []struct {
		name     string
		approved float64
		rejected float64
		wantCode string
	}{
		{"full approval", 10, 0, ""},
		{"split at the limit", 7, 3, ""},
		{"under the limit", 4, 3, ""},
		{"float noise within tolerance", 6.9999999999, 3.0000000001, ""},
		{"over the limit", 7, 4, "CONSERVATION_VIOLATION"},
		{"barely over", 10.001, 0, "CONSERVATION_VIOLATION"},
		{"negative approved", -1, 0, "BAD_REQUEST"},
		{"negative rejected", 5, -2, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkQuantities(item, &ItemDecision{
				ApprovedQuantity: tt.approved,
				RejectedQuantity: tt.rejected,
			})
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestCheckQuantitiesViolationNamesItem(t *testing.T) {
	item := &repository.TransferItem{
		ItemCode:         "MED007",
		ReceivedQuantity: 5,
	}

	err := checkQuantities(item, &ItemDecision{ApprovedQuantity: 5, RejectedQuantity: 1})
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "MED007")
	assert.Equal(t, 422, appErr.StatusCode)
}
