package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/erp"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/repository"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func approvedItem(id, code string, approved, rejected float64) *repository.TransferItem {
	return &repository.TransferItem{
		ID:               id,
		ItemCode:         code,
		QCStatus:         repository.QCApproved,
		ApprovedQuantity: approved,
		RejectedQuantity: rejected,
		FromWarehouse:    "WH-QC",
		ToWarehouse:      strPtr("WH-STORE"),
		SAPBaseEntry:     intPtr(42),
		SAPBaseLine:      intPtr(0),
	}
}

func TestBuildBranchLinesApproved(t *testing.T) {
	items := []*repository.TransferItem{approvedItem("i1", "MED001", 7, 3)}

	lines, from, to, err := buildBranchLines(repository.QCApproved, items, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "WH-QC", from)
	assert.Equal(t, "WH-STORE", to)
	assert.Equal(t, "MED001", lines[0].ItemCode)
	assert.Equal(t, 7.0, lines[0].Quantity)
	assert.Equal(t, 42, lines[0].BaseEntry)
	assert.Equal(t, erp.BaseTypeGRPO, lines[0].BaseType)
}

func TestBuildBranchLinesRejectedBranchUsesRejectedQty(t *testing.T) {
	items := []*repository.TransferItem{approvedItem("i1", "MED001", 7, 3)}
	items[0].RejectedToWarehouse = strPtr("WH-QUAR")

	lines, _, to, err := buildBranchLines(repository.QCRejected, items, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "WH-QUAR", to)
	assert.Equal(t, 3.0, lines[0].Quantity)
}

func TestBuildBranchLinesBranchDestinationPreferred(t *testing.T) {
	items := []*repository.TransferItem{approvedItem("i1", "MED001", 7, 0)}
	items[0].ApprovedToWarehouse = strPtr("WH-GOOD")

	lines, _, to, err := buildBranchLines(repository.QCApproved, items, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "WH-GOOD", to)
	assert.Equal(t, "WH-GOOD", lines[0].WarehouseCode)
}

func TestBuildBranchLinesSkipsIneligible(t *testing.T) {
	pending := approvedItem("i2", "MED002", 5, 0)
	pending.QCStatus = repository.QCPending
	zeroQty := approvedItem("i3", "MED003", 0, 5)

	lines, _, _, err := buildBranchLines(repository.QCApproved, []*repository.TransferItem{pending, zeroQty}, nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestBuildBranchLinesMissingDestination(t *testing.T) {
	item := approvedItem("i1", "MED001", 7, 0)
	item.ToWarehouse = nil

	_, _, _, err := buildBranchLines(repository.QCApproved, []*repository.TransferItem{item}, nil)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DESTINATION_NOT_DESIGNATED", appErr.Code)
	assert.Contains(t, appErr.Message, "MED001")
}

func TestBuildBranchLinesBatchItemOneLinePerBatch(t *testing.T) {
	item := approvedItem("i1", "MED001", 10, 0)
	item.IsBatchItem = true

	batches := map[string][]*repository.TransferBatch{
		"i1": {
			{ItemID: "i1", BatchNumber: "B001", ApprovedQuantity: 6},
			{ItemID: "i1", BatchNumber: "B002", ApprovedQuantity: 4},
			{ItemID: "i1", BatchNumber: "B003", ApprovedQuantity: 0},
		},
	}

	lines, _, _, err := buildBranchLines(repository.QCApproved, []*repository.TransferItem{item}, batches)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 6.0, lines[0].Quantity)
	require.Len(t, lines[0].BatchNumbers, 1)
	assert.Equal(t, "B001", lines[0].BatchNumbers[0].BatchNumber)
	assert.Equal(t, 6.0, lines[0].BatchNumbers[0].Quantity)

	assert.Equal(t, 4.0, lines[1].Quantity)
	assert.Equal(t, "B002", lines[1].BatchNumbers[0].BatchNumber)
	assert.Equal(t, 1, lines[1].LineNum)
	assert.Equal(t, 1, lines[1].BatchNumbers[0].BaseLineNumber)
}

func TestBuildBranchLinesBatchSubEntryReferencesTransferLine(t *testing.T) {
	skipped := approvedItem("i1", "MED001", 0, 0)
	item := approvedItem("i2", "MED002", 5, 0)
	item.IsBatchItem = true
	item.SAPBaseLine = intPtr(7)

	batches := map[string][]*repository.TransferBatch{
		"i2": {{ItemID: "i2", BatchNumber: "B001", ApprovedQuantity: 5}},
	}

	lines, _, _, err := buildBranchLines(repository.QCApproved, []*repository.TransferItem{skipped, item}, batches)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	// GRPO line 7 becomes transfer line 0; the batch sub-entry must
	// point at the latter while BaseLine keeps the GRPO reference
	assert.Equal(t, 0, lines[0].LineNum)
	assert.Equal(t, 7, lines[0].BaseLine)
	assert.Equal(t, 0, lines[0].BatchNumbers[0].BaseLineNumber)
}

func TestBuildBranchLinesRejectedBranchTakesRejectedItems(t *testing.T) {
	item := approvedItem("i1", "MED001", 0, 10)
	item.QCStatus = repository.QCRejected
	item.RejectedToWarehouse = strPtr("WH-QUAR")

	lines, _, to, err := buildBranchLines(repository.QCRejected, []*repository.TransferItem{item}, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "WH-QUAR", to)
	assert.Equal(t, 10.0, lines[0].Quantity)

	// the approved branch still skips them
	approved, _, _, err := buildBranchLines(repository.QCApproved, []*repository.TransferItem{item}, nil)
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestBuildBranchLinesBinAllocations(t *testing.T) {
	item := approvedItem("i1", "MED001", 5, 0)
	item.FromBinCode = strPtr("QC-BIN-01")
	item.FromBinAbsEntry = intPtr(11)
	item.ToBinCode = strPtr("ST-BIN-07")
	item.ToBinAbsEntry = intPtr(22)

	lines, _, _, err := buildBranchLines(repository.QCApproved, []*repository.TransferItem{item}, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].BinAllocations, 2)

	assert.Equal(t, erp.BinActionFrom, lines[0].BinAllocations[0].BinActionType)
	assert.Equal(t, 11, lines[0].BinAllocations[0].BinAbsEntry)
	assert.Equal(t, erp.BinActionTo, lines[0].BinAllocations[1].BinActionType)
	assert.Equal(t, 22, lines[0].BinAllocations[1].BinAbsEntry)
	assert.Equal(t, 5.0, lines[0].BinAllocations[1].Quantity)
}

func TestBuildBranchLinesBinAllocationNeedsCodeAndAbsEntry(t *testing.T) {
	item := approvedItem("i1", "MED001", 5, 0)
	item.FromBinCode = strPtr("QC-BIN-01")
	// abs entry unknown, from side must be omitted

	lines, _, _, err := buildBranchLines(repository.QCApproved, []*repository.TransferItem{item}, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Empty(t, lines[0].BinAllocations)
}

func TestCheckBranchPostable(t *testing.T) {
	session := &repository.TransferSession{
		SessionCode:       "GRPO-42-1",
		Status:            repository.StatusCompleted,
		RejectedDocStatus: repository.RejectedDocDraft,
	}

	require.NoError(t, checkBranchPostable(session, repository.QCApproved))
	require.NoError(t, checkBranchPostable(session, repository.QCRejected))

	t.Run("approved branch refuses before completion", func(t *testing.T) {
		draft := &repository.TransferSession{Status: repository.StatusInProgress}
		err := checkBranchPostable(draft, repository.QCApproved)
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INVALID_STATE_TRANSITION", appErr.Code)
	})

	t.Run("double post guard", func(t *testing.T) {
		posted := &repository.TransferSession{
			Status:           repository.StatusPosted,
			TransferDocEntry: intPtr(77),
		}
		err := checkBranchPostable(posted, repository.QCApproved)
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "CONFLICT", appErr.Code)
	})

	t.Run("rejected branch allowed after approved posted", func(t *testing.T) {
		posted := &repository.TransferSession{
			Status:            repository.StatusPosted,
			TransferDocEntry:  intPtr(77),
			RejectedDocStatus: repository.RejectedDocDraft,
		}
		require.NoError(t, checkBranchPostable(posted, repository.QCRejected))
	})

	t.Run("rejected branch allowed on fully rejected session", func(t *testing.T) {
		rejected := &repository.TransferSession{
			Status:            repository.StatusRejected,
			RejectedDocStatus: repository.RejectedDocDraft,
		}
		require.NoError(t, checkBranchPostable(rejected, repository.QCRejected))
	})

	t.Run("rejected branch double post guard", func(t *testing.T) {
		session := &repository.TransferSession{
			Status:            repository.StatusPosted,
			RejectedDocStatus: repository.RejectedDocPosted,
		}
		err := checkBranchPostable(session, repository.QCRejected)
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "CONFLICT", appErr.Code)
	})
}
