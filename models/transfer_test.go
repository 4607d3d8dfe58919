package models

import (
	"testing"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferApproveAndDeleteRestoresBalances(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	child := mustCompany(t, ctx, "Branch", false, 500)

	transfer, err := CreateTransfer(ctx, &NewTransfer{
		FromCompanyId: parent.ID,
		ToCompanyId:   child.ID,
		Amount:        dec(300),
	})
	require.NoError(t, err)
	assert.Equal(t, TransferStatusPending, transfer.Status)

	// pending transfers do not move money
	requireDecimal(t, 1000, reloadCompany(t, ctx, parent.ID).Balance)
	requireDecimal(t, 500, reloadCompany(t, ctx, child.ID).Balance)

	approved, err := ApproveTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, TransferStatusApproved, approved.Status)
	assert.True(t, approved.FromWasParent)
	assert.False(t, approved.ToWasParent)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, 1, *approved.ApprovedBy)

	a := reloadCompany(t, ctx, parent.ID)
	b := reloadCompany(t, ctx, child.ID)
	requireDecimal(t, 700, a.Balance)
	requireDecimal(t, 800, b.Balance)
	requireDecimal(t, 300, b.DebtToParent)
	requireDecimal(t, 0, a.DebtToParent)
	requireDecimal(t, 1500, a.Balance.Add(b.Balance))
	requireNoDrift(t, ctx)

	_, err = DeleteTransfer(ctx, transfer.ID)
	require.NoError(t, err)

	a = reloadCompany(t, ctx, parent.ID)
	b = reloadCompany(t, ctx, child.ID)
	requireDecimal(t, 1000, a.Balance)
	requireDecimal(t, 500, b.Balance)
	requireDecimal(t, 0, b.DebtToParent)
	requireNoDrift(t, ctx)

	_, err = GetTransfer(ctx, transfer.ID)
	assert.True(t, utils.IsNotFound(err))
}

func TestTransferChildToParentLowersDebt(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	child, err := CreateCompany(ctx, &NewCompany{
		Name:                "Branch",
		OpeningBalance:      dec(500),
		OpeningDebtToParent: dec(400),
	})
	require.NoError(t, err)

	transfer, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: child.ID, ToCompanyId: parent.ID, Amount: dec(150)})
	require.NoError(t, err)
	_, err = ApproveTransfer(ctx, transfer.ID)
	require.NoError(t, err)

	b := reloadCompany(t, ctx, child.ID)
	requireDecimal(t, 350, b.Balance)
	requireDecimal(t, 250, b.DebtToParent)
	requireDecimal(t, 1150, reloadCompany(t, ctx, parent.ID).Balance)
	requireNoDrift(t, ctx)
}

func TestTransferChildToChildLeavesDebt(t *testing.T) {
	ctx := newTestBusiness(t)
	mustCompany(t, ctx, "Head Office", true, 0)
	first := mustCompany(t, ctx, "Branch A", false, 500)
	second := mustCompany(t, ctx, "Branch B", false, 100)

	transfer, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: first.ID, ToCompanyId: second.ID, Amount: dec(200)})
	require.NoError(t, err)
	_, err = ApproveTransfer(ctx, transfer.ID)
	require.NoError(t, err)

	a := reloadCompany(t, ctx, first.ID)
	b := reloadCompany(t, ctx, second.ID)
	requireDecimal(t, 300, a.Balance)
	requireDecimal(t, 300, b.Balance)
	requireDecimal(t, 0, a.DebtToParent)
	requireDecimal(t, 0, b.DebtToParent)
}

func TestTransferStateMachine(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	child := mustCompany(t, ctx, "Branch", false, 500)

	transfer, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: child.ID, Amount: dec(300)})
	require.NoError(t, err)
	_, err = ApproveTransfer(ctx, transfer.ID)
	require.NoError(t, err)

	_, err = RejectTransfer(ctx, transfer.ID)
	assert.True(t, utils.IsConflict(err))
	_, err = ApproveTransfer(ctx, transfer.ID)
	assert.True(t, utils.IsConflict(err))
	_, err = UpdateTransfer(ctx, transfer.ID, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: child.ID, Amount: dec(10)})
	assert.True(t, utils.IsConflict(err))

	// the failed transitions left the balances alone
	requireDecimal(t, 700, reloadCompany(t, ctx, parent.ID).Balance)
	requireDecimal(t, 800, reloadCompany(t, ctx, child.ID).Balance)

	rejected, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: child.ID, Amount: dec(50)})
	require.NoError(t, err)
	rejected, err = RejectTransfer(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, TransferStatusRejected, rejected.Status)
	_, err = ApproveTransfer(ctx, rejected.ID)
	assert.True(t, utils.IsConflict(err))

	// deleting a rejected transfer has no balance effect
	_, err = DeleteTransfer(ctx, rejected.ID)
	require.NoError(t, err)
	requireDecimal(t, 700, reloadCompany(t, ctx, parent.ID).Balance)
	requireNoDrift(t, ctx)
}

func TestUpdatePendingTransfer(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	child := mustCompany(t, ctx, "Branch", false, 500)

	transfer, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: child.ID, Amount: dec(300), Note: "first"})
	require.NoError(t, err)

	updated, err := UpdateTransfer(ctx, transfer.ID, &NewTransfer{FromCompanyId: child.ID, ToCompanyId: parent.ID, Amount: dec(120), Note: "second"})
	require.NoError(t, err)
	assert.Equal(t, child.ID, updated.FromCompanyId)
	requireDecimal(t, 120, updated.Amount)
	assert.Equal(t, "second", updated.Note)
	requireDecimal(t, 1000, reloadCompany(t, ctx, parent.ID).Balance)
}

func TestCreateTransferValidation(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)

	_, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: parent.ID, Amount: dec(10)})
	assert.True(t, utils.IsValidation(err))

	_, err = CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: parent.ID + 100, Amount: dec(10)})
	assert.True(t, utils.IsValidation(err))

	child := mustCompany(t, ctx, "Branch", false, 0)
	_, err = CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: child.ID, Amount: dec(0)})
	assert.True(t, utils.IsValidation(err))
}

func TestChildUserTransferScope(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	first := mustCompany(t, ctx, "Branch A", false, 0)
	second := mustCompany(t, ctx, "Branch B", false, 0)

	other, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: second.ID, Amount: dec(10)})
	require.NoError(t, err)
	own, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: first.ID, Amount: dec(20)})
	require.NoError(t, err)

	childCtx := utils.SetUserRoleInContext(ctx, string(UserRoleChild))
	childCtx = utils.SetCompanyIdInContext(childCtx, first.ID)

	_, err = CreateTransfer(childCtx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: second.ID, Amount: dec(5)})
	assert.ErrorIs(t, err, utils.ErrorPermissionDenied)

	_, err = GetTransfer(childCtx, other.ID)
	assert.True(t, utils.IsNotFound(err))

	page, err := PaginateTransfers(childCtx, TransferFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, own.ID, page.Items[0].ID)
}

func TestPaginateTransfers(t *testing.T) {
	ctx := newTestBusiness(t)
	parent := mustCompany(t, ctx, "Head Office", true, 1000)
	child := mustCompany(t, ctx, "Branch", false, 0)

	ids := make([]int, 0, 5)
	for i := 1; i <= 5; i++ {
		transfer, err := CreateTransfer(ctx, &NewTransfer{FromCompanyId: parent.ID, ToCompanyId: child.ID, Amount: dec(int64(i))})
		require.NoError(t, err)
		ids = append(ids, transfer.ID)
	}
	_, err := ApproveTransfer(ctx, ids[0])
	require.NoError(t, err)

	first, err := PaginateTransfers(ctx, TransferFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, ids[4], first.Items[0].ID)
	require.NotNil(t, first.PageInfo.HasNextPage)
	assert.True(t, *first.PageInfo.HasNextPage)

	second, err := PaginateTransfers(ctx, TransferFilter{Limit: 2, After: &first.PageInfo.EndCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, ids[2], second.Items[0].ID)

	third, err := PaginateTransfers(ctx, TransferFilter{Limit: 2, After: &second.PageInfo.EndCursor})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	assert.False(t, *third.PageInfo.HasNextPage)

	approved := TransferStatusApproved
	filtered, err := PaginateTransfers(ctx, TransferFilter{Status: &approved})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, ids[0], filtered.Items[0].ID)
}
