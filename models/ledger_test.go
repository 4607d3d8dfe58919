package models

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferDeltas(t *testing.T) {
	tests := []struct {
		name          string
		fromParent    bool
		toParent      bool
		fromDebtDelta int64
		toDebtDelta   int64
	}{
		{name: "parent to child", fromParent: true, toParent: false, fromDebtDelta: 0, toDebtDelta: 300},
		{name: "child to parent", fromParent: false, toParent: true, fromDebtDelta: -300, toDebtDelta: 0},
		{name: "child to child", fromParent: false, toParent: false, fromDebtDelta: 0, toDebtDelta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfer := &Transfer{
				FromCompanyId: 1,
				ToCompanyId:   2,
				Amount:        dec(300),
				FromWasParent: tt.fromParent,
				ToWasParent:   tt.toParent,
			}
			deltas := transferDeltas(transfer)
			require.Len(t, deltas, 2)

			requireDecimal(t, -300, deltas[1].Balance)
			requireDecimal(t, 300, deltas[2].Balance)
			requireDecimal(t, tt.fromDebtDelta, deltas[1].DebtToParent)
			requireDecimal(t, tt.toDebtDelta, deltas[2].DebtToParent)

			// cash is conserved by every transfer
			assert.True(t, deltas[1].Balance.Add(deltas[2].Balance).IsZero())

			inverted := invertDeltas(deltas)
			for id, d := range deltas {
				assert.True(t, d.Balance.Add(inverted[id].Balance).IsZero())
				assert.True(t, d.DebtToParent.Add(inverted[id].DebtToParent).IsZero())
			}
		})
	}
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []int{1, 3, 7}, sortedUnique([]int{7, 3, 7, 1, 3}))
	assert.Empty(t, sortedUnique(nil))
}

func TestWorkerAndProjectDeltas(t *testing.T) {
	requireDecimal(t, 500, workerDelta(WorkerTransactionTypeSalary, dec(500)))
	requireDecimal(t, -500, workerDelta(WorkerTransactionTypeAdvance, dec(500)))
	requireDecimal(t, -500, workerDelta(WorkerTransactionTypeDeduction, dec(500)))

	requireDecimal(t, 200, projectDelta(ProjectTransactionTypeIncome, dec(200)))
	requireDecimal(t, -200, projectDelta(ProjectTransactionTypeExpense, dec(200)))
}

func TestSuggestDebtRecovery(t *testing.T) {
	tests := []struct {
		balance  int64
		expected int64
	}{
		{balance: -250000, expected: 20000},
		{balance: -200001, expected: 20000},
		{balance: -200000, expected: 10000},
		{balance: -100000, expected: 10000},
		{balance: -99999, expected: 5000},
		{balance: -1000, expected: 5000},
		{balance: 0, expected: 5000},
		{balance: 300000, expected: 20000},
	}
	for _, tt := range tests {
		requireDecimal(t, tt.expected, SuggestDebtRecovery(dec(tt.balance)), "balance", tt.balance)
	}
}

func TestWorkerStatus(t *testing.T) {
	assert.Equal(t, WorkerStatusInDebt, workerStatus(dec(-1)))
	assert.Equal(t, WorkerStatusOwed, workerStatus(decimal.Zero))
	assert.Equal(t, WorkerStatusOwed, workerStatus(dec(10)))
}

func TestValidatePositiveAmount(t *testing.T) {
	assert.NoError(t, validatePositiveAmount("amount", dec(1)))
	assert.True(t, utils.IsValidation(validatePositiveAmount("amount", decimal.Zero)))
	assert.True(t, utils.IsValidation(validatePositiveAmount("amount", dec(-5))))
}

func TestNotFoundAsValidation(t *testing.T) {
	err := notFoundAsValidation(utils.ErrorRecordNotFound, "worker")
	require.True(t, utils.IsValidation(err))
	assert.Equal(t, "worker not found", err.Error())

	other := utils.NewConflictError("busy")
	assert.Equal(t, other, notFoundAsValidation(other, "worker"))
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := EncodeCursor(42)
	id, err := DecodeCursor(&cursor)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	id, err = DecodeCursor(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	bad := "%%%"
	_, err = DecodeCursor(&bad)
	assert.Error(t, err)
}

func TestNormalizePageSize(t *testing.T) {
	assert.Equal(t, defaultPageSize, normalizePageSize(0))
	assert.Equal(t, defaultPageSize, normalizePageSize(-3))
	assert.Equal(t, 10, normalizePageSize(10))
	assert.Equal(t, maxPageSize, normalizePageSize(maxPageSize+1))
}

func TestPermissions(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParsePermissions(" b;a;;b "))
	assert.Equal(t, "companies.read;transfers.read", JoinPermissions([]string{"transfers.read", "companies.read", "transfers.read"}))
	assert.True(t, IsKnownPermission(PermDebtsWrite))
	assert.False(t, IsKnownPermission("debts.delete"))

	withRole := func(role UserRole, perms ...string) context.Context {
		ctx := utils.SetUserRoleInContext(context.Background(), string(role))
		return utils.SetPermissionsInContext(ctx, perms)
	}

	assert.True(t, HasPermission(withRole(UserRoleAdmin), PermUsersManage))
	assert.True(t, HasPermission(withRole(UserRoleParent), PermTransfersApprove))

	child := withRole(UserRoleChild)
	assert.True(t, HasPermission(child, PermTransfersCreate))
	assert.False(t, HasPermission(child, PermTransfersApprove))
	assert.False(t, HasPermission(child, PermWorkersRead))

	appUser := withRole(UserRoleAppUser, PermWorkersWrite)
	assert.True(t, HasPermission(appUser, PermWorkersWrite))
	assert.True(t, HasPermission(appUser, PermWorkersRead))
	assert.False(t, HasPermission(appUser, PermDebtsRead))

	assert.False(t, HasPermission(context.Background(), PermCompaniesRead))
}

func TestChildCompanyScope(t *testing.T) {
	ctx := utils.SetUserRoleInContext(context.Background(), string(UserRoleChild))
	ctx = utils.SetCompanyIdInContext(ctx, 9)
	id, ok := childCompanyScope(ctx)
	assert.True(t, ok)
	assert.Equal(t, 9, id)

	_, ok = childCompanyScope(utils.SetUserRoleInContext(context.Background(), string(UserRoleParent)))
	assert.False(t, ok)
}

func TestSummarizeStatement(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	lines := []*StatementLine{
		{Date: day2, Kind: StatementKindPayment, Currency: CurrencyCNY, Debit: decimal.Zero, Credit: dec(400)},
		{Date: day1, Kind: StatementKindDelivery, Currency: CurrencyCNY, Debit: dec(1000), Credit: decimal.Zero},
		{Date: day1, Kind: StatementKindPayment, Currency: CurrencyUSD, Debit: decimal.Zero, Credit: dec(50)},
		{Date: day1, Kind: StatementKindCharge, Currency: CurrencyUSD, Debit: dec(200), Credit: decimal.Zero},
	}

	summary := summarizeStatement(lines)

	requireDecimal(t, 1000, summary.TotalCNY)
	requireDecimal(t, 400, summary.PaidCNY)
	requireDecimal(t, 600, summary.RemainingCNY)
	requireDecimal(t, 200, summary.TotalUSD)
	requireDecimal(t, 50, summary.PaidUSD)
	requireDecimal(t, 150, summary.RemainingUSD)

	// ordered by date, debits first within a day
	assert.Equal(t, StatementKindDelivery, lines[0].Kind)
	assert.Equal(t, StatementKindCharge, lines[1].Kind)
	assert.Equal(t, StatementKindPayment, lines[2].Kind)
	assert.True(t, lines[3].Date.Equal(day2))

	last := lines[len(lines)-1]
	requireDecimal(t, 600, last.BalanceCNY)
	requireDecimal(t, 150, last.BalanceUSD)
}
