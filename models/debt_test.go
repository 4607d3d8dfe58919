package models

import (
	"testing"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePaidMatchesPayments(t *testing.T, debt *ExternalDebt, payments []*DebtPayment) {
	t.Helper()
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	require.Truef(t, debt.PaidAmount.Equal(sum), "paid %s != payments %s", debt.PaidAmount, sum)
}

func TestDebtPaymentsSettleDebt(t *testing.T) {
	ctx := newTestBusiness(t)
	debt, err := CreateExternalDebt(ctx, &NewExternalDebt{CreditorName: "Bank", TotalAmount: dec(10000)})
	require.NoError(t, err)
	assert.False(t, debt.IsFullyPaid)
	requireDecimal(t, 10000, debt.RemainingAmount)

	_, err = AddDebtPayment(ctx, debt.ID, &NewDebtPayment{Amount: dec(4000)})
	require.NoError(t, err)
	last, err := AddDebtPayment(ctx, debt.ID, &NewDebtPayment{Amount: dec(6000)})
	require.NoError(t, err)

	reloaded, err := GetExternalDebt(ctx, debt.ID)
	require.NoError(t, err)
	requireDecimal(t, 10000, reloaded.PaidAmount)
	requireDecimal(t, 0, reloaded.RemainingAmount)
	assert.True(t, reloaded.IsFullyPaid)

	_, err = DeleteDebtPayment(ctx, last.ID)
	require.NoError(t, err)

	reloaded, err = GetExternalDebt(ctx, debt.ID)
	require.NoError(t, err)
	requireDecimal(t, 4000, reloaded.PaidAmount)
	requireDecimal(t, 6000, reloaded.RemainingAmount)
	assert.False(t, reloaded.IsFullyPaid)

	payments, err := GetDebtPayments(ctx, debt.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	requirePaidMatchesPayments(t, reloaded, payments)
	requireNoDrift(t, ctx)
}

func TestUpdateDebtPaymentAppliesDifference(t *testing.T) {
	ctx := newTestBusiness(t)
	debt, err := CreateExternalDebt(ctx, &NewExternalDebt{CreditorName: "Supplier Loan", TotalAmount: dec(5000)})
	require.NoError(t, err)
	payment, err := AddDebtPayment(ctx, debt.ID, &NewDebtPayment{Amount: dec(1000)})
	require.NoError(t, err)
	_, err = AddDebtPayment(ctx, debt.ID, &NewDebtPayment{Amount: dec(500)})
	require.NoError(t, err)

	updated, err := UpdateDebtPayment(ctx, payment.ID, &NewDebtPayment{Amount: dec(2500), Note: "corrected"})
	require.NoError(t, err)
	requireDecimal(t, 2500, updated.Amount)

	reloaded, err := GetExternalDebt(ctx, debt.ID)
	require.NoError(t, err)
	requireDecimal(t, 3000, reloaded.PaidAmount)

	_, err = UpdateDebtPayment(ctx, payment.ID, &NewDebtPayment{Amount: dec(200)})
	require.NoError(t, err)
	reloaded, err = GetExternalDebt(ctx, debt.ID)
	require.NoError(t, err)
	requireDecimal(t, 700, reloaded.PaidAmount)

	payments, err := GetDebtPayments(ctx, debt.ID)
	require.NoError(t, err)
	requirePaidMatchesPayments(t, reloaded, payments)
	requireNoDrift(t, ctx)
}

func TestDebtOverpaymentAndValidation(t *testing.T) {
	ctx := newTestBusiness(t)
	debt, err := CreateExternalDebt(ctx, &NewExternalDebt{CreditorName: "Uncle", TotalAmount: dec(100)})
	require.NoError(t, err)

	_, err = AddDebtPayment(ctx, debt.ID, &NewDebtPayment{Amount: dec(150)})
	require.NoError(t, err)
	reloaded, err := GetExternalDebt(ctx, debt.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsFullyPaid)
	requireDecimal(t, -50, reloaded.RemainingAmount)

	_, err = AddDebtPayment(ctx, debt.ID, &NewDebtPayment{Amount: decimal.Zero})
	assert.True(t, utils.IsValidation(err))
	_, err = AddDebtPayment(ctx, debt.ID+50, &NewDebtPayment{Amount: dec(1)})
	assert.True(t, utils.IsNotFound(err))

	_, err = DeleteExternalDebt(ctx, debt.ID)
	assert.True(t, utils.IsValidation(err))

	_, err = CreateExternalDebt(ctx, &NewExternalDebt{CreditorName: " ", TotalAmount: dec(1)})
	assert.True(t, utils.IsValidation(err))
}

func TestExternalDebtEditsEmitLedgerEvents(t *testing.T) {
	ctx := newTestBusiness(t)
	debt, err := CreateExternalDebt(ctx, &NewExternalDebt{CreditorName: "Cousin", TotalAmount: dec(1000)})
	require.NoError(t, err)
	_, err = AddDebtPayment(ctx, debt.ID, &NewDebtPayment{Amount: dec(600)})
	require.NoError(t, err)

	// lowering the total flips is_fully_paid without touching paid_amount
	updated, err := UpdateExternalDebt(ctx, debt.ID, &NewExternalDebt{CreditorName: "Cousin", TotalAmount: dec(500)})
	require.NoError(t, err)
	assert.True(t, updated.IsFullyPaid)
	requireDecimal(t, 600, updated.PaidAmount)

	events, err := GetLedgerEvents(ctx, OutboxPublishStatusPending, "external_debts", debt.ID, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	empty, err := CreateExternalDebt(ctx, &NewExternalDebt{CreditorName: "Neighbour", TotalAmount: dec(20)})
	require.NoError(t, err)
	_, err = DeleteExternalDebt(ctx, empty.ID)
	require.NoError(t, err)
	events, err = GetLedgerEvents(ctx, "", "external_debts", empty.ID, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	_, err = GetExternalDebt(ctx, empty.ID)
	assert.True(t, utils.IsNotFound(err))
}
