package models

import (
	"testing"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplierAccount(t *testing.T) {
	ctx := newTestBusiness(t)
	supplier, err := CreateSupplier(ctx, &NewSupplier{Name: "Guangzhou Textiles"})
	require.NoError(t, err)

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	_, err = CreateSupplierDelivery(ctx, &NewSupplierDelivery{
		SupplierId:      supplier.ID,
		DeliveryDate:    &day1,
		ReferenceNumber: "INV-7",
		Items: []NewSupplierDeliveryItem{
			{Description: "cotton", Quantity: dec(10), UnitPrice: dec(50), Currency: CurrencyCNY},
			{Description: "zippers", Quantity: dec(4), UnitPrice: dec(25), Currency: CurrencyUSD},
		},
	})
	require.NoError(t, err)

	payment, err := CreateSupplierPayment(ctx, &NewPartyPayment{PartyId: supplier.ID, Amount: dec(200), Currency: CurrencyCNY, PaymentDate: &day2})
	require.NoError(t, err)
	assert.True(t, payment.ExchangeRate.Equal(decimal.NewFromInt(1)))
	_, err = CreateSupplierPayment(ctx, &NewPartyPayment{PartyId: supplier.ID, Amount: dec(40), Currency: CurrencyUSD, ExchangeRate: decimal.RequireFromString("7.1"), PaymentDate: &day2})
	require.NoError(t, err)

	account, err := GetSupplierAccount(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "Guangzhou Textiles", account.PartyName)
	require.Len(t, account.Lines, 4)
	requireDecimal(t, 500, account.Summary.TotalCNY)
	requireDecimal(t, 100, account.Summary.TotalUSD)
	requireDecimal(t, 200, account.Summary.PaidCNY)
	requireDecimal(t, 40, account.Summary.PaidUSD)
	requireDecimal(t, 300, account.Summary.RemainingCNY)
	requireDecimal(t, 60, account.Summary.RemainingUSD)
	assert.Equal(t, StatementKindDelivery, account.Lines[0].Kind)
	assert.Contains(t, account.Lines[0].Description, "INV-7")

	// the account is derived, so reading it again changes nothing
	again, err := GetSupplierAccount(ctx, supplier.ID)
	require.NoError(t, err)
	assert.True(t, again.Summary.RemainingCNY.Equal(account.Summary.RemainingCNY))
	assert.True(t, again.Summary.RemainingUSD.Equal(account.Summary.RemainingUSD))

	_, err = DeleteSupplierPayment(ctx, payment.ID)
	require.NoError(t, err)
	account, err = GetSupplierAccount(ctx, supplier.ID)
	require.NoError(t, err)
	requireDecimal(t, 500, account.Summary.RemainingCNY)
}

func TestSupplierPaymentValidation(t *testing.T) {
	ctx := newTestBusiness(t)
	supplier, err := CreateSupplier(ctx, &NewSupplier{Name: "Yiwu Hardware"})
	require.NoError(t, err)

	_, err = CreateSupplierPayment(ctx, &NewPartyPayment{PartyId: supplier.ID, Amount: dec(5), Currency: "EUR"})
	assert.True(t, utils.IsValidation(err))
	_, err = CreateSupplierPayment(ctx, &NewPartyPayment{PartyId: supplier.ID, Amount: dec(5), Currency: CurrencyCNY, ExchangeRate: dec(-1)})
	assert.True(t, utils.IsValidation(err))
	_, err = CreateSupplierPayment(ctx, &NewPartyPayment{PartyId: supplier.ID + 10, Amount: dec(5), Currency: CurrencyCNY})
	assert.True(t, utils.IsValidation(err))

	_, err = CreateSupplier(ctx, &NewSupplier{Name: "Yiwu Hardware"})
	assert.True(t, utils.IsValidation(err))
}

func TestUpdateSupplierDeliveryReplacesItems(t *testing.T) {
	ctx := newTestBusiness(t)
	supplier, err := CreateSupplier(ctx, &NewSupplier{Name: "Ningbo Plastics"})
	require.NoError(t, err)

	delivery, err := CreateSupplierDelivery(ctx, &NewSupplierDelivery{
		SupplierId: supplier.ID,
		Items: []NewSupplierDeliveryItem{
			{Description: "buckets", Quantity: dec(100), UnitPrice: dec(3), Currency: CurrencyCNY},
			{Description: "lids", Quantity: dec(100), UnitPrice: dec(1), Currency: CurrencyCNY},
		},
	})
	require.NoError(t, err)

	_, err = UpdateSupplierDelivery(ctx, delivery.ID, &NewSupplierDelivery{
		SupplierId:      supplier.ID,
		ReferenceNumber: "INV-9",
		Items: []NewSupplierDeliveryItem{
			{Description: "crates", Quantity: dec(10), UnitPrice: dec(12), Currency: CurrencyUSD},
		},
	})
	require.NoError(t, err)

	reloaded, err := GetSupplierDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "crates", reloaded.Items[0].Description)
	requireDecimal(t, 120, reloaded.Items[0].Total)
	assert.Equal(t, "INV-9", reloaded.ReferenceNumber)

	account, err := GetSupplierAccount(ctx, supplier.ID)
	require.NoError(t, err)
	requireDecimal(t, 0, account.Summary.TotalCNY)
	requireDecimal(t, 120, account.Summary.TotalUSD)

	_, err = DeleteSupplierDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	account, err = GetSupplierAccount(ctx, supplier.ID)
	require.NoError(t, err)
	requireDecimal(t, 0, account.Summary.TotalUSD)
	assert.Empty(t, account.Lines)
}
