package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	StatementKindDelivery = "delivery"
	StatementKindCharge   = "charge"
	StatementKindPayment  = "payment"
)

type AccountSummary struct {
	TotalCNY     decimal.Decimal `json:"total_cny"`
	TotalUSD     decimal.Decimal `json:"total_usd"`
	PaidCNY      decimal.Decimal `json:"paid_cny"`
	PaidUSD      decimal.Decimal `json:"paid_usd"`
	RemainingCNY decimal.Decimal `json:"remaining_cny"`
	RemainingUSD decimal.Decimal `json:"remaining_usd"`
}

// StatementLine is one dated movement. Debit grows what we owe the party, Credit is a payment.
type StatementLine struct {
	Date        time.Time       `json:"date"`
	Kind        string          `json:"kind"`
	ReferenceId int             `json:"reference_id"`
	Description string          `json:"description"`
	Currency    Currency        `json:"currency"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	BalanceCNY  decimal.Decimal `json:"balance_cny"`
	BalanceUSD  decimal.Decimal `json:"balance_usd"`
}

type AccountStatement struct {
	PartyId   int              `json:"party_id"`
	PartyName string           `json:"party_name"`
	Summary   AccountSummary   `json:"summary"`
	Lines     []*StatementLine `json:"lines"`
}

// summarizeStatement orders the lines by date, fills the running balances and totals them per currency.
func summarizeStatement(lines []*StatementLine) AccountSummary {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.Before(lines[j].Date)
		}
		// debits before credits on the same day
		return lines[i].Kind != StatementKindPayment && lines[j].Kind == StatementKindPayment
	})

	summary := AccountSummary{
		TotalCNY: decimal.Zero,
		TotalUSD: decimal.Zero,
		PaidCNY:  decimal.Zero,
		PaidUSD:  decimal.Zero,
	}
	for _, line := range lines {
		switch line.Currency {
		case CurrencyCNY:
			summary.TotalCNY = summary.TotalCNY.Add(line.Debit)
			summary.PaidCNY = summary.PaidCNY.Add(line.Credit)
		case CurrencyUSD:
			summary.TotalUSD = summary.TotalUSD.Add(line.Debit)
			summary.PaidUSD = summary.PaidUSD.Add(line.Credit)
		}
		line.BalanceCNY = summary.TotalCNY.Sub(summary.PaidCNY)
		line.BalanceUSD = summary.TotalUSD.Sub(summary.PaidUSD)
	}
	summary.RemainingCNY = summary.TotalCNY.Sub(summary.PaidCNY)
	summary.RemainingUSD = summary.TotalUSD.Sub(summary.PaidUSD)
	return summary
}

// GetSupplierAccount recomputes the supplier's account from deliveries and payments.
func GetSupplierAccount(ctx context.Context, supplierId int) (*AccountStatement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	supplier, err := utils.FetchModel[Supplier](ctx, businessId, supplierId)
	if err != nil {
		return nil, err
	}
	deliveries, err := GetSupplierDeliveries(ctx, supplierId)
	if err != nil {
		return nil, err
	}
	payments, err := GetSupplierPayments(ctx, supplierId)
	if err != nil {
		return nil, err
	}

	lines := make([]*StatementLine, 0)
	for _, delivery := range deliveries {
		for _, item := range delivery.Items {
			desc := item.Description
			if delivery.ReferenceNumber != "" {
				desc = fmt.Sprintf("%s (%s)", item.Description, delivery.ReferenceNumber)
			}
			lines = append(lines, &StatementLine{
				Date:        delivery.DeliveryDate,
				Kind:        StatementKindDelivery,
				ReferenceId: delivery.ID,
				Description: desc,
				Currency:    item.Currency,
				Debit:       item.Quantity.Mul(item.UnitPrice),
				Credit:      decimal.Zero,
			})
		}
	}
	for _, payment := range payments {
		lines = append(lines, &StatementLine{
			Date:        payment.PaymentDate,
			Kind:        StatementKindPayment,
			ReferenceId: payment.ID,
			Description: payment.Note,
			Currency:    payment.Currency,
			Debit:       decimal.Zero,
			Credit:      payment.Amount,
		})
	}

	return &AccountStatement{
		PartyId:   supplier.ID,
		PartyName: supplier.Name,
		Summary:   summarizeStatement(lines),
		Lines:     lines,
	}, nil
}

// GetShippingAccount recomputes the shipping company's account from container charges and payments.
func GetShippingAccount(ctx context.Context, shippingCompanyId int) (*AccountStatement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	shippingCompany, err := utils.FetchModel[ShippingCompany](ctx, businessId, shippingCompanyId)
	if err != nil {
		return nil, err
	}
	containers, err := GetContainers(ctx, &shippingCompanyId, nil)
	if err != nil {
		return nil, err
	}
	payments, err := GetShippingPayments(ctx, shippingCompanyId)
	if err != nil {
		return nil, err
	}

	lines := make([]*StatementLine, 0)
	for _, container := range containers {
		date := container.CreatedAt
		if container.DepartureDate != nil {
			date = *container.DepartureDate
		}
		for _, charge := range container.Charges {
			lines = append(lines, &StatementLine{
				Date:        date,
				Kind:        StatementKindCharge,
				ReferenceId: container.ID,
				Description: fmt.Sprintf("%s %s", container.ContainerNumber, charge.Description),
				Currency:    charge.Currency,
				Debit:       charge.Amount,
				Credit:      decimal.Zero,
			})
		}
	}
	for _, payment := range payments {
		lines = append(lines, &StatementLine{
			Date:        payment.PaymentDate,
			Kind:        StatementKindPayment,
			ReferenceId: payment.ID,
			Description: payment.Note,
			Currency:    payment.Currency,
			Debit:       decimal.Zero,
			Credit:      payment.Amount,
		})
	}

	return &AccountStatement{
		PartyId:   shippingCompany.ID,
		PartyName: shippingCompany.Name,
		Summary:   summarizeStatement(lines),
		Lines:     lines,
	}, nil
}
