package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
)

// SupplierPayment is settled in one currency. ExchangeRate is the manual rate the user entered
// and is informational; account totals are kept per currency.
type SupplierPayment struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"size:64;index;not null" json:"business_id"`
	SupplierId   int             `gorm:"index;not null" json:"supplier_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency     Currency        `gorm:"size:3;not null" json:"currency"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(20,6);not null;default:1" json:"exchange_rate"`
	PaymentDate  time.Time       `gorm:"not null" json:"payment_date"`
	Note         string          `gorm:"type:text" json:"note"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewPartyPayment is the input for both supplier and shipping company payments.
type NewPartyPayment struct {
	PartyId      int             `json:"party_id"`
	Amount       decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Currency     Currency        `json:"currency" binding:"required"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	PaymentDate  *time.Time      `json:"payment_date"`
	Note         string          `json:"note"`
}

func (p SupplierPayment) GetId() int {
	return p.ID
}

func (input *NewPartyPayment) validate() error {
	if err := validatePositiveAmount("amount", input.Amount); err != nil {
		return err
	}
	if !input.Currency.IsValid() {
		return utils.NewValidationError("invalid currency %q", input.Currency)
	}
	if input.ExchangeRate.IsZero() {
		input.ExchangeRate = decimal.NewFromInt(1)
	}
	if input.ExchangeRate.IsNegative() {
		return utils.NewValidationError("exchange rate cannot be negative")
	}
	return nil
}

func CreateSupplierPayment(ctx context.Context, input *NewPartyPayment) (*SupplierPayment, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Supplier](ctx, businessId, input.PartyId); err != nil {
		return nil, notFoundAsValidation(err, "supplier")
	}

	payment := SupplierPayment{
		BusinessId:   businessId,
		SupplierId:   input.PartyId,
		Amount:       input.Amount,
		Currency:     input.Currency,
		ExchangeRate: input.ExchangeRate,
		PaymentDate:  utils.DereferencePtr(input.PaymentDate, time.Now()),
		Note:         input.Note,
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionCreate, payment.ID, "supplier_payments", nil, payment, "created supplier payment"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateSupplierPayment replaces amount, currency, rate and date of the payment.
func UpdateSupplierPayment(ctx context.Context, id int, input *NewPartyPayment) (*SupplierPayment, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	existing, err := utils.FetchModel[SupplierPayment](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	payment := *existing
	payment.Amount = input.Amount
	payment.Currency = input.Currency
	payment.ExchangeRate = input.ExchangeRate
	payment.PaymentDate = utils.DereferencePtr(input.PaymentDate, existing.PaymentDate)
	payment.Note = input.Note

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err = tx.Model(&payment).Updates(map[string]interface{}{
		"amount":        payment.Amount,
		"currency":      payment.Currency,
		"exchange_rate": payment.ExchangeRate,
		"payment_date":  payment.PaymentDate,
		"note":          payment.Note,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionUpdate, id, "supplier_payments", existing, payment, "replaced supplier payment"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func DeleteSupplierPayment(ctx context.Context, id int) (*SupplierPayment, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[SupplierPayment](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionDelete, id, "supplier_payments", result, nil, "deleted supplier payment"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetSupplierPayment(ctx context.Context, id int) (*SupplierPayment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SupplierPayment](ctx, businessId, id)
}

func GetSupplierPayments(ctx context.Context, supplierId int) ([]*SupplierPayment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var results []*SupplierPayment
	if err := db.WithContext(ctx).
		Where("business_id = ? AND supplier_id = ?", businessId, supplierId).
		Order("payment_date, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
