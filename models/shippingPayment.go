package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
)

type ShippingPayment struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessId        string          `gorm:"size:64;index;not null" json:"business_id"`
	ShippingCompanyId int             `gorm:"index;not null" json:"shipping_company_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency          Currency        `gorm:"size:3;not null" json:"currency"`
	ExchangeRate      decimal.Decimal `gorm:"type:decimal(20,6);not null;default:1" json:"exchange_rate"`
	PaymentDate       time.Time       `gorm:"not null" json:"payment_date"`
	Note              string          `gorm:"type:text" json:"note"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p ShippingPayment) GetId() int {
	return p.ID
}

func CreateShippingPayment(ctx context.Context, input *NewPartyPayment) (*ShippingPayment, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[ShippingCompany](ctx, businessId, input.PartyId); err != nil {
		return nil, notFoundAsValidation(err, "shipping company")
	}

	payment := ShippingPayment{
		BusinessId:        businessId,
		ShippingCompanyId: input.PartyId,
		Amount:            input.Amount,
		Currency:          input.Currency,
		ExchangeRate:      input.ExchangeRate,
		PaymentDate:       utils.DereferencePtr(input.PaymentDate, time.Now()),
		Note:              input.Note,
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionCreate, payment.ID, "shipping_payments", nil, payment, "created shipping payment"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func UpdateShippingPayment(ctx context.Context, id int, input *NewPartyPayment) (*ShippingPayment, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	existing, err := utils.FetchModel[ShippingPayment](ctx, businessId, id)
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
	if err := createHistory(tx, ActionUpdate, id, "shipping_payments", existing, payment, "replaced shipping payment"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func DeleteShippingPayment(ctx context.Context, id int) (*ShippingPayment, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[ShippingPayment](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionDelete, id, "shipping_payments", result, nil, "deleted shipping payment"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetShippingPayment(ctx context.Context, id int) (*ShippingPayment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ShippingPayment](ctx, businessId, id)
}

func GetShippingPayments(ctx context.Context, shippingCompanyId int) ([]*ShippingPayment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var results []*ShippingPayment
	if err := db.WithContext(ctx).
		Where("business_id = ? AND shipping_company_id = ?", businessId, shippingCompanyId).
		Order("payment_date, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
