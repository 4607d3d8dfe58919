package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/metrics"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DebtPayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:64;index;not null" json:"business_id"`
	DebtId      int             `gorm:"index;not null" json:"debt_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Note        string          `gorm:"type:text" json:"note"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDebtPayment struct {
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0"`
	PaymentDate *time.Time      `json:"payment_date"`
	Note        string          `json:"note"`
}

func (p DebtPayment) GetId() int {
	return p.ID
}

// adjustDebtPaid moves paid_amount on an already locked debt.
func adjustDebtPaid(tx *gorm.DB, debt *ExternalDebt, delta decimal.Decimal) error {
	debt.PaidAmount = debt.PaidAmount.Add(delta)
	if err := tx.Model(debt).Update("paid_amount", debt.PaidAmount).Error; err != nil {
		return err
	}
	debt.derive()
	return nil
}

// AddDebtPayment records a payment and raises the debt's paid_amount by the same amount.
// Overpayment is accepted.
func AddDebtPayment(ctx context.Context, debtId int, input *NewDebtPayment) (result *DebtPayment, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "AddDebtPayment")
	defer func() { endLedgerSpan(span, err) }()

	if err := validatePositiveAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	debt, err := lockRow[ExternalDebt](tx, businessId, debtId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustDebtPaid(tx, debt, input.Amount); err != nil {
		tx.Rollback()
		return nil, err
	}
	payment := DebtPayment{
		BusinessId:  businessId,
		DebtId:      debt.ID,
		Amount:      input.Amount,
		PaymentDate: utils.DereferencePtr(input.PaymentDate, time.Now()),
		Note:        input.Note,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "debt_payments", ActionCreate, payment.ID, nil, payment, "paid "+debt.CreditorName); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("debt_payment", ActionCreate)

	return &payment, nil
}

// UpdateDebtPayment edits a payment in place. paid_amount moves by new - old, where old is read
// from the locked row.
func UpdateDebtPayment(ctx context.Context, id int, input *NewDebtPayment) (result *DebtPayment, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "UpdateDebtPayment")
	defer func() { endLedgerSpan(span, err) }()

	if err := validatePositiveAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	payment, err := lockRow[DebtPayment](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	debt, err := lockRow[ExternalDebt](tx, businessId, payment.DebtId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	before := *payment

	if err := adjustDebtPaid(tx, debt, input.Amount.Sub(payment.Amount)); err != nil {
		tx.Rollback()
		return nil, err
	}
	payment.Amount = input.Amount
	payment.PaymentDate = utils.DereferencePtr(input.PaymentDate, payment.PaymentDate)
	payment.Note = input.Note
	err = tx.Model(payment).Updates(map[string]interface{}{
		"amount":       payment.Amount,
		"payment_date": payment.PaymentDate,
		"note":         payment.Note,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "debt_payments", ActionUpdate, id, before, payment, "updated payment to "+debt.CreditorName); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("debt_payment", ActionUpdate)

	return payment, nil
}

func DeleteDebtPayment(ctx context.Context, id int) (result *DebtPayment, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "DeleteDebtPayment")
	defer func() { endLedgerSpan(span, err) }()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	payment, err := lockRow[DebtPayment](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	debt, err := lockRow[ExternalDebt](tx, businessId, payment.DebtId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustDebtPaid(tx, debt, payment.Amount.Neg()); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "debt_payments", ActionDelete, id, payment, nil, "deleted payment to "+debt.CreditorName); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("debt_payment", ActionDelete)

	return payment, nil
}

func GetDebtPayments(ctx context.Context, debtId int) ([]*DebtPayment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateResourceId[ExternalDebt](ctx, businessId, debtId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*DebtPayment
	if err := db.WithContext(ctx).
		Where("business_id = ? AND debt_id = ?", businessId, debtId).
		Order("payment_date, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
