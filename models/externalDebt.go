package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/metrics"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExternalDebt is money the business owes an outside creditor. PaidAmount is the only stored
// ledger field; remaining and fully-paid are derived on every load.
type ExternalDebt struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"size:64;index;not null" json:"business_id"`
	CreditorName    string          `gorm:"size:100;not null" json:"creditor_name"`
	Description     string          `gorm:"type:text" json:"description"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`
	DueDate         *time.Time      `json:"due_date"`
	RemainingAmount decimal.Decimal `gorm:"-" json:"remaining_amount"`
	IsFullyPaid     bool            `gorm:"-" json:"is_fully_paid"`
	Payments        []DebtPayment   `gorm:"foreignKey:DebtId" json:"payments,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewExternalDebt struct {
	CreditorName string          `json:"creditor_name" binding:"required"`
	Description  string          `json:"description"`
	TotalAmount  decimal.Decimal `json:"total_amount" binding:"required,gt=0"`
	DueDate      *time.Time      `json:"due_date"`
}

func (d ExternalDebt) GetId() int {
	return d.ID
}

func (d *ExternalDebt) AfterFind(tx *gorm.DB) error {
	d.derive()
	return nil
}

func (d *ExternalDebt) derive() {
	d.RemainingAmount = d.TotalAmount.Sub(d.PaidAmount)
	d.IsFullyPaid = d.PaidAmount.GreaterThanOrEqual(d.TotalAmount)
}

func (input *NewExternalDebt) validate() error {
	input.CreditorName = strings.TrimSpace(input.CreditorName)
	if input.CreditorName == "" {
		return utils.NewValidationError("creditor name is required")
	}
	return validatePositiveAmount("total_amount", input.TotalAmount)
}

func CreateExternalDebt(ctx context.Context, input *NewExternalDebt) (*ExternalDebt, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	debt := ExternalDebt{
		BusinessId:   businessId,
		CreditorName: input.CreditorName,
		Description:  input.Description,
		TotalAmount:  input.TotalAmount,
		PaidAmount:   decimal.Zero,
		DueDate:      input.DueDate,
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&debt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "external_debts", ActionCreate, debt.ID, nil, debt, "created debt to "+debt.CreditorName); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("external_debt", ActionCreate)
	debt.derive()
	return &debt, nil
}

// UpdateExternalDebt edits the debt's terms. paid_amount is owned by the payments.
func UpdateExternalDebt(ctx context.Context, id int, input *NewExternalDebt) (*ExternalDebt, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	debt, err := lockRow[ExternalDebt](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	before := *debt
	debt.CreditorName = input.CreditorName
	debt.Description = input.Description
	debt.TotalAmount = input.TotalAmount
	debt.DueDate = input.DueDate
	err = tx.Model(debt).Updates(map[string]interface{}{
		"creditor_name": debt.CreditorName,
		"description":   debt.Description,
		"total_amount":  debt.TotalAmount,
		"due_date":      debt.DueDate,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	debt.derive()
	if err := recordMutation(tx, "external_debts", ActionUpdate, id, before, debt, "updated debt to "+debt.CreditorName); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("external_debt", ActionUpdate)
	return debt, nil
}

func DeleteExternalDebt(ctx context.Context, id int) (*ExternalDebt, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	result, err := lockRow[ExternalDebt](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	count, err := utils.ResourceCountWhereTx[DebtPayment](tx, businessId, "debt_id = ?", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if count > 0 {
		tx.Rollback()
		return nil, utils.NewValidationError("debt has payments")
	}
	if err := tx.Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "external_debts", ActionDelete, id, result, nil, "deleted debt to "+result.CreditorName); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("external_debt", ActionDelete)
	result.derive()
	return result, nil
}

func GetExternalDebt(ctx context.Context, id int) (*ExternalDebt, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ExternalDebt](ctx, businessId, id, "Payments")
}

func GetExternalDebts(ctx context.Context, creditorName *string, isFullyPaid *bool) ([]*ExternalDebt, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if creditorName != nil && len(*creditorName) > 0 {
		dbCtx = dbCtx.Where("creditor_name LIKE ?", "%"+*creditorName+"%")
	}
	if isFullyPaid != nil {
		if *isFullyPaid {
			dbCtx = dbCtx.Where("paid_amount >= total_amount")
		} else {
			dbCtx = dbCtx.Where("paid_amount < total_amount")
		}
	}
	var results []*ExternalDebt
	if err := dbCtx.Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
