package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/metrics"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
)

type Transfer struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"size:64;index;not null" json:"business_id"`
	FromCompanyId int             `gorm:"index;not null" json:"from_company_id"`
	ToCompanyId   int             `gorm:"index;not null" json:"to_company_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Status        TransferStatus  `gorm:"size:20;index;not null;default:pending" json:"status"`
	Note          string          `gorm:"type:text" json:"note"`
	TransferDate  time.Time       `gorm:"not null" json:"transfer_date"`
	// parent flags as they were at approval, used to reverse debt_to_parent exactly
	FromWasParent bool       `gorm:"not null;default:false" json:"from_was_parent"`
	ToWasParent   bool       `gorm:"not null;default:false" json:"to_was_parent"`
	ApprovedAt    *time.Time `json:"approved_at"`
	ApprovedBy    *int       `json:"approved_by"`
	RejectedAt    *time.Time `json:"rejected_at"`
	RejectedBy    *int       `json:"rejected_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransfer struct {
	FromCompanyId int             `json:"from_company_id" binding:"required"`
	ToCompanyId   int             `json:"to_company_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Note          string          `json:"note"`
	TransferDate  *time.Time      `json:"transfer_date"`
}

type TransferFilter struct {
	CompanyId *int
	Status    *TransferStatus
	FromDate  *time.Time
	ToDate    *time.Time
	After     *string
	Limit     int
}

func (t Transfer) GetId() int {
	return t.ID
}

func (input *NewTransfer) validate(ctx context.Context, businessId string) error {
	if input.FromCompanyId == input.ToCompanyId {
		return utils.NewValidationError("cannot transfer to the same company")
	}
	if err := validatePositiveAmount("amount", input.Amount); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Company](ctx, businessId, input.FromCompanyId); err != nil {
		return notFoundAsValidation(err, "from company")
	}
	if err := utils.ValidateResourceId[Company](ctx, businessId, input.ToCompanyId); err != nil {
		return notFoundAsValidation(err, "to company")
	}
	if scoped, ok := childCompanyScope(ctx); ok {
		if input.FromCompanyId != scoped && input.ToCompanyId != scoped {
			return utils.ErrorPermissionDenied
		}
	}
	return nil
}

func CreateTransfer(ctx context.Context, input *NewTransfer) (result *Transfer, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "CreateTransfer")
	defer func() { endLedgerSpan(span, err) }()

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	transfer := Transfer{
		BusinessId:    businessId,
		FromCompanyId: input.FromCompanyId,
		ToCompanyId:   input.ToCompanyId,
		Amount:        input.Amount,
		Status:        TransferStatusPending,
		Note:          input.Note,
		TransferDate:  utils.DereferencePtr(input.TransferDate, time.Now()),
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "transfers", ActionCreate, transfer.ID, nil, transfer, "created transfer"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("transfer", ActionCreate)

	return &transfer, nil
}

// UpdateTransfer edits a transfer that is still pending. It has no balance effect.
func UpdateTransfer(ctx context.Context, id int, input *NewTransfer) (result *Transfer, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "UpdateTransfer")
	defer func() { endLedgerSpan(span, err) }()

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	transfer, err := lockRow[Transfer](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if transfer.Status != TransferStatusPending {
		tx.Rollback()
		return nil, utils.NewConflictError("transfer is already %s", transfer.Status)
	}
	before := *transfer

	transfer.FromCompanyId = input.FromCompanyId
	transfer.ToCompanyId = input.ToCompanyId
	transfer.Amount = input.Amount
	transfer.Note = input.Note
	transfer.TransferDate = utils.DereferencePtr(input.TransferDate, transfer.TransferDate)
	err = tx.Model(transfer).Updates(map[string]interface{}{
		"from_company_id": transfer.FromCompanyId,
		"to_company_id":   transfer.ToCompanyId,
		"amount":          transfer.Amount,
		"note":            transfer.Note,
		"transfer_date":   transfer.TransferDate,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "transfers", ActionUpdate, id, before, transfer, "updated transfer"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("transfer", ActionUpdate)

	return transfer, nil
}

// ApproveTransfer moves the money: from.balance -= amount, to.balance += amount, and adjusts the
// child's debt_to_parent when exactly one side is the parent.
func ApproveTransfer(ctx context.Context, id int) (result *Transfer, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "ApproveTransfer")
	defer func() { endLedgerSpan(span, err) }()
	userId, _ := utils.GetUserIdFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	transfer, err := lockRow[Transfer](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if transfer.Status != TransferStatusPending {
		tx.Rollback()
		return nil, utils.NewConflictError("transfer is already %s", transfer.Status)
	}
	companies, err := lockCompanies(tx, businessId, transfer.FromCompanyId, transfer.ToCompanyId)
	if err != nil {
		tx.Rollback()
		return nil, notFoundAsValidation(err, "company")
	}
	before := *transfer

	transfer.FromWasParent = companies[transfer.FromCompanyId].IsParent
	transfer.ToWasParent = companies[transfer.ToCompanyId].IsParent
	if err := applyCompanyDeltas(tx, companies, transferDeltas(transfer)); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	transfer.Status = TransferStatusApproved
	transfer.ApprovedAt = &now
	transfer.ApprovedBy = &userId
	err = tx.Model(transfer).Updates(map[string]interface{}{
		"status":          transfer.Status,
		"from_was_parent": transfer.FromWasParent,
		"to_was_parent":   transfer.ToWasParent,
		"approved_at":     transfer.ApprovedAt,
		"approved_by":     transfer.ApprovedBy,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "transfers", ActionApprove, id, before, transfer, "approved transfer"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("transfer", ActionApprove)

	return transfer, nil
}

func RejectTransfer(ctx context.Context, id int) (result *Transfer, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "RejectTransfer")
	defer func() { endLedgerSpan(span, err) }()
	userId, _ := utils.GetUserIdFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	transfer, err := lockRow[Transfer](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if transfer.Status != TransferStatusPending {
		tx.Rollback()
		return nil, utils.NewConflictError("transfer is already %s", transfer.Status)
	}
	before := *transfer

	now := time.Now()
	transfer.Status = TransferStatusRejected
	transfer.RejectedAt = &now
	transfer.RejectedBy = &userId
	err = tx.Model(transfer).Updates(map[string]interface{}{
		"status":      transfer.Status,
		"rejected_at": transfer.RejectedAt,
		"rejected_by": transfer.RejectedBy,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "transfers", ActionReject, id, before, transfer, "rejected transfer"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("transfer", ActionReject)

	return transfer, nil
}

// DeleteTransfer removes the row; an approved transfer first has its approval deltas reversed.
func DeleteTransfer(ctx context.Context, id int) (result *Transfer, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "DeleteTransfer")
	defer func() { endLedgerSpan(span, err) }()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	transfer, err := lockRow[Transfer](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if transfer.Status == TransferStatusApproved {
		companies, err := lockCompanies(tx, businessId, transfer.FromCompanyId, transfer.ToCompanyId)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := applyCompanyDeltas(tx, companies, invertDeltas(transferDeltas(transfer))); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Delete(transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "transfers", ActionDelete, id, transfer, nil, "deleted "+string(transfer.Status)+" transfer"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("transfer", ActionDelete)

	return transfer, nil
}

func GetTransfer(ctx context.Context, id int) (*Transfer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	transfer, err := utils.FetchModel[Transfer](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if scoped, ok := childCompanyScope(ctx); ok {
		if transfer.FromCompanyId != scoped && transfer.ToCompanyId != scoped {
			return nil, utils.ErrorRecordNotFound
		}
	}
	return transfer, nil
}

func PaginateTransfers(ctx context.Context, filter TransferFilter) (*Page[Transfer], error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Transfer{}).Where("business_id = ?", businessId)
	if scoped, ok := childCompanyScope(ctx); ok {
		dbCtx = dbCtx.Where("from_company_id = ? OR to_company_id = ?", scoped, scoped)
	}
	if filter.CompanyId != nil {
		dbCtx = dbCtx.Where("from_company_id = ? OR to_company_id = ?", *filter.CompanyId, *filter.CompanyId)
	}
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("transfer_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("transfer_date <= ?", *filter.ToDate)
	}
	return paginateById[Transfer](dbCtx, filter.After, filter.Limit)
}
