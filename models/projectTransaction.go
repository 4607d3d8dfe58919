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

// ProjectTransaction moves money through the parent company: income and expense hit both the
// project and the parent's cash.
type ProjectTransaction struct {
	ID              int                    `gorm:"primary_key" json:"id"`
	BusinessId      string                 `gorm:"size:64;index;not null" json:"business_id"`
	ProjectId       int                    `gorm:"index;not null" json:"project_id"`
	CompanyId       int                    `gorm:"index;not null" json:"company_id"`
	Type            ProjectTransactionType `gorm:"size:20;not null" json:"type"`
	Amount          decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"amount"`
	Note            string                 `gorm:"type:text" json:"note"`
	TransactionDate time.Time              `gorm:"not null" json:"transaction_date"`
	CreatedAt       time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProjectTransaction struct {
	ProjectId       int                    `json:"project_id" binding:"required"`
	Type            ProjectTransactionType `json:"type" binding:"required"`
	Amount          decimal.Decimal        `json:"amount" binding:"required,gt=0"`
	Note            string                 `json:"note"`
	TransactionDate *time.Time             `json:"transaction_date"`
}

func (t ProjectTransaction) GetId() int {
	return t.ID
}

func AddProjectTransaction(ctx context.Context, input *NewProjectTransaction) (result *ProjectTransaction, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "AddProjectTransaction")
	defer func() { endLedgerSpan(span, err) }()

	if !input.Type.IsValid() {
		return nil, utils.NewValidationError("invalid project transaction type %q", input.Type)
	}
	if err := validatePositiveAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	project, err := lockRow[Project](tx, businessId, input.ProjectId)
	if err != nil {
		tx.Rollback()
		return nil, notFoundAsValidation(err, "project")
	}
	parent, err := lockParentCompany(tx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	delta := projectDelta(input.Type, input.Amount)
	project.Balance = project.Balance.Add(delta)
	if err := tx.Model(project).Update("balance", project.Balance).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustCompanyBalance(tx, parent, delta); err != nil {
		tx.Rollback()
		return nil, err
	}

	txn := ProjectTransaction{
		BusinessId:      businessId,
		ProjectId:       project.ID,
		CompanyId:       parent.ID,
		Type:            input.Type,
		Amount:          input.Amount,
		Note:            input.Note,
		TransactionDate: utils.DereferencePtr(input.TransactionDate, time.Now()),
	}
	if err := tx.Create(&txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "project_transactions", ActionCreate, txn.ID, nil, txn, string(txn.Type)+" on "+project.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("project_transaction", ActionCreate)

	return &txn, nil
}

func DeleteProjectTransaction(ctx context.Context, id int) (result *ProjectTransaction, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "DeleteProjectTransaction")
	defer func() { endLedgerSpan(span, err) }()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	txn, err := lockRow[ProjectTransaction](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	project, err := lockRow[Project](tx, businessId, txn.ProjectId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	companies, err := lockCompanies(tx, businessId, txn.CompanyId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	delta := projectDelta(txn.Type, txn.Amount).Neg()
	project.Balance = project.Balance.Add(delta)
	if err := tx.Model(project).Update("balance", project.Balance).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustCompanyBalance(tx, companies[txn.CompanyId], delta); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "project_transactions", ActionDelete, id, txn, nil, "deleted "+string(txn.Type)+" on "+project.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("project_transaction", ActionDelete)

	return txn, nil
}

func GetProjectTransaction(ctx context.Context, id int) (*ProjectTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ProjectTransaction](ctx, businessId, id)
}

func PaginateProjectTransactions(ctx context.Context, projectId *int, after *string, limit int) (*Page[ProjectTransaction], error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&ProjectTransaction{}).Where("business_id = ?", businessId)
	if projectId != nil && *projectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", *projectId)
	}
	return paginateById[ProjectTransaction](dbCtx, after, limit)
}
