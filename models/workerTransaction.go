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

type WorkerTransaction struct {
	ID              int                   `gorm:"primary_key" json:"id"`
	BusinessId      string                `gorm:"size:64;index;not null" json:"business_id"`
	WorkerId        int                   `gorm:"index;not null" json:"worker_id"`
	Type            WorkerTransactionType `gorm:"size:20;not null" json:"type"`
	Amount          decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"amount"`
	Note            string                `gorm:"type:text" json:"note"`
	TransactionDate time.Time             `gorm:"not null" json:"transaction_date"`
	CreatedAt       time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWorkerTransaction struct {
	WorkerId        int                   `json:"worker_id" binding:"required"`
	Type            WorkerTransactionType `json:"type" binding:"required"`
	Amount          decimal.Decimal       `json:"amount" binding:"required,gt=0"`
	Note            string                `json:"note"`
	TransactionDate *time.Time            `json:"transaction_date"`
}

type NewSalaryRun struct {
	// when set, every active worker is paid this instead of their wage
	AmountOverride  *decimal.Decimal `json:"amount_override"`
	Note            string           `json:"note"`
	TransactionDate *time.Time       `json:"transaction_date"`
}

func (t WorkerTransaction) GetId() int {
	return t.ID
}

func (input *NewWorkerTransaction) validate() error {
	if !input.Type.IsValid() {
		return utils.NewValidationError("invalid worker transaction type %q", input.Type)
	}
	return validatePositiveAmount("amount", input.Amount)
}

// postWorkerTransaction applies the transaction to an already locked worker and inserts it.
func postWorkerTransaction(tx *gorm.DB, worker *Worker, txn *WorkerTransaction) error {
	worker.Balance = worker.Balance.Add(workerDelta(txn.Type, txn.Amount))
	if err := tx.Model(worker).Update("balance", worker.Balance).Error; err != nil {
		return err
	}
	worker.Status = workerStatus(worker.Balance)
	if err := tx.Create(txn).Error; err != nil {
		return err
	}
	return recordMutation(tx, "worker_transactions", ActionCreate, txn.ID, nil, txn,
		string(txn.Type)+" for "+worker.Name)
}

func AddWorkerTransaction(ctx context.Context, input *NewWorkerTransaction) (result *WorkerTransaction, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "AddWorkerTransaction")
	defer func() { endLedgerSpan(span, err) }()

	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	worker, err := lockRow[Worker](tx, businessId, input.WorkerId)
	if err != nil {
		tx.Rollback()
		return nil, notFoundAsValidation(err, "worker")
	}
	txn := WorkerTransaction{
		BusinessId:      businessId,
		WorkerId:        worker.ID,
		Type:            input.Type,
		Amount:          input.Amount,
		Note:            input.Note,
		TransactionDate: utils.DereferencePtr(input.TransactionDate, time.Now()),
	}
	if err := postWorkerTransaction(tx, worker, &txn); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("worker_transaction", ActionCreate)

	return &txn, nil
}

func DeleteWorkerTransaction(ctx context.Context, id int) (result *WorkerTransaction, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "DeleteWorkerTransaction")
	defer func() { endLedgerSpan(span, err) }()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	txn, err := lockRow[WorkerTransaction](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	worker, err := lockRow[Worker](tx, businessId, txn.WorkerId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	worker.Balance = worker.Balance.Sub(workerDelta(txn.Type, txn.Amount))
	if err := tx.Model(worker).Update("balance", worker.Balance).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "worker_transactions", ActionDelete, id, txn, nil, "deleted "+string(txn.Type)+" for "+worker.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("worker_transaction", ActionDelete)

	return txn, nil
}

// PaySalaries posts one salary transaction per active worker in a single transaction.
// Workers with no wage (and no override) are skipped.
func PaySalaries(ctx context.Context, input *NewSalaryRun) (results []*WorkerTransaction, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "PaySalaries")
	defer func() { endLedgerSpan(span, err) }()

	if input.AmountOverride != nil {
		if err := validatePositiveAmount("amount_override", *input.AmountOverride); err != nil {
			return nil, err
		}
	}
	date := utils.DereferencePtr(input.TransactionDate, time.Now())

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	var workers []*Worker
	err = tx.Clauses(lockingUpdate()).
		Where("business_id = ? AND is_active = ?", businessId, true).
		Order("id").Find(&workers).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, worker := range workers {
		amount := worker.Wage
		if input.AmountOverride != nil {
			amount = *input.AmountOverride
		}
		if !amount.IsPositive() {
			continue
		}
		txn := &WorkerTransaction{
			BusinessId:      businessId,
			WorkerId:        worker.ID,
			Type:            WorkerTransactionTypeSalary,
			Amount:          amount,
			Note:            input.Note,
			TransactionDate: date,
		}
		if err := postWorkerTransaction(tx, worker, txn); err != nil {
			tx.Rollback()
			return nil, err
		}
		results = append(results, txn)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	for range results {
		metrics.RecordLedgerMutation("worker_transaction", ActionCreate)
	}

	return results, nil
}

func GetWorkerTransaction(ctx context.Context, id int) (*WorkerTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[WorkerTransaction](ctx, businessId, id)
}

func PaginateWorkerTransactions(ctx context.Context, workerId *int, txType *WorkerTransactionType, after *string, limit int) (*Page[WorkerTransaction], error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&WorkerTransaction{}).Where("business_id = ?", businessId)
	if workerId != nil && *workerId > 0 {
		dbCtx = dbCtx.Where("worker_id = ?", *workerId)
	}
	if txType != nil && txType.IsValid() {
		dbCtx = dbCtx.Where("type = ?", *txType)
	}
	return paginateById[WorkerTransaction](dbCtx, after, limit)
}
