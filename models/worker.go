package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	WorkerStatusOwed   = "owed"
	WorkerStatusInDebt = "in_debt"
)

// Worker.Balance > 0: the company owes the worker. < 0: the worker is in debt to the company.
type Worker struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"size:64;index;not null" json:"business_id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Phone      string          `gorm:"size:20" json:"phone"`
	JobTitle   string          `gorm:"size:100" json:"job_title"`
	Wage       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"wage"`
	Balance    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	Status     string          `gorm:"-" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWorker struct {
	Name     string          `json:"name" binding:"required"`
	Phone    string          `json:"phone"`
	JobTitle string          `json:"job_title"`
	Wage     decimal.Decimal `json:"wage" binding:"gte=0"`
}

type DebtRecoverySuggestion struct {
	WorkerId        int             `json:"worker_id"`
	Balance         decimal.Decimal `json:"balance"`
	InDebt          bool            `json:"in_debt"`
	SuggestedAmount decimal.Decimal `json:"suggested_amount"`
}

func (w Worker) GetId() int {
	return w.ID
}

func (w *Worker) AfterFind(tx *gorm.DB) error {
	w.Status = workerStatus(w.Balance)
	return nil
}

func workerStatus(balance decimal.Decimal) string {
	if balance.IsNegative() {
		return WorkerStatusInDebt
	}
	return WorkerStatusOwed
}

var (
	debtRecoveryHigh     = decimal.NewFromInt(200000)
	debtRecoveryMid      = decimal.NewFromInt(100000)
	debtRecoveryHighStep = decimal.NewFromInt(20000)
	debtRecoveryMidStep  = decimal.NewFromInt(10000)
	debtRecoveryBaseStep = decimal.NewFromInt(5000)
)

// SuggestDebtRecovery is the default installment offered when recovering a worker's debt.
// It is a hint; any amount may be posted.
func SuggestDebtRecovery(balance decimal.Decimal) decimal.Decimal {
	abs := balance.Abs()
	switch {
	case abs.GreaterThan(debtRecoveryHigh):
		return debtRecoveryHighStep
	case abs.GreaterThanOrEqual(debtRecoveryMid):
		return debtRecoveryMidStep
	default:
		return debtRecoveryBaseStep
	}
}

func (input *NewWorker) validate(ctx context.Context, businessId string, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.NewValidationError("worker name is required")
	}
	if input.Wage.IsNegative() {
		return utils.NewValidationError("wage cannot be negative")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Worker](ctx, businessId, id); err != nil {
			return err
		}
	}
	phone, err := utils.NormalizeOptionalPhone(input.Phone)
	if err != nil {
		return err
	}
	input.Phone = phone
	return nil
}

func CreateWorker(ctx context.Context, input *NewWorker) (*Worker, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	worker := Worker{
		BusinessId: businessId,
		Name:       input.Name,
		Phone:      input.Phone,
		JobTitle:   input.JobTitle,
		Wage:       input.Wage,
		IsActive:   utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&worker).Error; err != nil {
		return nil, err
	}
	worker.Status = workerStatus(worker.Balance)
	return &worker, nil
}

func UpdateWorker(ctx context.Context, id int, input *NewWorker) (*Worker, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Worker{}).Where("business_id = ? AND id = ?", businessId, id).
		Updates(map[string]interface{}{
			"name":      input.Name,
			"phone":     input.Phone,
			"job_title": input.JobTitle,
			"wage":      input.Wage,
		}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Worker](ctx, businessId, id)
}

func ToggleActiveWorker(ctx context.Context, id int, isActive bool) (*Worker, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	worker, err := utils.FetchModel[Worker](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(worker).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	worker.IsActive = &isActive
	return worker, nil
}

func DeleteWorker(ctx context.Context, id int) (*Worker, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Worker](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[WorkerTransaction](ctx, businessId, "worker_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("worker has transactions")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetWorker(ctx context.Context, id int) (*Worker, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Worker](ctx, businessId, id)
}

func GetWorkers(ctx context.Context, name *string, status *string, isActive *bool) ([]*Worker, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if status != nil {
		switch *status {
		case WorkerStatusOwed:
			dbCtx = dbCtx.Where("balance >= 0")
		case WorkerStatusInDebt:
			dbCtx = dbCtx.Where("balance < 0")
		}
	}
	if isActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *isActive)
	}
	var results []*Worker
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetDebtRecoverySuggestion(ctx context.Context, id int) (*DebtRecoverySuggestion, error) {
	worker, err := GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DebtRecoverySuggestion{
		WorkerId:        worker.ID,
		Balance:         worker.Balance,
		InDebt:          worker.Balance.IsNegative(),
		SuggestedAmount: SuggestDebtRecovery(worker.Balance),
	}, nil
}

// WorkerNames backs the worker dataloader.
func WorkerNames(ctx context.Context, businessId string, ids []int) (map[int]string, error) {
	type row struct {
		ID   int
		Name string
	}
	var rows []row
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Worker{}).
		Where("business_id = ? AND id IN ?", businessId, ids).
		Select("id, name").Scan(&rows).Error; err != nil {
		return nil, err
	}
	names := make(map[int]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}
