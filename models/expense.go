package models

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const MaxReceiptSizeBytes = 5 << 20

// Expense is plain bookkeeping; it does not move any company balance.
type Expense struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"size:64;index;not null" json:"business_id"`
	Category            string          `gorm:"size:100;not null;index" json:"category"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	ExpenseDate         time.Time       `gorm:"not null" json:"expense_date"`
	TruckId             *int            `gorm:"index" json:"truck_id"`
	Notes               string          `gorm:"type:text" json:"notes"`
	ReceiptUrl          string          `gorm:"size:512" json:"receipt_url"`
	ReceiptThumbnailUrl string          `gorm:"size:512" json:"receipt_thumbnail_url"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewExpense struct {
	Category    string          `json:"category" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0"`
	ExpenseDate *time.Time      `json:"expense_date"`
	TruckId     *int            `json:"truck_id"`
	Notes       string          `json:"notes"`
}

type ExpenseFilter struct {
	Category *string
	TruckId  *int
	FromDate *time.Time
	ToDate   *time.Time
	After    *string
	Limit    int
}

func (e Expense) GetId() int {
	return e.ID
}

func (input *NewExpense) validate(ctx context.Context, businessId string) error {
	input.Category = strings.TrimSpace(input.Category)
	if input.Category == "" {
		return utils.NewValidationError("expense category is required")
	}
	if err := validatePositiveAmount("amount", input.Amount); err != nil {
		return err
	}
	if input.TruckId != nil && *input.TruckId > 0 {
		if err := utils.ValidateResourceId[Truck](ctx, businessId, *input.TruckId); err != nil {
			return notFoundAsValidation(err, "truck")
		}
	} else {
		input.TruckId = nil
	}
	return nil
}

func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	expense := Expense{
		BusinessId:  businessId,
		Category:    input.Category,
		Amount:      input.Amount,
		ExpenseDate: utils.DereferencePtr(input.ExpenseDate, time.Now()),
		TruckId:     input.TruckId,
		Notes:       input.Notes,
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionCreate, expense.ID, "expenses", nil, expense, "created expense "+expense.Category); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func UpdateExpense(ctx context.Context, id int, input *NewExpense) (*Expense, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	existing, err := utils.FetchModel[Expense](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	expense := *existing
	expense.Category = input.Category
	expense.Amount = input.Amount
	expense.ExpenseDate = utils.DereferencePtr(input.ExpenseDate, existing.ExpenseDate)
	expense.TruckId = input.TruckId
	expense.Notes = input.Notes

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err = tx.Model(&expense).Updates(map[string]interface{}{
		"category":     expense.Category,
		"amount":       expense.Amount,
		"expense_date": expense.ExpenseDate,
		"truck_id":     expense.TruckId,
		"notes":        expense.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionUpdate, id, "expenses", existing, expense, "updated expense "+expense.Category); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// DeleteExpense removes the row; stored receipt objects are removed best effort when a store is given.
func DeleteExpense(ctx context.Context, id int, store utils.ObjectStore) (*Expense, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Expense](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionDelete, id, "expenses", result, nil, "deleted expense "+result.Category); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if store != nil {
		removeReceiptObjects(ctx, store, result.ReceiptUrl, result.ReceiptThumbnailUrl)
	}
	return result, nil
}

// AttachExpenseReceipt uploads a receipt and, for images, a 200px JPEG thumbnail.
func AttachExpenseReceipt(ctx context.Context, id int, store utils.ObjectStore, fileName string, contentType string, data []byte) (*Expense, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if len(data) == 0 {
		return nil, utils.NewValidationError("receipt file is empty")
	}
	if len(data) > MaxReceiptSizeBytes {
		return nil, utils.NewValidationError("receipt exceeds %d bytes", MaxReceiptSizeBytes)
	}
	expense, err := utils.FetchModel[Expense](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	objectKey := receiptObjectKey(businessId, id, fileName)
	if err := store.Put(ctx, objectKey, data, contentType); err != nil {
		return nil, err
	}
	receiptUrl := utils.BuildObjectAccessURL(objectKey)

	thumbnailUrl := ""
	if thumbnail, err := generateThumbnail(data); err == nil {
		thumbnailKey := path.Join(path.Dir(objectKey), "thumbnails", path.Base(objectKey))
		if err := store.Put(ctx, thumbnailKey, thumbnail, "image/jpeg"); err != nil {
			return nil, err
		}
		thumbnailUrl = utils.BuildObjectAccessURL(thumbnailKey)
	}

	oldReceipt, oldThumbnail := expense.ReceiptUrl, expense.ReceiptThumbnailUrl
	db := config.GetDB()
	err = db.WithContext(ctx).Model(expense).Updates(map[string]interface{}{
		"receipt_url":           receiptUrl,
		"receipt_thumbnail_url": thumbnailUrl,
	}).Error
	if err != nil {
		return nil, err
	}
	expense.ReceiptUrl = receiptUrl
	expense.ReceiptThumbnailUrl = thumbnailUrl
	removeReceiptObjects(ctx, store, oldReceipt, oldThumbnail)
	return expense, nil
}

func receiptObjectKey(businessId string, expenseId int, fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "receipt"
	}
	return fmt.Sprintf("receipts/%s/%d/%s-%s", businessId, expenseId, uuid.NewString()[:8], name)
}

func generateThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func removeReceiptObjects(ctx context.Context, store utils.ObjectStore, urls ...string) {
	for _, u := range urls {
		key := utils.ExtractObjectKeyFromURL(u)
		if key == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			config.GetLogger().WithFields(logrus.Fields{
				"object_key": key,
			}).WithError(err).Warn("failed to remove receipt object")
		}
	}
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Expense](ctx, businessId, id)
}

func PaginateExpenses(ctx context.Context, filter ExpenseFilter) (*Page[Expense], error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if filter.Category != nil && *filter.Category != "" {
		dbCtx = dbCtx.Where("category = ?", *filter.Category)
	}
	if filter.TruckId != nil && *filter.TruckId > 0 {
		dbCtx = dbCtx.Where("truck_id = ?", *filter.TruckId)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("expense_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("expense_date <= ?", *filter.ToDate)
	}
	return paginateById[Expense](dbCtx, filter.After, filter.Limit)
}
