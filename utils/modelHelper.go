package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (business_id is used in WHERE, may return ErrorRecordNotFound)
func FetchModel[T any](ctx context.Context, businessId string, id int, associations ...string) (*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	if err := dbCtx.First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models of the business, applying the given order clauses
func FetchAllModels[T any](ctx context.Context, businessId string, orders ...string) ([]*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	for _, order := range orders {
		dbCtx = dbCtx.Order(order)
	}
	var results []*T
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FetchModelTx loads a row inside an open transaction.
func FetchModelTx[T any](tx *gorm.DB, businessId string, id int) (*T, error) {
	var result T
	if err := tx.Where("business_id = ?", businessId).First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
