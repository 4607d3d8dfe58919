package utils

import (
	"context"
	"reflect"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"gorm.io/gorm"
)

// check if id exists, using business_id in WHERE, return ErrorRecordNotFound
func ValidateResourceId[T any](ctx context.Context, businessId string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, businessId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

func ValidateUnique[T any](ctx context.Context, businessId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if exceptId == nil || reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, businessId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, businessId, column+" = ? AND NOT id = ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError("duplicate %s", column)
	}
	return nil
}

// count records, using WHERE business_id = ? AND $condition
// business_id can be blank for admin user
func ResourceCountWhere[T any](ctx context.Context, businessId string, condition string, value ...interface{}) (int64, error) {
	var model T
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	if businessId != "" {
		dbCtx = dbCtx.Where("business_id = ?", businessId)
	}
	var count int64
	if err := dbCtx.Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ResourceCountWhereTx counts inside an open transaction, after the caller has taken its row locks.
func ResourceCountWhereTx[T any](tx *gorm.DB, businessId string, condition string, value ...interface{}) (int64, error) {
	var model T
	var count int64
	if err := tx.Model(&model).Where("business_id = ?", businessId).Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
