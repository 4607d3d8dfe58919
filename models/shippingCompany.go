package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

type ShippingCompany struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"size:64;index;not null" json:"business_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewShippingCompany struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

func (s ShippingCompany) GetBusinessId() string {
	return s.BusinessId
}

func (input *NewShippingCompany) validate(ctx context.Context, businessId string, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.NewValidationError("shipping company name is required")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[ShippingCompany](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[ShippingCompany](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	phone, err := utils.NormalizeOptionalPhone(input.Phone)
	if err != nil {
		return err
	}
	input.Phone = phone
	return nil
}

func CreateShippingCompany(ctx context.Context, input *NewShippingCompany) (*ShippingCompany, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	shippingCompany := ShippingCompany{
		BusinessId: businessId,
		Name:       input.Name,
		Phone:      input.Phone,
		Notes:      input.Notes,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&shippingCompany).Error; err != nil {
		return nil, err
	}
	return &shippingCompany, nil
}

func UpdateShippingCompany(ctx context.Context, id int, input *NewShippingCompany) (*ShippingCompany, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Model(&ShippingCompany{}).Where("business_id = ? AND id = ?", businessId, id).
		Updates(map[string]interface{}{
			"name":  input.Name,
			"phone": input.Phone,
			"notes": input.Notes,
		}).Error
	if err != nil {
		return nil, err
	}
	if err := clearResource[ShippingCompany](ctx, id); err != nil {
		return nil, err
	}
	return utils.FetchModel[ShippingCompany](ctx, businessId, id)
}

func DeleteShippingCompany(ctx context.Context, id int) (*ShippingCompany, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[ShippingCompany](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[Container](ctx, businessId, "shipping_company_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("shipping company has containers")
	}
	if count, err = utils.ResourceCountWhere[ShippingPayment](ctx, businessId, "shipping_company_id = ?", id); err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("shipping company has payments")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	if err := clearResource[ShippingCompany](ctx, id); err != nil {
		return nil, err
	}
	return result, nil
}

func GetShippingCompany(ctx context.Context, id int) (*ShippingCompany, error) {
	return GetResource[ShippingCompany](ctx, id)
}

func GetShippingCompanies(ctx context.Context, name *string) ([]*ShippingCompany, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var results []*ShippingCompany
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
