package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

type Business struct {
	ID        string    `gorm:"primary_key;size:64" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Timezone  string    `gorm:"size:50" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Timezone string `json:"timezone"`
}

func (b Business) GetBusinessId() string {
	return b.ID
}

// CreateBusiness opens a new tenant. Only platform admins reach this.
func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, utils.NewValidationError("business name is required")
	}
	phone, err := utils.NormalizeOptionalPhone(input.Phone)
	if err != nil {
		return nil, err
	}
	timezone := "Asia/Shanghai"
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return nil, utils.NewValidationError("invalid timezone %s", input.Timezone)
		}
		timezone = input.Timezone
	}

	business := Business{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:    phone,
		Timezone: timezone,
		IsActive: utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func GetBusiness(ctx context.Context) (*Business, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return getBusinessById(ctx, businessId)
}

func getBusinessById(ctx context.Context, businessId string) (*Business, error) {
	var business Business
	exists, err := config.GetRedisObject(ctx, "Business:"+businessId, &business)
	if err != nil {
		return nil, err
	}
	if exists {
		return &business, nil
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", businessId).Take(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := config.SetRedisObject(ctx, "Business:"+businessId, &business, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return &business, nil
}

func UpdateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	business, err := GetBusiness(ctx)
	if err != nil {
		return nil, err
	}
	phone, err := utils.NormalizeOptionalPhone(input.Phone)
	if err != nil {
		return nil, err
	}
	timezone := business.Timezone
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return nil, utils.NewValidationError("invalid timezone %s", input.Timezone)
		}
		timezone = input.Timezone
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Business{ID: business.ID}).Updates(map[string]interface{}{
		"name":     strings.TrimSpace(input.Name),
		"email":    strings.ToLower(strings.TrimSpace(input.Email)),
		"phone":    phone,
		"timezone": timezone,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(ctx, "Business:"+business.ID); err != nil {
		return nil, err
	}
	return getBusinessById(ctx, business.ID)
}
