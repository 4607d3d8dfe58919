package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

type Truck struct {
	ID          int         `gorm:"primary_key" json:"id"`
	BusinessId  string      `gorm:"size:64;index;not null" json:"business_id"`
	PlateNumber string      `gorm:"size:20;not null" json:"plate_number"`
	DriverName  string      `gorm:"size:100" json:"driver_name"`
	DriverPhone string      `gorm:"size:20" json:"driver_phone"`
	Status      TruckStatus `gorm:"size:20;not null;default:available" json:"status"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTruck struct {
	PlateNumber string      `json:"plate_number" binding:"required"`
	DriverName  string      `json:"driver_name"`
	DriverPhone string      `json:"driver_phone"`
	Status      TruckStatus `json:"status"`
}

func (t Truck) GetBusinessId() string {
	return t.BusinessId
}

func (input *NewTruck) validate(ctx context.Context, businessId string, id int) error {
	input.PlateNumber = strings.ToUpper(strings.Join(strings.Fields(input.PlateNumber), ""))
	if input.PlateNumber == "" {
		return utils.NewValidationError("plate number is required")
	}
	if input.Status == "" {
		input.Status = TruckStatusAvailable
	}
	if !input.Status.IsValid() {
		return utils.NewValidationError("invalid truck status %q", input.Status)
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Truck](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Truck](ctx, businessId, "plate_number", input.PlateNumber, id); err != nil {
		return err
	}
	phone, err := utils.NormalizeOptionalPhone(input.DriverPhone)
	if err != nil {
		return err
	}
	input.DriverPhone = phone
	return nil
}

func CreateTruck(ctx context.Context, input *NewTruck) (*Truck, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	truck := Truck{
		BusinessId:  businessId,
		PlateNumber: input.PlateNumber,
		DriverName:  input.DriverName,
		DriverPhone: input.DriverPhone,
		Status:      input.Status,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&truck).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func UpdateTruck(ctx context.Context, id int, input *NewTruck) (*Truck, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Truck{}).Where("business_id = ? AND id = ?", businessId, id).
		Updates(map[string]interface{}{
			"plate_number": input.PlateNumber,
			"driver_name":  input.DriverName,
			"driver_phone": input.DriverPhone,
			"status":       input.Status,
		}).Error
	if err != nil {
		return nil, err
	}
	if err := clearResource[Truck](ctx, id); err != nil {
		return nil, err
	}
	return utils.FetchModel[Truck](ctx, businessId, id)
}

func DeleteTruck(ctx context.Context, id int) (*Truck, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Truck](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[Expense](ctx, businessId, "truck_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("truck has expenses")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	if err := clearResource[Truck](ctx, id); err != nil {
		return nil, err
	}
	return result, nil
}

func GetTruck(ctx context.Context, id int) (*Truck, error) {
	return GetResource[Truck](ctx, id)
}

func GetTrucks(ctx context.Context, status *TruckStatus) ([]*Truck, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if status != nil && status.IsValid() {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	var results []*Truck
	if err := dbCtx.Order("plate_number").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
