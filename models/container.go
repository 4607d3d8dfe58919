package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
)

type Container struct {
	ID                int               `gorm:"primary_key" json:"id"`
	BusinessId        string            `gorm:"size:64;index;not null" json:"business_id"`
	ShippingCompanyId int               `gorm:"index;not null" json:"shipping_company_id"`
	ContainerNumber   string            `gorm:"size:50;not null" json:"container_number"`
	Status            ContainerStatus   `gorm:"size:20;not null;default:loading" json:"status"`
	DepartureDate     *time.Time        `json:"departure_date"`
	ArrivalDate       *time.Time        `json:"arrival_date"`
	Notes             string            `gorm:"type:text" json:"notes"`
	Charges           []ContainerCharge `gorm:"foreignKey:ContainerId" json:"charges"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type ContainerCharge struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ContainerId int             `gorm:"index;not null" json:"container_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency    Currency        `gorm:"size:3;not null" json:"currency"`
}

type NewContainer struct {
	ShippingCompanyId int                  `json:"shipping_company_id" binding:"required"`
	ContainerNumber   string               `json:"container_number" binding:"required"`
	Status            ContainerStatus      `json:"status"`
	DepartureDate     *time.Time           `json:"departure_date"`
	ArrivalDate       *time.Time           `json:"arrival_date"`
	Notes             string               `json:"notes"`
	Charges           []NewContainerCharge `json:"charges" binding:"dive"`
}

type NewContainerCharge struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Currency    Currency        `json:"currency" binding:"required"`
}

func (c Container) GetId() int {
	return c.ID
}

func (input *NewContainer) validate(ctx context.Context, businessId string, id int) error {
	input.ContainerNumber = strings.ToUpper(strings.TrimSpace(input.ContainerNumber))
	if input.ContainerNumber == "" {
		return utils.NewValidationError("container number is required")
	}
	if input.Status == "" {
		input.Status = ContainerStatusLoading
	}
	if !input.Status.IsValid() {
		return utils.NewValidationError("invalid container status %q", input.Status)
	}
	if input.DepartureDate != nil && input.ArrivalDate != nil && input.ArrivalDate.Before(*input.DepartureDate) {
		return utils.NewValidationError("arrival date is before departure date")
	}
	if err := utils.ValidateResourceId[ShippingCompany](ctx, businessId, input.ShippingCompanyId); err != nil {
		return notFoundAsValidation(err, "shipping company")
	}
	if err := utils.ValidateUnique[Container](ctx, businessId, "container_number", input.ContainerNumber, id); err != nil {
		return err
	}
	for _, charge := range input.Charges {
		if !charge.Currency.IsValid() {
			return utils.NewValidationError("invalid currency %q", charge.Currency)
		}
		if err := validatePositiveAmount("charge amount", charge.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (input *NewContainer) charges(containerId int) []ContainerCharge {
	charges := make([]ContainerCharge, 0, len(input.Charges))
	for _, c := range input.Charges {
		charges = append(charges, ContainerCharge{
			ContainerId: containerId,
			Description: c.Description,
			Amount:      c.Amount,
			Currency:    c.Currency,
		})
	}
	return charges
}

func CreateContainer(ctx context.Context, input *NewContainer) (*Container, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	container := Container{
		BusinessId:        businessId,
		ShippingCompanyId: input.ShippingCompanyId,
		ContainerNumber:   input.ContainerNumber,
		Status:            input.Status,
		DepartureDate:     input.DepartureDate,
		ArrivalDate:       input.ArrivalDate,
		Notes:             input.Notes,
		Charges:           input.charges(0),
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&container).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionCreate, container.ID, "containers", nil, container, "created container "+container.ContainerNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &container, nil
}

// UpdateContainer replaces the container and all of its charges.
func UpdateContainer(ctx context.Context, id int, input *NewContainer) (*Container, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	existing, err := utils.FetchModel[Container](ctx, businessId, id, "Charges")
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("container_id = ?", id).Delete(&ContainerCharge{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	container := *existing
	container.ShippingCompanyId = input.ShippingCompanyId
	container.ContainerNumber = input.ContainerNumber
	container.Status = input.Status
	container.DepartureDate = input.DepartureDate
	container.ArrivalDate = input.ArrivalDate
	container.Notes = input.Notes
	container.Charges = nil
	err = tx.Model(&container).Updates(map[string]interface{}{
		"shipping_company_id": container.ShippingCompanyId,
		"container_number":    container.ContainerNumber,
		"status":              container.Status,
		"departure_date":      container.DepartureDate,
		"arrival_date":        container.ArrivalDate,
		"notes":               container.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	charges := input.charges(id)
	if len(charges) > 0 {
		if err := tx.Create(&charges).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	container.Charges = charges
	if err := createHistory(tx, ActionUpdate, id, "containers", existing, container, "replaced container "+container.ContainerNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &container, nil
}

// UpdateContainerStatus moves a container along loading -> in_transit -> arrived -> cleared.
func UpdateContainerStatus(ctx context.Context, id int, status ContainerStatus) (*Container, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if !status.IsValid() {
		return nil, utils.NewValidationError("invalid container status %q", status)
	}
	container, err := utils.FetchModel[Container](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"status": status}
	now := time.Now()
	if status == ContainerStatusInTransit && container.DepartureDate == nil {
		updates["departure_date"] = now
		container.DepartureDate = &now
	}
	if status == ContainerStatusArrived && container.ArrivalDate == nil {
		updates["arrival_date"] = now
		container.ArrivalDate = &now
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(container).Updates(updates).Error; err != nil {
		return nil, err
	}
	container.Status = status
	return container, nil
}

func DeleteContainer(ctx context.Context, id int) (*Container, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Container](ctx, businessId, id, "Charges")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("container_id = ?", id).Delete(&ContainerCharge{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&Container{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionDelete, id, "containers", result, nil, "deleted container "+result.ContainerNumber); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetContainer(ctx context.Context, id int) (*Container, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Container](ctx, businessId, id, "Charges")
}

func GetContainers(ctx context.Context, shippingCompanyId *int, status *ContainerStatus) ([]*Container, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Charges").Where("business_id = ?", businessId)
	if shippingCompanyId != nil && *shippingCompanyId > 0 {
		dbCtx = dbCtx.Where("shipping_company_id = ?", *shippingCompanyId)
	}
	if status != nil && status.IsValid() {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	var results []*Container
	if err := dbCtx.Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
