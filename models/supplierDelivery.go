package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierDelivery struct {
	ID              int                    `gorm:"primary_key" json:"id"`
	BusinessId      string                 `gorm:"size:64;index;not null" json:"business_id"`
	SupplierId      int                    `gorm:"index;not null" json:"supplier_id"`
	DeliveryDate    time.Time              `gorm:"not null" json:"delivery_date"`
	ReferenceNumber string                 `gorm:"size:100" json:"reference_number"`
	Notes           string                 `gorm:"type:text" json:"notes"`
	Items           []SupplierDeliveryItem `gorm:"foreignKey:SupplierDeliveryId" json:"items"`
	CreatedAt       time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

type SupplierDeliveryItem struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	SupplierDeliveryId int             `gorm:"index;not null" json:"supplier_delivery_id"`
	Description        string          `gorm:"size:255;not null" json:"description"`
	Quantity           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Currency           Currency        `gorm:"size:3;not null" json:"currency"`
	Total              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
}

type NewSupplierDelivery struct {
	SupplierId      int                       `json:"supplier_id" binding:"required"`
	DeliveryDate    *time.Time                `json:"delivery_date"`
	ReferenceNumber string                    `json:"reference_number"`
	Notes           string                    `json:"notes"`
	Items           []NewSupplierDeliveryItem `json:"items" binding:"required,dive"`
}

type NewSupplierDeliveryItem struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"gte=0"`
	Currency    Currency        `json:"currency" binding:"required"`
}

func (d SupplierDelivery) GetId() int {
	return d.ID
}

func (item *SupplierDeliveryItem) BeforeSave(tx *gorm.DB) error {
	item.Total = item.Quantity.Mul(item.UnitPrice)
	return nil
}

func (input *NewSupplierDelivery) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Supplier](ctx, businessId, input.SupplierId); err != nil {
		return notFoundAsValidation(err, "supplier")
	}
	if len(input.Items) == 0 {
		return utils.NewValidationError("delivery needs at least one item")
	}
	for _, item := range input.Items {
		if !item.Currency.IsValid() {
			return utils.NewValidationError("invalid currency %q", item.Currency)
		}
		if err := validatePositiveAmount("quantity", item.Quantity); err != nil {
			return err
		}
		if item.UnitPrice.IsNegative() {
			return utils.NewValidationError("unit price cannot be negative")
		}
	}
	return nil
}

func (input *NewSupplierDelivery) items() []SupplierDeliveryItem {
	items := make([]SupplierDeliveryItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, SupplierDeliveryItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Currency:    item.Currency,
			Total:       item.Quantity.Mul(item.UnitPrice),
		})
	}
	return items
}

func CreateSupplierDelivery(ctx context.Context, input *NewSupplierDelivery) (*SupplierDelivery, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	delivery := SupplierDelivery{
		BusinessId:      businessId,
		SupplierId:      input.SupplierId,
		DeliveryDate:    utils.DereferencePtr(input.DeliveryDate, time.Now()),
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		Items:           input.items(),
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&delivery).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionCreate, delivery.ID, "supplier_deliveries", nil, delivery, "created supplier delivery"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

// UpdateSupplierDelivery replaces the delivery and all its items.
func UpdateSupplierDelivery(ctx context.Context, id int, input *NewSupplierDelivery) (*SupplierDelivery, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}
	existing, err := utils.FetchModel[SupplierDelivery](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("supplier_delivery_id = ?", id).Delete(&SupplierDeliveryItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	delivery := *existing
	delivery.SupplierId = input.SupplierId
	delivery.DeliveryDate = utils.DereferencePtr(input.DeliveryDate, existing.DeliveryDate)
	delivery.ReferenceNumber = input.ReferenceNumber
	delivery.Notes = input.Notes
	delivery.Items = nil
	err = tx.Model(&delivery).Updates(map[string]interface{}{
		"supplier_id":      delivery.SupplierId,
		"delivery_date":    delivery.DeliveryDate,
		"reference_number": delivery.ReferenceNumber,
		"notes":            delivery.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	items := input.items()
	for i := range items {
		items[i].SupplierDeliveryId = id
	}
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	delivery.Items = items
	if err := createHistory(tx, ActionUpdate, id, "supplier_deliveries", existing, delivery, "replaced supplier delivery"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func DeleteSupplierDelivery(ctx context.Context, id int) (*SupplierDelivery, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[SupplierDelivery](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("supplier_delivery_id = ?", id).Delete(&SupplierDeliveryItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&SupplierDelivery{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx, ActionDelete, id, "supplier_deliveries", result, nil, "deleted supplier delivery"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetSupplierDelivery(ctx context.Context, id int) (*SupplierDelivery, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SupplierDelivery](ctx, businessId, id, "Items")
}

func GetSupplierDeliveries(ctx context.Context, supplierId int) ([]*SupplierDelivery, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var results []*SupplierDelivery
	if err := db.WithContext(ctx).Preload("Items").
		Where("business_id = ? AND supplier_id = ?", businessId, supplierId).
		Order("delivery_date, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
