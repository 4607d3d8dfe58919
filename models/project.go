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

// Project.Balance is income minus expense over the project's transactions.
type Project struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:64;index;not null" json:"business_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Status      ProjectStatus   `gorm:"size:20;not null;default:active" json:"status"`
	Balance     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProject struct {
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
}

func (p Project) GetId() int {
	return p.ID
}

func (input *NewProject) validate(ctx context.Context, businessId string, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.NewValidationError("project name is required")
	}
	if input.Status == "" {
		input.Status = ProjectStatusActive
	}
	if !input.Status.IsValid() {
		return utils.NewValidationError("invalid project status %q", input.Status)
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Project](ctx, businessId, id); err != nil {
			return err
		}
	}
	return utils.ValidateUnique[Project](ctx, businessId, "name", input.Name, id)
}

func CreateProject(ctx context.Context, input *NewProject) (*Project, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	project := Project{
		BusinessId:  businessId,
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func UpdateProject(ctx context.Context, id int, input *NewProject) (*Project, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Project{}).Where("business_id = ? AND id = ?", businessId, id).
		Updates(map[string]interface{}{
			"name":        input.Name,
			"description": input.Description,
			"status":      input.Status,
		}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Project](ctx, businessId, id)
}

func DeleteProject(ctx context.Context, id int) (*Project, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Project](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[ProjectTransaction](ctx, businessId, "project_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("project has transactions")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetProject(ctx context.Context, id int) (*Project, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Project](ctx, businessId, id)
}

func GetProjects(ctx context.Context, name *string, status *ProjectStatus) ([]*Project, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if status != nil && status.IsValid() {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	var results []*Project
	if err := dbCtx.Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
