package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/metrics"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company.DebtToParent > 0 means the child owes the parent. The parent's own value never moves.
type Company struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"size:64;index;not null" json:"business_id"`
	Name                string          `gorm:"size:100;not null" json:"name"`
	Phone               string          `gorm:"size:20" json:"phone"`
	Balance             decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	DebtToParent        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"debt_to_parent"`
	OpeningBalance      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"opening_balance"`
	OpeningDebtToParent decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"opening_debt_to_parent"`
	IsParent            bool            `gorm:"not null;default:false" json:"is_parent"`
	IsActive            *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name                string          `json:"name" binding:"required"`
	Phone               string          `json:"phone"`
	IsParent            *bool           `json:"is_parent"`
	OpeningBalance      decimal.Decimal `json:"opening_balance"`
	OpeningDebtToParent decimal.Decimal `json:"opening_debt_to_parent"`
}

func (c Company) GetId() int {
	return c.ID
}

func (c Company) GetBusinessId() string {
	return c.BusinessId
}

func (input *NewCompany) validate(ctx context.Context, businessId string, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.NewValidationError("company name is required")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Company](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Company](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	phone, err := utils.NormalizeOptionalPhone(input.Phone)
	if err != nil {
		return err
	}
	input.Phone = phone
	if utils.DereferencePtr(input.IsParent) {
		count, err := utils.ResourceCountWhere[Company](ctx, businessId, "is_parent = ? AND NOT id = ?", true, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return utils.NewValidationError("business already has a parent company")
		}
		if !input.OpeningDebtToParent.IsZero() {
			return utils.NewValidationError("parent company cannot carry a debt to itself")
		}
	}
	return nil
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	company := Company{
		BusinessId:          businessId,
		Name:                input.Name,
		Phone:               input.Phone,
		Balance:             input.OpeningBalance,
		DebtToParent:        input.OpeningDebtToParent,
		OpeningBalance:      input.OpeningBalance,
		OpeningDebtToParent: input.OpeningDebtToParent,
		IsParent:            utils.DereferencePtr(input.IsParent),
		IsActive:            utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&company).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "companies", ActionCreate, company.ID, nil, company, "created company "+company.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("company", ActionCreate)

	return &company, nil
}

// UpdateCompany edits descriptive fields and the parent flag. Balances only move through the ledger.
func UpdateCompany(ctx context.Context, id int, input *NewCompany) (*Company, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	company, err := lockRow[Company](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	before := *company
	isParent := utils.DereferencePtr(input.IsParent, company.IsParent)
	if isParent && !company.IsParent && !company.DebtToParent.IsZero() {
		tx.Rollback()
		return nil, utils.NewValidationError("company with an open debt to the parent cannot become the parent")
	}
	if !isParent && company.IsParent {
		if err := checkParentLedgerRows(tx, businessId, id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	company.Name = input.Name
	company.Phone = input.Phone
	company.IsParent = isParent
	err = tx.Model(company).Updates(map[string]interface{}{
		"name":      company.Name,
		"phone":     company.Phone,
		"is_parent": company.IsParent,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "companies", ActionUpdate, id, before, company, "updated company "+company.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("company", ActionUpdate)

	return company, nil
}

func DeleteCompany(ctx context.Context, id int) (*Company, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	result, err := lockRow[Company](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := checkCompanyDependents(tx, businessId, id); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "companies", ActionDelete, id, result, nil, "deleted company "+result.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("company", ActionDelete)

	return result, nil
}

// checkParentLedgerRows refuses to move the parent flag away from a company that ledger rows were posted against.
func checkParentLedgerRows(tx *gorm.DB, businessId string, id int) error {
	count, err := utils.ResourceCountWhereTx[MemberTransfer](tx, businessId, "company_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("parent company has member transfers")
	}
	if count, err = utils.ResourceCountWhereTx[ProjectTransaction](tx, businessId, "company_id = ?", id); err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("parent company has project transactions")
	}
	count, err = utils.ResourceCountWhereTx[Transfer](tx, businessId,
		"status = ? AND ((from_company_id = ? AND from_was_parent = ?) OR (to_company_id = ? AND to_was_parent = ?))",
		TransferStatusApproved, id, true, id, true)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("parent company has approved transfers")
	}
	return nil
}

// checkCompanyDependents runs under the company's row lock so no ledger row can be posted against it concurrently.
func checkCompanyDependents(tx *gorm.DB, businessId string, id int) error {
	count, err := utils.ResourceCountWhereTx[Transfer](tx, businessId, "(from_company_id = ? OR to_company_id = ?)", id, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("company has transfers")
	}
	if count, err = utils.ResourceCountWhereTx[User](tx, businessId, "company_id = ?", id); err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("company has users")
	}
	if count, err = utils.ResourceCountWhereTx[MemberTransfer](tx, businessId, "company_id = ?", id); err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("company has member transfers")
	}
	if count, err = utils.ResourceCountWhereTx[ProjectTransaction](tx, businessId, "company_id = ?", id); err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("company has project transactions")
	}
	return nil
}

func ToggleActiveCompany(ctx context.Context, id int, isActive bool) (*Company, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	company, err := utils.FetchModel[Company](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(company).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	company.IsActive = &isActive
	return company, nil
}

// GetCompany always reads the database; balances are never served from cache.
func GetCompany(ctx context.Context, id int) (*Company, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if scoped, ok := childCompanyScope(ctx); ok && scoped != id {
		return nil, utils.ErrorPermissionDenied
	}
	return utils.FetchModel[Company](ctx, businessId, id)
}

func GetCompanies(ctx context.Context, name *string) ([]*Company, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if scoped, ok := childCompanyScope(ctx); ok {
		dbCtx = dbCtx.Where("id = ?", scoped)
	}
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var results []*Company
	if err := dbCtx.Order("is_parent DESC, name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetParentCompany(ctx context.Context) (*Company, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var parent Company
	err := db.WithContext(ctx).Where("business_id = ? AND is_parent = ?", businessId, true).Take(&parent).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &parent, nil
}

// CompanyNames backs the company dataloader.
func CompanyNames(ctx context.Context, businessId string, ids []int) (map[int]string, error) {
	type row struct {
		ID   int
		Name string
	}
	var rows []row
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Company{}).
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
