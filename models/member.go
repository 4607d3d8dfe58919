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

type MemberType struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"size:64;index;not null" json:"business_id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMemberType struct {
	Name string `json:"name" binding:"required"`
}

// Member.Balance is the cumulative amount transferred to the member.
type Member struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"size:64;index;not null" json:"business_id"`
	MemberTypeId int             `gorm:"index;not null" json:"member_type_id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	Phone        string          `gorm:"size:20" json:"phone"`
	Notes        string          `gorm:"type:text" json:"notes"`
	Balance      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMember struct {
	MemberTypeId int    `json:"member_type_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Phone        string `json:"phone"`
	Notes        string `json:"notes"`
}

func (t MemberType) GetBusinessId() string {
	return t.BusinessId
}

func (m Member) GetId() int {
	return m.ID
}

/* member types: reference data, cached */

func CreateMemberType(ctx context.Context, input *NewMemberType) (*MemberType, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, utils.NewValidationError("member type name is required")
	}
	if err := utils.ValidateUnique[MemberType](ctx, businessId, "name", name, 0); err != nil {
		return nil, err
	}

	memberType := MemberType{BusinessId: businessId, Name: name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&memberType).Error; err != nil {
		return nil, err
	}
	return &memberType, nil
}

func UpdateMemberType(ctx context.Context, id int, input *NewMemberType) (*MemberType, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, utils.NewValidationError("member type name is required")
	}
	result, err := utils.FetchModel[MemberType](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[MemberType](ctx, businessId, "name", name, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(result).Update("name", name).Error; err != nil {
		return nil, err
	}
	result.Name = name
	if err := clearResource[MemberType](ctx, id); err != nil {
		return nil, err
	}
	return result, nil
}

func GetMemberType(ctx context.Context, id int) (*MemberType, error) {
	return GetResource[MemberType](ctx, id)
}

func GetMemberTypes(ctx context.Context) ([]*MemberType, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[MemberType](ctx, businessId, "name")
}

func DeleteMemberType(ctx context.Context, id int) (*MemberType, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[MemberType](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[Member](ctx, businessId, "member_type_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("member type is used by members")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	if err := clearResource[MemberType](ctx, id); err != nil {
		return nil, err
	}
	return result, nil
}

/* members */

func (input *NewMember) validate(ctx context.Context, businessId string, id int) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return utils.NewValidationError("member name is required")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Member](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[MemberType](ctx, businessId, input.MemberTypeId); err != nil {
		return notFoundAsValidation(err, "member type")
	}
	phone, err := utils.NormalizeOptionalPhone(input.Phone)
	if err != nil {
		return err
	}
	input.Phone = phone
	return nil
}

func CreateMember(ctx context.Context, input *NewMember) (*Member, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	member := Member{
		BusinessId:   businessId,
		MemberTypeId: input.MemberTypeId,
		Name:         input.Name,
		Phone:        input.Phone,
		Notes:        input.Notes,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func UpdateMember(ctx context.Context, id int, input *NewMember) (*Member, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Member{}).Where("business_id = ? AND id = ?", businessId, id).
		Updates(map[string]interface{}{
			"member_type_id": input.MemberTypeId,
			"name":           input.Name,
			"phone":          input.Phone,
			"notes":          input.Notes,
		}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Member](ctx, businessId, id)
}

func DeleteMember(ctx context.Context, id int) (*Member, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Member](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[MemberTransfer](ctx, businessId, "member_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("member has transfers")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetMember(ctx context.Context, id int) (*Member, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Member](ctx, businessId, id)
}

func GetMembers(ctx context.Context, memberTypeId *int, name *string) ([]*Member, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if memberTypeId != nil && *memberTypeId > 0 {
		dbCtx = dbCtx.Where("member_type_id = ?", *memberTypeId)
	}
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var results []*Member
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MemberTypeNames backs the member type dataloader.
func MemberTypeNames(ctx context.Context, businessId string, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	var missing []int
	for _, id := range ids {
		cached, err := utils.RetrieveRedis[MemberType](ctx, id)
		if err == nil && cached != nil && cached.BusinessId == businessId {
			names[id] = cached.Name
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return names, nil
	}
	var rows []*MemberType
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("business_id = ? AND id IN ?", businessId, missing).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		names[r.ID] = r.Name
		if err := utils.StoreRedis(ctx, r, r.ID); err != nil {
			return nil, err
		}
	}
	return names, nil
}
