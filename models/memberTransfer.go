package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/metrics"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
)

// MemberTransfer pays a member out of the parent company's cash.
type MemberTransfer struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"size:64;index;not null" json:"business_id"`
	MemberId     int             `gorm:"index;not null" json:"member_id"`
	CompanyId    int             `gorm:"index;not null" json:"company_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Note         string          `gorm:"type:text" json:"note"`
	TransferDate time.Time       `gorm:"not null" json:"transfer_date"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMemberTransfer struct {
	MemberId     int             `json:"member_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Note         string          `json:"note"`
	TransferDate *time.Time      `json:"transfer_date"`
}

func (t MemberTransfer) GetId() int {
	return t.ID
}

func AddMemberTransfer(ctx context.Context, input *NewMemberTransfer) (result *MemberTransfer, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "AddMemberTransfer")
	defer func() { endLedgerSpan(span, err) }()

	if err := validatePositiveAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	member, err := lockRow[Member](tx, businessId, input.MemberId)
	if err != nil {
		tx.Rollback()
		return nil, notFoundAsValidation(err, "member")
	}
	parent, err := lockParentCompany(tx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	member.Balance = member.Balance.Add(input.Amount)
	if err := tx.Model(member).Update("balance", member.Balance).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustCompanyBalance(tx, parent, input.Amount.Neg()); err != nil {
		tx.Rollback()
		return nil, err
	}

	transfer := MemberTransfer{
		BusinessId:   businessId,
		MemberId:     member.ID,
		CompanyId:    parent.ID,
		Amount:       input.Amount,
		Note:         input.Note,
		TransferDate: utils.DereferencePtr(input.TransferDate, time.Now()),
	}
	if err := tx.Create(&transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "member_transfers", ActionCreate, transfer.ID, nil, transfer, "paid member "+member.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("member_transfer", ActionCreate)

	return &transfer, nil
}

// DeleteMemberTransfer gives the amount back to the company the transfer was drawn from.
func DeleteMemberTransfer(ctx context.Context, id int) (result *MemberTransfer, err error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	ctx, span := startLedgerSpan(ctx, "DeleteMemberTransfer")
	defer func() { endLedgerSpan(span, err) }()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	transfer, err := lockRow[MemberTransfer](tx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	member, err := lockRow[Member](tx, businessId, transfer.MemberId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	companies, err := lockCompanies(tx, businessId, transfer.CompanyId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	member.Balance = member.Balance.Sub(transfer.Amount)
	if err := tx.Model(member).Update("balance", member.Balance).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := adjustCompanyBalance(tx, companies[transfer.CompanyId], transfer.Amount); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := recordMutation(tx, "member_transfers", ActionDelete, id, transfer, nil, "deleted member transfer"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	metrics.RecordLedgerMutation("member_transfer", ActionDelete)

	return transfer, nil
}

func GetMemberTransfer(ctx context.Context, id int) (*MemberTransfer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[MemberTransfer](ctx, businessId, id)
}

func PaginateMemberTransfers(ctx context.Context, memberId *int, after *string, limit int) (*Page[MemberTransfer], error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&MemberTransfer{}).Where("business_id = ?", businessId)
	if memberId != nil && *memberId > 0 {
		dbCtx = dbCtx.Where("member_id = ?", *memberId)
	}
	return paginateById[MemberTransfer](dbCtx, after, limit)
}
