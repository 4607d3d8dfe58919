package models

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/shopspring/decimal"
)

// LedgerDrift is a stored balance that no longer matches the rows it is derived from.
type LedgerDrift struct {
	BusinessId string          `json:"business_id"`
	EntityType string          `json:"entity_type"`
	EntityId   int             `json:"entity_id"`
	Field      string          `json:"field"`
	Stored     decimal.Decimal `json:"stored"`
	Expected   decimal.Decimal `json:"expected"`
}

func (d LedgerDrift) String() string {
	return fmt.Sprintf("%s#%d %s stored=%s expected=%s (business %s)",
		d.EntityType, d.EntityId, d.Field, d.Stored.String(), d.Expected.String(), d.BusinessId)
}

func driftIfDiffers(drifts []LedgerDrift, businessId, entityType string, id int, field string, stored, expected decimal.Decimal) []LedgerDrift {
	if stored.Equal(expected) {
		return drifts
	}
	return append(drifts, LedgerDrift{
		BusinessId: businessId,
		EntityType: entityType,
		EntityId:   id,
		Field:      field,
		Stored:     stored,
		Expected:   expected,
	})
}

// AuditLedger recomputes every stored balance of the business from its transaction rows.
// Sums are done in decimal in Go so the result does not depend on the SQL dialect.
func AuditLedger(ctx context.Context, businessId string) ([]LedgerDrift, error) {
	db := config.GetDB().WithContext(ctx)
	drifts := make([]LedgerDrift, 0)

	// companies
	var companies []Company
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&companies).Error; err != nil {
		return nil, err
	}
	expected := make(map[int]companyDelta, len(companies))
	for _, c := range companies {
		expected[c.ID] = companyDelta{Balance: c.OpeningBalance, DebtToParent: c.OpeningDebtToParent}
	}
	add := func(id int, d companyDelta) {
		cur := expected[id]
		expected[id] = companyDelta{Balance: cur.Balance.Add(d.Balance), DebtToParent: cur.DebtToParent.Add(d.DebtToParent)}
	}

	var transfers []Transfer
	if err := db.Where("business_id = ? AND status = ?", businessId, TransferStatusApproved).Find(&transfers).Error; err != nil {
		return nil, err
	}
	for i := range transfers {
		for id, d := range transferDeltas(&transfers[i]) {
			add(id, d)
		}
	}

	var projectTxns []ProjectTransaction
	if err := db.Where("business_id = ?", businessId).Find(&projectTxns).Error; err != nil {
		return nil, err
	}
	projectExpected := make(map[int]decimal.Decimal)
	for _, t := range projectTxns {
		delta := projectDelta(t.Type, t.Amount)
		add(t.CompanyId, companyDelta{Balance: delta})
		projectExpected[t.ProjectId] = projectExpected[t.ProjectId].Add(delta)
	}

	var memberTransfers []MemberTransfer
	if err := db.Where("business_id = ?", businessId).Find(&memberTransfers).Error; err != nil {
		return nil, err
	}
	memberExpected := make(map[int]decimal.Decimal)
	for _, t := range memberTransfers {
		add(t.CompanyId, companyDelta{Balance: t.Amount.Neg()})
		memberExpected[t.MemberId] = memberExpected[t.MemberId].Add(t.Amount)
	}

	for _, c := range companies {
		e := expected[c.ID]
		drifts = driftIfDiffers(drifts, businessId, "company", c.ID, "balance", c.Balance, e.Balance)
		drifts = driftIfDiffers(drifts, businessId, "company", c.ID, "debt_to_parent", c.DebtToParent, e.DebtToParent)
	}

	// members
	var members []Member
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		drifts = driftIfDiffers(drifts, businessId, "member", m.ID, "balance", m.Balance, memberExpected[m.ID])
	}

	// projects
	var projects []Project
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&projects).Error; err != nil {
		return nil, err
	}
	for _, p := range projects {
		drifts = driftIfDiffers(drifts, businessId, "project", p.ID, "balance", p.Balance, projectExpected[p.ID])
	}

	// workers
	var workerTxns []WorkerTransaction
	if err := db.Where("business_id = ?", businessId).Find(&workerTxns).Error; err != nil {
		return nil, err
	}
	workerExpected := make(map[int]decimal.Decimal)
	for _, t := range workerTxns {
		workerExpected[t.WorkerId] = workerExpected[t.WorkerId].Add(workerDelta(t.Type, t.Amount))
	}
	var workers []Worker
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&workers).Error; err != nil {
		return nil, err
	}
	for _, w := range workers {
		drifts = driftIfDiffers(drifts, businessId, "worker", w.ID, "balance", w.Balance, workerExpected[w.ID])
	}

	// external debts
	var payments []DebtPayment
	if err := db.Where("business_id = ?", businessId).Find(&payments).Error; err != nil {
		return nil, err
	}
	paidExpected := make(map[int]decimal.Decimal)
	for _, p := range payments {
		paidExpected[p.DebtId] = paidExpected[p.DebtId].Add(p.Amount)
	}
	var debts []ExternalDebt
	if err := db.Where("business_id = ?", businessId).Order("id").Find(&debts).Error; err != nil {
		return nil, err
	}
	for _, d := range debts {
		drifts = driftIfDiffers(drifts, businessId, "external_debt", d.ID, "paid_amount", d.PaidAmount, paidExpected[d.ID])
	}

	return drifts, nil
}

// BusinessIds lists every tenant, for tools that run across businesses.
func BusinessIds(ctx context.Context) ([]string, error) {
	var ids []string
	if err := config.GetDB().WithContext(ctx).Model(&Business{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
