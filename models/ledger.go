package models

import (
	"context"
	"errors"
	"sort"

	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/*
Every stored balance (company, member, worker, project, debt) is changed only from this file's helpers,
inside the caller's transaction. Rows are locked owner-row first, then companies by ascending id.
*/

var tracer = otel.Tracer("tradeportal/ledger")

func startLedgerSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ledger."+name)
}

func endLedgerSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func lockingUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// lockRow selects one row of the business FOR UPDATE.
func lockRow[T any](tx *gorm.DB, businessId string, id int) (*T, error) {
	var result T
	err := tx.Clauses(lockingUpdate()).
		Where("business_id = ?", businessId).
		First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func lockCompanies(tx *gorm.DB, businessId string, ids ...int) (map[int]*Company, error) {
	companies := make(map[int]*Company, len(ids))
	for _, id := range sortedUnique(ids) {
		company, err := lockRow[Company](tx, businessId, id)
		if err != nil {
			return nil, err
		}
		companies[id] = company
	}
	return companies, nil
}

// lockParentCompany locks the business's parent company. A business without one cannot post
// member or project money movements.
func lockParentCompany(tx *gorm.DB, businessId string) (*Company, error) {
	var parent Company
	err := tx.Clauses(lockingUpdate()).
		Where("business_id = ? AND is_parent = ?", businessId, true).
		First(&parent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewValidationError("business has no parent company")
		}
		return nil, err
	}
	return &parent, nil
}

func sortedUnique(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

type companyDelta struct {
	Balance      decimal.Decimal
	DebtToParent decimal.Decimal
}

func (d companyDelta) neg() companyDelta {
	return companyDelta{Balance: d.Balance.Neg(), DebtToParent: d.DebtToParent.Neg()}
}

// transferDeltas is the effect of approving t. Money moves from -> to; a parent->child transfer
// raises the child's debt and a child->parent transfer lowers it.
func transferDeltas(t *Transfer) map[int]companyDelta {
	from := companyDelta{Balance: t.Amount.Neg()}
	to := companyDelta{Balance: t.Amount}
	switch {
	case t.FromWasParent && !t.ToWasParent:
		to.DebtToParent = t.Amount
	case !t.FromWasParent && t.ToWasParent:
		from.DebtToParent = t.Amount.Neg()
	}
	return map[int]companyDelta{
		t.FromCompanyId: from,
		t.ToCompanyId:   to,
	}
}

func invertDeltas(deltas map[int]companyDelta) map[int]companyDelta {
	out := make(map[int]companyDelta, len(deltas))
	for id, d := range deltas {
		out[id] = d.neg()
	}
	return out
}

func applyCompanyDeltas(tx *gorm.DB, companies map[int]*Company, deltas map[int]companyDelta) error {
	ids := make([]int, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		company, ok := companies[id]
		if !ok {
			return errors.New("company is not locked")
		}
		d := deltas[id]
		company.Balance = company.Balance.Add(d.Balance)
		company.DebtToParent = company.DebtToParent.Add(d.DebtToParent)
		if err := tx.Model(company).Updates(map[string]interface{}{
			"balance":        company.Balance,
			"debt_to_parent": company.DebtToParent,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// adjustCompanyBalance applies a cash-only delta to an already locked company.
func adjustCompanyBalance(tx *gorm.DB, company *Company, delta decimal.Decimal) error {
	return applyCompanyDeltas(tx, map[int]*Company{company.ID: company},
		map[int]companyDelta{company.ID: {Balance: delta}})
}

// workerDelta: salary adds to what the company owes the worker, advance and deduction settle it.
func workerDelta(txType WorkerTransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == WorkerTransactionTypeSalary {
		return amount
	}
	return amount.Neg()
}

func projectDelta(txType ProjectTransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == ProjectTransactionTypeIncome {
		return amount
	}
	return amount.Neg()
}

// recordMutation writes the audit row and the outbox event in the mutation's transaction.
func recordMutation(tx *gorm.DB, referenceType string, action string, referenceId int, before interface{}, after interface{}, description string) error {
	if err := createHistory(tx, action, referenceId, referenceType, before, after, description); err != nil {
		return err
	}
	payload := after
	if payload == nil {
		payload = before
	}
	return recordLedgerEvent(tx, referenceType, referenceId, action, payload)
}

func validatePositiveAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return utils.NewValidationError("%s must be greater than zero", field)
	}
	return nil
}

// notFoundAsValidation reports a missing referenced row as bad input rather than a 404.
func notFoundAsValidation(err error, name string) error {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return utils.NewValidationError("%s not found", name)
	}
	return err
}
