package models

import (
	"context"
	"sort"
	"strings"

	"github.com/mmdatafocus/tradeportal_backend/utils"
)

const (
	PermCompaniesRead    = "companies.read"
	PermCompaniesWrite   = "companies.write"
	PermTransfersRead    = "transfers.read"
	PermTransfersCreate  = "transfers.create"
	PermTransfersWrite   = "transfers.write"
	PermTransfersApprove = "transfers.approve"
	PermMembersRead      = "members.read"
	PermMembersWrite     = "members.write"
	PermWorkersRead      = "workers.read"
	PermWorkersWrite     = "workers.write"
	PermProjectsRead     = "projects.read"
	PermProjectsWrite    = "projects.write"
	PermDebtsRead        = "debts.read"
	PermDebtsWrite       = "debts.write"
	PermSuppliersRead    = "suppliers.read"
	PermSuppliersWrite   = "suppliers.write"
	PermShippingRead     = "shipping.read"
	PermShippingWrite    = "shipping.write"
	PermExpensesRead     = "expenses.read"
	PermExpensesWrite    = "expenses.write"
	PermTrucksRead       = "trucks.read"
	PermTrucksWrite      = "trucks.write"
	PermUsersManage      = "users.manage"
)

var allPermissions = []string{
	PermCompaniesRead, PermCompaniesWrite,
	PermTransfersRead, PermTransfersCreate, PermTransfersWrite, PermTransfersApprove,
	PermMembersRead, PermMembersWrite,
	PermWorkersRead, PermWorkersWrite,
	PermProjectsRead, PermProjectsWrite,
	PermDebtsRead, PermDebtsWrite,
	PermSuppliersRead, PermSuppliersWrite,
	PermShippingRead, PermShippingWrite,
	PermExpensesRead, PermExpensesWrite,
	PermTrucksRead, PermTrucksWrite,
	PermUsersManage,
}

// child company staff see their own company and the transfers it is party to
var childCompanyPermissions = map[string]bool{
	PermCompaniesRead:   true,
	PermTransfersRead:   true,
	PermTransfersCreate: true,
}

// a granted code also grants the codes it implies
var impliedPermissions = map[string][]string{
	PermCompaniesWrite: {PermCompaniesRead},
	PermTransfersWrite: {PermTransfersRead, PermTransfersCreate},
	PermMembersWrite:   {PermMembersRead},
	PermWorkersWrite:   {PermWorkersRead},
	PermProjectsWrite:  {PermProjectsRead},
	PermDebtsWrite:     {PermDebtsRead},
	PermSuppliersWrite: {PermSuppliersRead},
	PermShippingWrite:  {PermShippingRead},
	PermExpensesWrite:  {PermExpensesRead},
	PermTrucksWrite:    {PermTrucksRead},
}

func AllPermissions() []string {
	out := make([]string, len(allPermissions))
	copy(out, allPermissions)
	return out
}

func IsKnownPermission(code string) bool {
	for _, p := range allPermissions {
		if p == code {
			return true
		}
	}
	return false
}

// ParsePermissions splits the stored "a;b;c" form, dropping blanks and duplicates.
func ParsePermissions(raw string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range strings.Split(raw, ";") {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func JoinPermissions(codes []string) string {
	return strings.Join(ParsePermissions(strings.Join(codes, ";")), ";")
}

func expandPermissions(codes []string) map[string]bool {
	granted := make(map[string]bool, len(codes))
	for _, c := range codes {
		granted[c] = true
		for _, implied := range impliedPermissions[c] {
			granted[implied] = true
		}
	}
	return granted
}

// HasPermission reports whether the context's user may use the given permission code.
func HasPermission(ctx context.Context, code string) bool {
	role, _ := utils.GetUserRoleFromContext(ctx)
	switch UserRole(role) {
	case UserRoleAdmin, UserRoleParent:
		return true
	case UserRoleChild:
		return childCompanyPermissions[code]
	case UserRoleAppUser:
		perms, _ := utils.GetPermissionsFromContext(ctx)
		return expandPermissions(perms)[code]
	}
	return false
}

// childCompanyScope returns the company a role C user is confined to.
func childCompanyScope(ctx context.Context) (int, bool) {
	role, _ := utils.GetUserRoleFromContext(ctx)
	if UserRole(role) != UserRoleChild {
		return 0, false
	}
	companyId, _ := utils.GetCompanyIdFromContext(ctx)
	return companyId, true
}
