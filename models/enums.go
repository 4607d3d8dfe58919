package models

type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusApproved TransferStatus = "approved"
	TransferStatusRejected TransferStatus = "rejected"
)

type WorkerTransactionType string

const (
	WorkerTransactionTypeSalary    WorkerTransactionType = "salary"
	WorkerTransactionTypeAdvance   WorkerTransactionType = "advance"
	WorkerTransactionTypeDeduction WorkerTransactionType = "deduction"
)

func (t WorkerTransactionType) IsValid() bool {
	switch t {
	case WorkerTransactionTypeSalary, WorkerTransactionTypeAdvance, WorkerTransactionTypeDeduction:
		return true
	}
	return false
}

type ProjectTransactionType string

const (
	ProjectTransactionTypeIncome  ProjectTransactionType = "income"
	ProjectTransactionTypeExpense ProjectTransactionType = "expense"
)

func (t ProjectTransactionType) IsValid() bool {
	return t == ProjectTransactionTypeIncome || t == ProjectTransactionTypeExpense
}

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

type Currency string

const (
	CurrencyCNY Currency = "CNY"
	CurrencyUSD Currency = "USD"
)

func (c Currency) IsValid() bool {
	return c == CurrencyCNY || c == CurrencyUSD
}

type ContainerStatus string

const (
	ContainerStatusLoading   ContainerStatus = "loading"
	ContainerStatusInTransit ContainerStatus = "in_transit"
	ContainerStatusArrived   ContainerStatus = "arrived"
	ContainerStatusCleared   ContainerStatus = "cleared"
)

func (s ContainerStatus) IsValid() bool {
	switch s {
	case ContainerStatusLoading, ContainerStatusInTransit, ContainerStatusArrived, ContainerStatusCleared:
		return true
	}
	return false
}

type TruckStatus string

const (
	TruckStatusAvailable   TruckStatus = "available"
	TruckStatusOnTrip      TruckStatus = "on_trip"
	TruckStatusMaintenance TruckStatus = "maintenance"
)

func (s TruckStatus) IsValid() bool {
	switch s {
	case TruckStatusAvailable, TruckStatusOnTrip, TruckStatusMaintenance:
		return true
	}
	return false
}

type UserRole string

const (
	UserRoleAdmin   UserRole = "A" // platform admin, every business
	UserRoleParent  UserRole = "P" // parent company staff, full access to the business
	UserRoleChild   UserRole = "C" // child company staff, own company only
	UserRoleAppUser UserRole = "U" // permission list decides
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleParent, UserRoleChild, UserRoleAppUser:
		return true
	}
	return false
}

// history / ledger event actions
const (
	ActionCreate  = "C"
	ActionUpdate  = "U"
	ActionDelete  = "D"
	ActionApprove = "A"
	ActionReject  = "R"
)
