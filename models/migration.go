package models

import (
	"github.com/mmdatafocus/tradeportal_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&Business{}, &Company{}, &Transfer{},
		&MemberType{}, &Member{}, &MemberTransfer{},
		&Worker{}, &WorkerTransaction{},
		&Project{}, &ProjectTransaction{},
		&ExternalDebt{}, &DebtPayment{},
		&Supplier{}, &SupplierDelivery{}, &SupplierDeliveryItem{}, &SupplierPayment{},
		&ShippingCompany{}, &Container{}, &ContainerCharge{}, &ShippingPayment{},
		&Expense{}, &Truck{},
		&User{},
		&History{}, &LedgerEvent{},
	)
}
