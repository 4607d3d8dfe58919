package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/middlewares"
	"github.com/mmdatafocus/tradeportal_backend/models"
)

// Register mounts the JSON API. Everything except login needs a signed in user.
func Register(r gin.IRouter, stores StoreFactory) {
	perm := middlewares.RequirePermission

	r.POST("/auth/login", loginHandler())

	api := r.Group("/", middlewares.RequireUser())
	api.POST("/auth/logout", logoutHandler())
	api.GET("/auth/me", meHandler())
	api.PUT("/auth/password", changePasswordHandler())

	api.GET("/business", perm(models.PermCompaniesRead), getBusinessHandler())
	api.PUT("/business", perm(models.PermCompaniesWrite), updateBusinessHandler())

	// companies
	api.GET("/companies", perm(models.PermCompaniesRead), listCompaniesHandler())
	api.POST("/companies", perm(models.PermCompaniesWrite), createHandler(models.CreateCompany))
	api.GET("/companies/:id", perm(models.PermCompaniesRead), getHandler(models.GetCompany))
	api.PUT("/companies/:id", perm(models.PermCompaniesWrite), updateHandler(models.UpdateCompany))
	api.PUT("/companies/:id/active", perm(models.PermCompaniesWrite), toggleActiveHandler(models.ToggleActiveCompany))
	api.DELETE("/companies/:id", perm(models.PermCompaniesWrite), deleteHandler(models.DeleteCompany))

	// transfers
	api.GET("/transfers", perm(models.PermTransfersRead), listTransfersHandler())
	api.POST("/transfers", perm(models.PermTransfersCreate), createHandler(models.CreateTransfer))
	api.GET("/transfers/:id", perm(models.PermTransfersRead), getTransferHandler())
	api.PUT("/transfers/:id", perm(models.PermTransfersWrite), updateHandler(models.UpdateTransfer))
	api.DELETE("/transfers/:id", perm(models.PermTransfersWrite), deleteHandler(models.DeleteTransfer))
	api.POST("/transfers/:id/approve", perm(models.PermTransfersApprove), actionHandler(models.ApproveTransfer))
	api.POST("/transfers/:id/reject", perm(models.PermTransfersApprove), actionHandler(models.RejectTransfer))

	// members
	api.GET("/member-types", perm(models.PermMembersRead), listMemberTypesHandler())
	api.POST("/member-types", perm(models.PermMembersWrite), createHandler(models.CreateMemberType))
	api.GET("/member-types/:id", perm(models.PermMembersRead), getHandler(models.GetMemberType))
	api.PUT("/member-types/:id", perm(models.PermMembersWrite), updateHandler(models.UpdateMemberType))
	api.DELETE("/member-types/:id", perm(models.PermMembersWrite), deleteHandler(models.DeleteMemberType))
	api.GET("/members", perm(models.PermMembersRead), listMembersHandler())
	api.POST("/members", perm(models.PermMembersWrite), createHandler(models.CreateMember))
	api.GET("/members/:id", perm(models.PermMembersRead), getHandler(models.GetMember))
	api.PUT("/members/:id", perm(models.PermMembersWrite), updateHandler(models.UpdateMember))
	api.DELETE("/members/:id", perm(models.PermMembersWrite), deleteHandler(models.DeleteMember))
	api.GET("/member-transfers", perm(models.PermMembersRead), listMemberTransfersHandler())
	api.POST("/member-transfers", perm(models.PermMembersWrite), createHandler(models.AddMemberTransfer))
	api.GET("/member-transfers/:id", perm(models.PermMembersRead), getHandler(models.GetMemberTransfer))
	api.DELETE("/member-transfers/:id", perm(models.PermMembersWrite), deleteHandler(models.DeleteMemberTransfer))

	// workers
	api.GET("/workers", perm(models.PermWorkersRead), listWorkersHandler())
	api.POST("/workers", perm(models.PermWorkersWrite), createHandler(models.CreateWorker))
	api.POST("/workers/pay-salaries", perm(models.PermWorkersWrite), paySalariesHandler())
	api.GET("/workers/:id", perm(models.PermWorkersRead), getHandler(models.GetWorker))
	api.PUT("/workers/:id", perm(models.PermWorkersWrite), updateHandler(models.UpdateWorker))
	api.PUT("/workers/:id/active", perm(models.PermWorkersWrite), toggleActiveHandler(models.ToggleActiveWorker))
	api.DELETE("/workers/:id", perm(models.PermWorkersWrite), deleteHandler(models.DeleteWorker))
	api.GET("/workers/:id/debt-recovery", perm(models.PermWorkersRead), getHandler(models.GetDebtRecoverySuggestion))
	api.GET("/worker-transactions", perm(models.PermWorkersRead), listWorkerTransactionsHandler())
	api.POST("/worker-transactions", perm(models.PermWorkersWrite), createHandler(models.AddWorkerTransaction))
	api.GET("/worker-transactions/:id", perm(models.PermWorkersRead), getHandler(models.GetWorkerTransaction))
	api.DELETE("/worker-transactions/:id", perm(models.PermWorkersWrite), deleteHandler(models.DeleteWorkerTransaction))

	// projects
	api.GET("/projects", perm(models.PermProjectsRead), listProjectsHandler())
	api.POST("/projects", perm(models.PermProjectsWrite), createHandler(models.CreateProject))
	api.GET("/projects/:id", perm(models.PermProjectsRead), getHandler(models.GetProject))
	api.PUT("/projects/:id", perm(models.PermProjectsWrite), updateHandler(models.UpdateProject))
	api.DELETE("/projects/:id", perm(models.PermProjectsWrite), deleteHandler(models.DeleteProject))
	api.GET("/project-transactions", perm(models.PermProjectsRead), listProjectTransactionsHandler())
	api.POST("/project-transactions", perm(models.PermProjectsWrite), createHandler(models.AddProjectTransaction))
	api.GET("/project-transactions/:id", perm(models.PermProjectsRead), getHandler(models.GetProjectTransaction))
	api.DELETE("/project-transactions/:id", perm(models.PermProjectsWrite), deleteHandler(models.DeleteProjectTransaction))

	// external debts
	api.GET("/debts", perm(models.PermDebtsRead), listExternalDebtsHandler())
	api.POST("/debts", perm(models.PermDebtsWrite), createHandler(models.CreateExternalDebt))
	api.GET("/debts/:id", perm(models.PermDebtsRead), getHandler(models.GetExternalDebt))
	api.PUT("/debts/:id", perm(models.PermDebtsWrite), updateHandler(models.UpdateExternalDebt))
	api.DELETE("/debts/:id", perm(models.PermDebtsWrite), deleteHandler(models.DeleteExternalDebt))
	api.GET("/debts/:id/payments", perm(models.PermDebtsRead), listDebtPaymentsHandler())
	api.POST("/debts/:id/payments", perm(models.PermDebtsWrite), addDebtPaymentHandler())
	api.PUT("/debt-payments/:id", perm(models.PermDebtsWrite), updateHandler(models.UpdateDebtPayment))
	api.DELETE("/debt-payments/:id", perm(models.PermDebtsWrite), deleteHandler(models.DeleteDebtPayment))

	// suppliers
	api.GET("/suppliers", perm(models.PermSuppliersRead), listSuppliersHandler())
	api.POST("/suppliers", perm(models.PermSuppliersWrite), createHandler(models.CreateSupplier))
	api.GET("/suppliers/:id", perm(models.PermSuppliersRead), getHandler(models.GetSupplier))
	api.PUT("/suppliers/:id", perm(models.PermSuppliersWrite), updateHandler(models.UpdateSupplier))
	api.DELETE("/suppliers/:id", perm(models.PermSuppliersWrite), deleteHandler(models.DeleteSupplier))
	api.GET("/suppliers/:id/deliveries", perm(models.PermSuppliersRead), listByPartyHandler(models.GetSupplierDeliveries))
	api.GET("/suppliers/:id/payments", perm(models.PermSuppliersRead), listByPartyHandler(models.GetSupplierPayments))
	api.POST("/suppliers/:id/payments", perm(models.PermSuppliersWrite), createPartyPaymentHandler(models.CreateSupplierPayment))
	api.GET("/suppliers/:id/account", perm(models.PermSuppliersRead), accountHandler(models.GetSupplierAccount))
	api.GET("/suppliers/:id/account.xlsx", perm(models.PermSuppliersRead), accountExportHandler("supplier-account", models.GetSupplierAccount))
	api.POST("/supplier-deliveries", perm(models.PermSuppliersWrite), createHandler(models.CreateSupplierDelivery))
	api.GET("/supplier-deliveries/:id", perm(models.PermSuppliersRead), getHandler(models.GetSupplierDelivery))
	api.PUT("/supplier-deliveries/:id", perm(models.PermSuppliersWrite), updateHandler(models.UpdateSupplierDelivery))
	api.DELETE("/supplier-deliveries/:id", perm(models.PermSuppliersWrite), deleteHandler(models.DeleteSupplierDelivery))
	api.GET("/supplier-payments/:id", perm(models.PermSuppliersRead), getHandler(models.GetSupplierPayment))
	api.PUT("/supplier-payments/:id", perm(models.PermSuppliersWrite), updateHandler(models.UpdateSupplierPayment))
	api.DELETE("/supplier-payments/:id", perm(models.PermSuppliersWrite), deleteHandler(models.DeleteSupplierPayment))

	// shipping
	api.GET("/shipping-companies", perm(models.PermShippingRead), listShippingCompaniesHandler())
	api.POST("/shipping-companies", perm(models.PermShippingWrite), createHandler(models.CreateShippingCompany))
	api.GET("/shipping-companies/:id", perm(models.PermShippingRead), getHandler(models.GetShippingCompany))
	api.PUT("/shipping-companies/:id", perm(models.PermShippingWrite), updateHandler(models.UpdateShippingCompany))
	api.DELETE("/shipping-companies/:id", perm(models.PermShippingWrite), deleteHandler(models.DeleteShippingCompany))
	api.GET("/shipping-companies/:id/payments", perm(models.PermShippingRead), listByPartyHandler(models.GetShippingPayments))
	api.POST("/shipping-companies/:id/payments", perm(models.PermShippingWrite), createPartyPaymentHandler(models.CreateShippingPayment))
	api.GET("/shipping-companies/:id/account", perm(models.PermShippingRead), accountHandler(models.GetShippingAccount))
	api.GET("/shipping-companies/:id/account.xlsx", perm(models.PermShippingRead), accountExportHandler("shipping-account", models.GetShippingAccount))
	api.GET("/containers", perm(models.PermShippingRead), listContainersHandler())
	api.POST("/containers", perm(models.PermShippingWrite), createHandler(models.CreateContainer))
	api.GET("/containers/:id", perm(models.PermShippingRead), getHandler(models.GetContainer))
	api.PUT("/containers/:id", perm(models.PermShippingWrite), updateHandler(models.UpdateContainer))
	api.PUT("/containers/:id/status", perm(models.PermShippingWrite), updateContainerStatusHandler())
	api.DELETE("/containers/:id", perm(models.PermShippingWrite), deleteHandler(models.DeleteContainer))
	api.GET("/shipping-payments/:id", perm(models.PermShippingRead), getHandler(models.GetShippingPayment))
	api.PUT("/shipping-payments/:id", perm(models.PermShippingWrite), updateHandler(models.UpdateShippingPayment))
	api.DELETE("/shipping-payments/:id", perm(models.PermShippingWrite), deleteHandler(models.DeleteShippingPayment))

	// expenses and trucks
	api.GET("/expenses", perm(models.PermExpensesRead), listExpensesHandler())
	api.POST("/expenses", perm(models.PermExpensesWrite), createHandler(models.CreateExpense))
	api.GET("/expenses/:id", perm(models.PermExpensesRead), getHandler(models.GetExpense))
	api.PUT("/expenses/:id", perm(models.PermExpensesWrite), updateHandler(models.UpdateExpense))
	api.DELETE("/expenses/:id", perm(models.PermExpensesWrite), deleteExpenseHandler(stores))
	api.POST("/expenses/:id/receipt", perm(models.PermExpensesWrite), uploadReceiptHandler(stores))
	api.GET("/trucks", perm(models.PermTrucksRead), listTrucksHandler())
	api.POST("/trucks", perm(models.PermTrucksWrite), createHandler(models.CreateTruck))
	api.GET("/trucks/:id", perm(models.PermTrucksRead), getHandler(models.GetTruck))
	api.PUT("/trucks/:id", perm(models.PermTrucksWrite), updateHandler(models.UpdateTruck))
	api.DELETE("/trucks/:id", perm(models.PermTrucksWrite), deleteHandler(models.DeleteTruck))

	// administration
	api.GET("/users", perm(models.PermUsersManage), listUsersHandler())
	api.POST("/users", perm(models.PermUsersManage), createHandler(models.CreateUser))
	api.PUT("/users/:id", perm(models.PermUsersManage), updateHandler(models.UpdateUser))
	api.DELETE("/users/:id", perm(models.PermUsersManage), deleteHandler(models.DeleteUser))
	api.GET("/histories", perm(models.PermUsersManage), listHistoriesHandler())
	api.GET("/ledger-events", perm(models.PermUsersManage), listLedgerEventsHandler())
	api.POST("/ledger-events/:id/replay", perm(models.PermUsersManage), replayLedgerEventHandler())
}
