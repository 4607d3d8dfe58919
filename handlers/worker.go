package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/middlewares"
	"github.com/mmdatafocus/tradeportal_backend/models"
)

type workerTransactionView struct {
	*models.WorkerTransaction
	WorkerName string `json:"worker_name"`
}

func listWorkersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		isActive, err := queryBool(c, "is_active")
		if err != nil {
			respondError(c, err)
			return
		}
		results, err := models.GetWorkers(c.Request.Context(), queryString(c, "name"), queryString(c, "status"), isActive)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func listWorkerTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		workerId, err := queryInt(c, "worker_id")
		if err != nil {
			respondError(c, err)
			return
		}
		var txType *models.WorkerTransactionType
		if v := queryString(c, "type"); v != nil {
			t := models.WorkerTransactionType(*v)
			txType = &t
		}
		limit, err := queryLimit(c)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		page, err := models.PaginateWorkerTransactions(ctx, workerId, txType, queryString(c, "after"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		ids := make([]int, len(page.Items))
		for i, t := range page.Items {
			ids[i] = t.WorkerId
		}
		names, err := middlewares.GetWorkerNames(ctx, ids)
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]*workerTransactionView, len(page.Items))
		for i, t := range page.Items {
			views[i] = &workerTransactionView{WorkerTransaction: t, WorkerName: names[t.WorkerId]}
		}
		respondData(c, http.StatusOK, gin.H{"items": views, "page_info": page.PageInfo})
	}
}

func paySalariesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSalaryRun
		if !bindJSON(c, &input) {
			return
		}
		results, err := models.PaySalaries(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, results)
	}
}
