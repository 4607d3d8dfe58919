package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/models"
)

func listExternalDebtsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		isFullyPaid, err := queryBool(c, "is_fully_paid")
		if err != nil {
			respondError(c, err)
			return
		}
		results, err := models.GetExternalDebts(c.Request.Context(), queryString(c, "creditor_name"), isFullyPaid)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func listDebtPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		results, err := models.GetDebtPayments(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func addDebtPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewDebtPayment
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.AddDebtPayment(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, result)
	}
}
