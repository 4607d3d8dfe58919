package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/models/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type accountReader func(ctx context.Context, id int) (*models.AccountStatement, error)

func listSuppliersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetSuppliers(c.Request.Context(), queryString(c, "name"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func listShippingCompaniesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetShippingCompanies(c.Request.Context(), queryString(c, "name"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

// listByPartyHandler serves the per supplier / per shipping company sub-collections.
func listByPartyHandler[T any](list func(ctx context.Context, partyId int) ([]*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		results, err := list(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

// createPartyPaymentHandler takes the party from the path.
func createPartyPaymentHandler[T any](create func(ctx context.Context, input *models.NewPartyPayment) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewPartyPayment
		if !bindJSON(c, &input) {
			return
		}
		input.PartyId = id
		result, err := create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, result)
	}
}

func listContainersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		shippingCompanyId, err := queryInt(c, "shipping_company_id")
		if err != nil {
			respondError(c, err)
			return
		}
		var status *models.ContainerStatus
		if v := queryString(c, "status"); v != nil {
			s := models.ContainerStatus(*v)
			status = &s
		}
		results, err := models.GetContainers(c.Request.Context(), shippingCompanyId, status)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

type containerStatusInput struct {
	Status models.ContainerStatus `json:"status" binding:"required"`
}

func updateContainerStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input containerStatusInput
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.UpdateContainerStatus(c.Request.Context(), id, input.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, result)
	}
}

func accountHandler(read accountReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		statement, err := read(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, statement)
	}
}

// accountExportHandler streams the statement as an xlsx attachment.
func accountExportHandler(title string, read accountReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		statement, err := read(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%d.xlsx", title, id)))
		c.Status(http.StatusOK)
		if err := reports.WriteAccountStatement(c.Writer, title, statement); err != nil {
			_ = c.Error(err)
			config.LogError(config.GetLogger(), "handlers", "accountExportHandler", title, id, err)
		}
	}
}
