package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

func listTrucksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.TruckStatus
		if v := queryString(c, "status"); v != nil {
			s := models.TruckStatus(*v)
			status = &s
		}
		results, err := models.GetTrucks(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func listUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func listHistoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		refId, err := queryInt(c, "reference_id")
		if err != nil {
			respondError(c, err)
			return
		}
		limit, err := queryLimit(c)
		if err != nil {
			respondError(c, err)
			return
		}
		results, err := models.ListHistories(c.Request.Context(), c.Query("reference_type"), utils.DereferencePtr(refId), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func replayLedgerEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		if err := models.ReplayLedgerEvent(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, true)
	}
}

func listLedgerEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		refId, err := queryInt(c, "reference_id")
		if err != nil {
			respondError(c, err)
			return
		}
		limit, err := queryLimit(c)
		if err != nil {
			respondError(c, err)
			return
		}
		results, err := models.GetLedgerEvents(c.Request.Context(), c.Query("publish_status"), c.Query("reference_type"), utils.DereferencePtr(refId), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}
