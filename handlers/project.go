package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/models"
)

func listProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.ProjectStatus
		if v := queryString(c, "status"); v != nil {
			s := models.ProjectStatus(*v)
			status = &s
		}
		results, err := models.GetProjects(c.Request.Context(), queryString(c, "name"), status)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func listProjectTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectId, err := queryInt(c, "project_id")
		if err != nil {
			respondError(c, err)
			return
		}
		limit, err := queryLimit(c)
		if err != nil {
			respondError(c, err)
			return
		}
		page, err := models.PaginateProjectTransactions(c.Request.Context(), projectId, queryString(c, "after"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, page)
	}
}
