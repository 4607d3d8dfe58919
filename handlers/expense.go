package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
)

// StoreFactory opens the receipt store per request so a missing bucket only fails receipt routes.
type StoreFactory func() (utils.ObjectStore, error)

func DefaultStoreFactory() (utils.ObjectStore, error) {
	return utils.NewGCSStore()
}

func listExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.ExpenseFilter
		var err error
		filter.Category = queryString(c, "category")
		if filter.TruckId, err = queryInt(c, "truck_id"); err != nil {
			respondError(c, err)
			return
		}
		if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
			respondError(c, err)
			return
		}
		if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
			respondError(c, err)
			return
		}
		filter.After = queryString(c, "after")
		if filter.Limit, err = queryLimit(c); err != nil {
			respondError(c, err)
			return
		}
		page, err := models.PaginateExpenses(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, page)
	}
}

func deleteExpenseHandler(stores StoreFactory) gin.HandlerFunc {
	return deleteHandler(func(ctx context.Context, id int) (*models.Expense, error) {
		// the row goes even when storage is not configured; objects are then left behind
		store, err := stores()
		if err != nil {
			return models.DeleteExpense(ctx, id, nil)
		}
		return models.DeleteExpense(ctx, id, store)
	})
}

func uploadReceiptHandler(stores StoreFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, models.MaxReceiptSizeBytes+(1<<20))
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > models.MaxReceiptSizeBytes {
			respondError(c, utils.NewValidationError("receipt exceeds %d bytes", models.MaxReceiptSizeBytes))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, models.MaxReceiptSizeBytes+1))
		if err != nil {
			respondError(c, err)
			return
		}

		store, err := stores()
		if err != nil {
			respondError(c, err)
			return
		}
		expense, err := models.AttachExpenseReceipt(c.Request.Context(), id, store,
			fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, expense)
	}
}
