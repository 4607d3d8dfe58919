package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/middlewares"
	"github.com/mmdatafocus/tradeportal_backend/models"
)

type transferView struct {
	*models.Transfer
	FromCompanyName string `json:"from_company_name"`
	ToCompanyName   string `json:"to_company_name"`
}

func transferViews(ctx context.Context, transfers []*models.Transfer) ([]*transferView, error) {
	ids := make([]int, 0, len(transfers)*2)
	for _, t := range transfers {
		ids = append(ids, t.FromCompanyId, t.ToCompanyId)
	}
	names, err := middlewares.GetCompanyNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]*transferView, len(transfers))
	for i, t := range transfers {
		views[i] = &transferView{
			Transfer:        t,
			FromCompanyName: names[t.FromCompanyId],
			ToCompanyName:   names[t.ToCompanyId],
		}
	}
	return views, nil
}

func transferFilterFromQuery(c *gin.Context) (models.TransferFilter, error) {
	var filter models.TransferFilter
	var err error
	if filter.CompanyId, err = queryInt(c, "company_id"); err != nil {
		return filter, err
	}
	if status := queryString(c, "status"); status != nil {
		s := models.TransferStatus(*status)
		filter.Status = &s
	}
	if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
		return filter, err
	}
	filter.After = queryString(c, "after")
	if filter.Limit, err = queryLimit(c); err != nil {
		return filter, err
	}
	return filter, nil
}

func listTransfersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := transferFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		page, err := models.PaginateTransfers(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		views, err := transferViews(ctx, page.Items)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"items": views, "page_info": page.PageInfo})
	}
}

func getTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		transfer, err := models.GetTransfer(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		views, err := transferViews(ctx, []*models.Transfer{transfer})
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, views[0])
	}
}
