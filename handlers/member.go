package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/middlewares"
	"github.com/mmdatafocus/tradeportal_backend/models"
)

type memberView struct {
	*models.Member
	MemberTypeName string `json:"member_type_name"`
}

type memberTransferView struct {
	*models.MemberTransfer
	CompanyName string `json:"company_name"`
}

func listMemberTypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetMemberTypes(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, results)
	}
}

func listMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberTypeId, err := queryInt(c, "member_type_id")
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		members, err := models.GetMembers(ctx, memberTypeId, queryString(c, "name"))
		if err != nil {
			respondError(c, err)
			return
		}
		ids := make([]int, len(members))
		for i, m := range members {
			ids[i] = m.MemberTypeId
		}
		names, err := middlewares.GetMemberTypeNames(ctx, ids)
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]*memberView, len(members))
		for i, m := range members {
			views[i] = &memberView{Member: m, MemberTypeName: names[m.MemberTypeId]}
		}
		respondData(c, http.StatusOK, views)
	}
}

func listMemberTransfersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberId, err := queryInt(c, "member_id")
		if err != nil {
			respondError(c, err)
			return
		}
		limit, err := queryLimit(c)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		page, err := models.PaginateMemberTransfers(ctx, memberId, queryString(c, "after"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		ids := make([]int, len(page.Items))
		for i, t := range page.Items {
			ids[i] = t.CompanyId
		}
		names, err := middlewares.GetCompanyNames(ctx, ids)
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]*memberTransferView, len(page.Items))
		for i, t := range page.Items {
			views[i] = &memberTransferView{MemberTransfer: t, CompanyName: names[t.CompanyId]}
		}
		respondData(c, http.StatusOK, gin.H{"items": views, "page_info": page.PageInfo})
	}
}
