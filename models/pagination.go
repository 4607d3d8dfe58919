package models

import (
	"encoding/base64"
	"strconv"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type PageInfo struct {
	StartCursor string `json:"startCursor"`
	EndCursor   string `json:"endCursor"`
	HasNextPage *bool  `json:"hasNextPage,omitempty"`
}

type Page[T any] struct {
	Items    []*T     `json:"items"`
	PageInfo PageInfo `json:"page_info"`
}

type identified interface {
	GetId() int
}

func DecodeCursor(cursor *string) (int, error) {
	if cursor == nil || *cursor == "" {
		return 0, nil
	}
	b, err := base64.StdEncoding.DecodeString(*cursor)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(b))
}

func EncodeCursor(id int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(id)))
}

func normalizePageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// paginateById pages newest first. The cursor is the last id of the previous page.
func paginateById[T identified](dbCtx *gorm.DB, after *string, limit int) (*Page[T], error) {
	limit = normalizePageSize(limit)
	lastId, err := DecodeCursor(after)
	if err != nil {
		return nil, err
	}
	if lastId > 0 {
		dbCtx = dbCtx.Where("id < ?", lastId)
	}
	var rows []*T
	if err := dbCtx.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}
	page := &Page[T]{Items: rows, PageInfo: PageInfo{HasNextPage: &hasNext}}
	if len(rows) > 0 {
		page.PageInfo.StartCursor = EncodeCursor((*rows[0]).GetId())
		page.PageInfo.EndCursor = EncodeCursor((*rows[len(rows)-1]).GetId())
	}
	return page, nil
}
