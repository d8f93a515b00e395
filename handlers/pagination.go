package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// PaginationParams select a window of the filtered table. The cursor is the
// row offset returned as NextCursor by the previous page.
type PaginationParams struct {
	Limit  int
	Offset int
}

type CursorResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

func ParsePagination(c *gin.Context) PaginationParams {
	p := PaginationParams{Limit: DefaultLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if cursor := c.Query("cursor"); cursor != "" {
		if o, err := strconv.Atoi(cursor); err == nil && o > 0 {
			p.Offset = o
		}
	}

	return p
}

// Page builds the response for one window over total rows.
func (p PaginationParams) Page(data interface{}, returned, total int) CursorResponse {
	resp := CursorResponse{Data: data, Total: total}
	if next := p.Offset + returned; returned > 0 && next < total {
		resp.HasMore = true
		resp.NextCursor = strconv.Itoa(next)
	}
	return resp
}
