// Package util holds small request helpers shared by the handlers.
package util

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/views"
)

const maxPageSize = 100

// PageQuery reads ?page=&size=&sort= with 1-based pages.
func PageQuery(c *gin.Context, defaultSize int, defaultSort string) backend.PageQuery {
	q := backend.PageQuery{Page: 1, Size: defaultSize, Sort: defaultSort}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(c.Query("size")); err == nil && n > 0 {
		q.Size = min(n, maxPageSize)
	}
	if s := c.Query("sort"); s != "" {
		q.Sort = s
	}
	return q
}

// ParamID parses a positive path id. On failure it answers 400 and reports false.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		views.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
