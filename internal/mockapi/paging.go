package mockapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageBody is the paginated list envelope.
type pageBody[T any] struct {
	Count      int     `json:"count"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
	TotalPages int     `json:"total_pages"`
	Results    []T     `json:"results"`
}

// paginate writes one page of items, which are already in response
// order. Pages past the last one are 404, except page 1 of an empty list.
func paginate[T any](c *gin.Context, items []T, size int) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
			return
		}
		page = n
	}

	total := (len(items) + size - 1) / size
	if total == 0 {
		total = 1
	}
	if page > total {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
		return
	}

	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	body := pageBody[T]{
		Count:      len(items),
		TotalPages: total,
		Results:    append(make([]T, 0, end-start), items[start:end]...),
	}
	if page < total {
		body.Next = pageLink(c, page+1)
	}
	if page > 1 {
		body.Previous = pageLink(c, page-1)
	}
	c.JSON(http.StatusOK, body)
}

func pageLink(c *gin.Context, page int) *string {
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	link := fmt.Sprintf("http://%s%s?%s", c.Request.Host, c.Request.URL.Path, q.Encode())
	return &link
}

// newestFirst returns the elements of items matching keep, last added
// first.
func newestFirst[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if keep == nil || keep(items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c)
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into v, answering 400 on malformed input.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}
