package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is zero-based: page 0 is the first page.
type PageRequest struct {
	Page int
	Size int
	Sort string
	Desc bool
}

func NewPageRequest(page, size int) PageRequest {
	return PageRequest{Page: page, Size: size}.Normalize()
}

func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// OrderBy renders the sort clause, falling back when the requested column is
// not in allowed.
func (p PageRequest) OrderBy(allowed map[string]string, fallback string) string {
	column, ok := allowed[p.Sort]
	if !ok {
		return fallback
	}
	if p.Desc {
		return column + " DESC"
	}
	return column + " ASC"
}

// Paginate applies offset and limit to a gorm query.
func Paginate(p PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Size)
	}
}

// GetPageRequest reads page, size and sort ("field" or "field,desc") query
// parameters.
func GetPageRequest(c *gin.Context) PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))

	req := PageRequest{Page: page, Size: size}
	if sort := c.Query("sort"); sort != "" {
		parts := strings.SplitN(sort, ",", 2)
		req.Sort = parts[0]
		req.Desc = len(parts) == 2 && strings.EqualFold(parts[1], "desc")
	}
	return req.Normalize()
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
}

func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page >= totalPages-1,
		HasNext:       req.Page < totalPages-1,
		HasPrevious:   req.Page > 0,
	}
}

// MapPage converts page content while keeping the paging metadata.
func MapPage[T, R any](page Page[T], fn func(T) R) Page[R] {
	content := make([]R, len(page.Content))
	for i, item := range page.Content {
		content[i] = fn(item)
	}
	return Page[R]{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
		HasNext:       page.HasNext,
		HasPrevious:   page.HasPrevious,
	}
}
