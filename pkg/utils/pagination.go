package utils

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxOffset caps the offset of far-out pages. Firestore offsets are 32-bit.
	MaxOffset = math.MaxInt32
)

type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams reads page and limit query parameters, falling back to sane defaults.
func GetPaginationParams(c echo.Context) PaginationParams {
	return NewPaginationParams(c.QueryParam("page"), c.QueryParam("limit"))
}

func NewPaginationParams(pageStr, limitStr string) PaginationParams {
	page, _ := strconv.Atoi(pageStr)
	pageSize, _ := strconv.Atoi(limitStr)

	if page <= 0 {
		page = 1
	}

	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	offset := MaxOffset
	if page-1 <= MaxOffset/pageSize {
		offset = (page - 1) * pageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   offset,
	}
}

// Paginate returns the window of items selected by p.
func Paginate[T any](items []T, p PaginationParams) []T {
	if p.Offset < 0 || p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.PageSize > 0 && p.PageSize < end-p.Offset {
		end = p.Offset + p.PageSize
	}
	return items[p.Offset:end]
}
