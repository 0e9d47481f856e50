package common

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageParams is a validated page request.
type PageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPageParams applies defaults to zero values and rejects negatives.
// A limit above MaxLimit is clamped.
func NewPageParams(page, limit int) (PageParams, error) {
	if page < 0 {
		return PageParams{}, NewValidationError("page", "page must be at least 1")
	}
	if limit < 0 {
		return PageParams{}, NewValidationError("limit", "limit must be at least 1")
	}
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageParams{Page: page, Limit: limit}, nil
}

// PageParamsFromQuery reads ?page=&limit= from the request.
func PageParamsFromQuery(c echo.Context) (PageParams, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return PageParams{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return PageParams{}, err
	}
	if c.QueryParam("page") != "" && page < 1 {
		return PageParams{}, NewValidationError("page", "page must be at least 1")
	}
	if c.QueryParam("limit") != "" && limit < 1 {
		return PageParams{}, NewValidationError("limit", "limit must be at least 1")
	}
	return NewPageParams(page, limit)
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationError(name, name+" must be an integer")
	}
	return v, nil
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata block returned with every list.
type Pagination struct {
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func NewPagination(totalItems int64, p PageParams) Pagination {
	totalPages := 0
	if totalItems > 0 {
		totalPages = int((totalItems + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{
		TotalItems: totalItems,
		TotalPages: totalPages,
		Page:       p.Page,
		Limit:      p.Limit,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

// Page is one page of results.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type (
	FetchFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)
	CountFunc        func(ctx context.Context) (int64, error)
)

// Paginate runs fetch and count concurrently and assembles a Page.
// A page past the end yields empty data, never nil.
func Paginate[T any](ctx context.Context, p PageParams, fetch FetchFunc[T], count CountFunc) (*Page[T], error) {
	var (
		items []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = fetch(gctx, p.Limit, p.Offset())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Data: items, Pagination: NewPagination(total, p)}, nil
}
