package models

import "math"

// Page selects a zero-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of records skipped before this page.
// It saturates at math.MaxInt instead of overflowing.
func (p Page) Offset() int {
	if p.Number <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Number > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Number * p.Size
}

// PageInfo describes a page returned from a listing.
type PageInfo struct {
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	CurrentPage   int   `json:"currentPage"`
	PageSize      int   `json:"pageSize"`
}

// NewPageInfo computes the page counts for total records split by p.
func NewPageInfo(p Page, total int64) PageInfo {
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return PageInfo{
		TotalElements: total,
		TotalPages:    pages,
		CurrentPage:   p.Number,
		PageSize:      p.Size,
	}
}
