package helper

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Pagination: blok "pagination" di response list.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
	Count      int   `json:"count"` // jumlah item di halaman ini
}

// Paging: hasil normalisasi query page/per_page, siap dipakai Offset/Limit.
type Paging struct {
	Page    int
	PerPage int
	Offset  int
	Limit   int
}

const fallbackPerPage = 20

func newPaging(page, perPage, maxPerPage int) Paging {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = fallbackPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Paging{Page: page, PerPage: perPage, Offset: (page - 1) * perPage, Limit: perPage}
}

// ResolvePaging membaca ?page= & ?per_page= (alias ?limit=).
func ResolvePaging(c *fiber.Ctx, defaultPerPage, maxPerPage int) Paging {
	raw := strings.TrimSpace(c.Query("per_page"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("limit"))
	}
	perPage, err := strconv.Atoi(raw)
	if err != nil || perPage <= 0 {
		perPage = defaultPerPage
	}
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	return newPaging(page, perPage, maxPerPage)
}

func BuildPaginationFromPage(total int64, page, perPage int) Pagination {
	p := newPaging(page, perPage, 0)
	totalPages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if totalPages == 0 {
		totalPages = 1
	}
	return Pagination{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}
