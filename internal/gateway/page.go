package gateway

const DefaultPageLimit = 12

// PageRequest addresses one page of a range read, pages start at 1
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the page to 1 and the limit to DefaultPageLimit when unset
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultPageLimit
	}
	return r
}

// Bounds returns the inclusive row range of the page
func (r PageRequest) Bounds() (offset, upper int) {
	r = r.Normalize()
	offset = (r.Page - 1) * r.Limit
	upper = offset + r.Limit - 1
	return offset, upper
}

// TotalPages is ceil(count / limit)
func TotalPages(count int64, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	l := int64(limit)
	return int((count + l - 1) / l)
}

// Page is the result of a range read
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

func newPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		TotalPages: TotalPages(total, req.Limit),
		Page:       req.Page,
		Limit:      req.Limit,
	}
}
