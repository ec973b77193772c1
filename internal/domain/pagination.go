package domain

// PaginationParams selects one page of a registration listing.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Clamp returns p with Page at least 1 and PageSize within [1, maxSize];
// a missing PageSize becomes defaultSize.
func (p PaginationParams) Clamp(defaultSize, maxSize int) PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Offset is the number of rows before the page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
