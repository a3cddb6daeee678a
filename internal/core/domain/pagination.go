package domain

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page describes a 1-based page request.
type Page struct {
	Page    int
	PerPage int
}

// Skip is the number of records before the first one on this page.
func (p Page) Skip() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages is ceil(total/perPage), never less than 1.
func (p Page) TotalPages(total int64) int {
	if p.PerPage <= 0 || total <= 0 {
		return 1
	}
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if pages < 1 {
		return 1
	}
	return pages
}

// Validate rejects page or perPage values below 1 and caps perPage.
func (p Page) Validate() error {
	v := &ValidationError{Fields: map[string]string{}}
	if p.Page < 1 {
		v.Fields["page"] = "page must be at least 1"
	}
	if p.PerPage < 1 {
		v.Fields["perPage"] = "perPage must be at least 1"
	}
	if p.PerPage > MaxPerPage {
		v.Fields["perPage"] = "perPage must be at most 100"
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}
