package types

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
	MaxPage         = 1_000_000
)

// Pagination is a 1-based page request
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the envelope of every paginated listing
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
