package kernel

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page represents pagination metadata
type Page struct {
	Number int `json:"page"`
	Size   int `json:"pageSize"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

// Paginated is a generic container for paginated data with metadata
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated creates a new paginated result with calculated fields
func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	if items == nil {
		items = []T{}
	}

	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   size,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}

func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}

// PaginationOptions holds options for pagination queries
type PaginationOptions struct {
	Page     int
	PageSize int
}

// Normalize clamps the options to a 1-based page and a bounded page size.
func (o PaginationOptions) Normalize() PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Offset returns the SQL offset of the (normalized) page.
func (o PaginationOptions) Offset() int {
	n := o.Normalize()
	return (n.Page - 1) * n.PageSize
}
