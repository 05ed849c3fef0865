package shared

// Pagination limits applied to every list operation.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// ClampPageSize normalizes a requested page size. Zero, negative and
// oversized values are clamped silently rather than rejected.
func ClampPageSize(requested int) int {
	if requested <= 0 {
		return DefaultPageSize
	}
	if requested > MaxPageSize {
		return MaxPageSize
	}
	return requested
}

// Page wraps one page of results with the opaque cursor for the next page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}
