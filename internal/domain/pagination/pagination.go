// Package pagination slices ordered sequences into fixed-size pages.
package pagination

import "fmt"

// Window is one page of items plus the size of the sequence it came from.
type Window[T any] struct {
	Items []T
	Total int
}

// Validate reports whether pageIndex and pageSize address a page.
// pageSize must be positive and pageIndex non-negative.
func Validate(pageIndex, pageSize int) error {
	if pageSize <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidPageSize, pageSize)
	}
	if pageIndex < 0 {
		return fmt.Errorf("%w: %d (must not be negative)", ErrInvalidPageIndex, pageIndex)
	}
	return nil
}

// Paginate returns items[pageIndex*pageSize : pageIndex*pageSize+pageSize]
// clamped to len(items). A page past the end is empty, not an error.
// The returned slice is a copy; items is never aliased.
func Paginate[T any](items []T, pageIndex, pageSize int) (Window[T], error) {
	if err := Validate(pageIndex, pageSize); err != nil {
		return Window[T]{}, err
	}

	total := len(items)
	// pageIndex*pageSize may overflow for large indexes; bound it first.
	if pageIndex >= PageCount(total, pageSize) {
		return Window[T]{Items: []T{}, Total: total}, nil
	}

	start := pageIndex * pageSize
	end := min(start+pageSize, total)
	page := make([]T, end-start)
	copy(page, items[start:end])
	return Window[T]{Items: page, Total: total}, nil
}

// PageCount returns ceil(total/pageSize), or 0 when pageSize is not positive.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	n := total / pageSize
	if total%pageSize != 0 {
		n++
	}
	return n
}
