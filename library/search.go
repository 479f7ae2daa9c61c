package library

import (
	"cmp"
	"slices"
	"strings"
)

// SearchSorter sorts and searches any slice whose elements expose a title
// and an id through the two accessors.
type SearchSorter[T any] struct {
	title func(T) string
	id    func(T) int64
}

func NewSearchSorter[T any](title func(T) string, id func(T) int64) SearchSorter[T] {
	return SearchSorter[T]{title: title, id: id}
}

// ResourceSorter is the SearchSorter for catalog resources.
func ResourceSorter() SearchSorter[*Resource] {
	return NewSearchSorter(
		func(r *Resource) string { return r.Title },
		func(r *Resource) int64 { return r.ID },
	)
}

// SortByTitle returns a copy of list in ascending title order. Equal
// titles keep their relative order.
func (s SearchSorter[T]) SortByTitle(list []T) []T {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return strings.Compare(s.title(a), s.title(b))
	})
	return sorted
}

// SortByID returns a copy of list in ascending id order, stable.
func (s SearchSorter[T]) SortByID(list []T) []T {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(s.id(a), s.id(b))
	})
	return sorted
}

// SearchByTitle returns the first element whose title equals title.
func (s SearchSorter[T]) SearchByTitle(list []T, title string) (T, bool) {
	for _, item := range list {
		if s.title(item) == title {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// SearchByID returns the first element with the given id.
func (s SearchSorter[T]) SearchByID(list []T, id int64) (T, bool) {
	for _, item := range list {
		if s.id(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}
