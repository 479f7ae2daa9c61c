package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleResources() []*Resource {
	return []*Resource{
		NewBook(3, "Go", "Pike", 2012, BookInfo{}),
		NewEBook(1, "Algorithms", "Sedgewick", 2011, EBookInfo{}),
		NewBook(2, "Go", "Griesemer", 2015, BookInfo{}),
		NewJournal(2, "Compilers", "Aho", 1986, JournalInfo{}),
	}
}

func TestSortByTitleIsStable(t *testing.T) {
	list := sampleResources()
	sorted := ResourceSorter().SortByTitle(list)

	assert.Equal(t, []string{"Algorithms", "Compilers", "Go", "Go"},
		[]string{sorted[0].Title, sorted[1].Title, sorted[2].Title, sorted[3].Title})
	// Pike was before Griesemer in the input.
	assert.Same(t, list[0], sorted[2])
	assert.Same(t, list[2], sorted[3])

	assert.Equal(t, []int64{3, 1, 2, 2}, resourceIDs(list), "input is not mutated")
}

func TestSortByIDIsStable(t *testing.T) {
	list := sampleResources()
	sorted := ResourceSorter().SortByID(list)

	assert.Equal(t, []int64{1, 2, 2, 3}, resourceIDs(sorted))
	assert.Same(t, list[2], sorted[1])
	assert.Same(t, list[3], sorted[2])
}

func TestSortIsIdempotent(t *testing.T) {
	s := ResourceSorter()
	list := sampleResources()

	byTitle := s.SortByTitle(list)
	assert.Equal(t, byTitle, s.SortByTitle(byTitle))

	byID := s.SortByID(list)
	assert.Equal(t, byID, s.SortByID(byID))
}

func TestSearchReturnsTheElementItself(t *testing.T) {
	s := ResourceSorter()
	list := sampleResources()

	got, ok := s.SearchByTitle(list, "Go")
	assert.True(t, ok)
	assert.Same(t, list[0], got)

	got, ok = s.SearchByID(list, 2)
	assert.True(t, ok)
	assert.Same(t, list[2], got)

	_, ok = s.SearchByTitle(list, "go")
	assert.False(t, ok, "title match is exact")
	_, ok = s.SearchByID(list, 42)
	assert.False(t, ok)
}

func TestSearchEmptyList(t *testing.T) {
	s := ResourceSorter()
	got, ok := s.SearchByTitle(nil, "Go")
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok = s.SearchByID([]*Resource{}, 1)
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.Empty(t, s.SortByTitle(nil))
}

// Any entity shape works once the accessors are supplied.
func TestSearchSorterOverOtherTypes(t *testing.T) {
	type paper struct {
		Name string
		Ref  int64
	}
	s := NewSearchSorter(
		func(p paper) string { return p.Name },
		func(p paper) int64 { return p.Ref },
	)
	papers := []paper{{"b", 2}, {"a", 3}, {"c", 1}}

	assert.Equal(t, []paper{{"a", 3}, {"b", 2}, {"c", 1}}, s.SortByTitle(papers))
	assert.Equal(t, []paper{{"c", 1}, {"b", 2}, {"a", 3}}, s.SortByID(papers))

	got, ok := s.SearchByID(papers, 3)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Name)
}
