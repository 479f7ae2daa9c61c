package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestLibrary(p Policy) *Library {
	return New(WithPolicy(p), WithClock(func() time.Time { return fixedNow }))
}

func TestSampleScenarioReport(t *testing.T) {
	lib := New()
	book := NewBook(1, "C++ Programming", "Bjarne Stroustrup", 2020, BookInfo{})
	member := NewMember(101, "John Doe", "john@example.com", "1234567890")

	require.NoError(t, lib.AddResource(book))
	require.NoError(t, lib.AddMember(member))
	require.NoError(t, member.IssueResource(book))
	assert.False(t, book.Available)

	assert.Equal(t,
		"--- Library Report ---\nTotal Resources: 1\nTotal Members: 1\nTotal Transactions: 0\n",
		lib.GenerateReport())

	lib.RecordTransaction(NewTransaction(ActionIssue, 1, 101, time.Now(), 0))
	assert.Equal(t,
		"--- Library Report ---\nTotal Resources: 1\nTotal Members: 1\nTotal Transactions: 1\n",
		lib.GenerateReport())
}

func TestRemoveResourceRemovesEveryMatch(t *testing.T) {
	lib := New()
	for _, id := range []int64{3, 7, 1, 7, 9} {
		require.NoError(t, lib.AddResource(NewBook(id, "T", "A", 2000, BookInfo{})))
	}

	n, err := lib.RemoveResource(7)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{3, 1, 9}, resourceIDs(lib.Resources()))

	_, err = lib.FindResource(7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveMemberRemovesEveryMatch(t *testing.T) {
	lib := New()
	for _, id := range []int64{5, 6, 5} {
		require.NoError(t, lib.AddMember(NewMember(id, "M", "", "")))
	}

	n, err := lib.RemoveMember(5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, lib.Members(), 1)
	assert.Equal(t, int64(6), lib.Members()[0].ID)
}

func TestRemoveMissing(t *testing.T) {
	lenient := New()
	n, err := lenient.RemoveResource(1)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = lenient.RemoveMember(1)
	require.NoError(t, err)
	assert.Zero(t, n)

	strict := newTestLibrary(strictPolicy(ReturnByID))
	_, err = strict.RemoveResource(1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = strict.RemoveMember(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindReturnsFirstMatch(t *testing.T) {
	lib := New()
	first := NewBook(1, "First", "A", 2000, BookInfo{})
	second := NewBook(1, "Second", "A", 2000, BookInfo{})
	require.NoError(t, lib.AddResource(first))
	require.NoError(t, lib.AddResource(second))

	got, err := lib.FindResource(1)
	require.NoError(t, err)
	assert.Same(t, first, got)

	m1 := NewMember(9, "One", "", "")
	m2 := NewMember(9, "Two", "", "")
	require.NoError(t, lib.AddMember(m1))
	require.NoError(t, lib.AddMember(m2))
	gotMember, err := lib.FindMember(9)
	require.NoError(t, err)
	assert.Same(t, m1, gotMember)

	_, err = lib.FindMember(10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStrictLibraryRejectsDuplicateIDs(t *testing.T) {
	lib := newTestLibrary(strictPolicy(ReturnByID))
	require.NoError(t, lib.AddResource(NewBook(1, "T", "A", 2000, BookInfo{})))
	assert.ErrorIs(t, lib.AddResource(NewEBook(1, "U", "B", 2001, EBookInfo{})), ErrDuplicateID)
	assert.Len(t, lib.Resources(), 1)

	require.NoError(t, lib.AddMember(NewMember(1, "M", "", "")))
	assert.ErrorIs(t, lib.AddMember(NewMember(1, "N", "", "")), ErrDuplicateID)
	assert.Len(t, lib.Members(), 1)
}

func TestAddMemberAppliesLibraryPolicy(t *testing.T) {
	lib := newTestLibrary(Policy{FineRatePerDay: 2, ReturnMode: ReturnTop})
	m := NewMember(1, "M", "", "")
	r := NewBook(1, "T", "A", 2000, BookInfo{})
	require.NoError(t, lib.AddMember(m))
	require.NoError(t, lib.AddResource(r))

	txn, err := lib.Return(1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, txn.FineAmount)
}

func TestIssueAndReturnRecordTransactions(t *testing.T) {
	lib := newTestLibrary(DefaultPolicy())
	book := NewBook(1, "C++ Programming", "Bjarne Stroustrup", 2020, BookInfo{})
	member := NewMember(101, "John Doe", "", "")
	require.NoError(t, lib.AddResource(book))
	require.NoError(t, lib.AddMember(member))

	issued, err := lib.Issue(101, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionIssue, issued.Action)
	assert.Zero(t, issued.FineAmount)
	assert.Equal(t, fixedNow, issued.Date)
	assert.False(t, book.Available)

	returned, err := lib.Return(101, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, ActionReturn, returned.Action)
	assert.Equal(t, 15, returned.FineAmount)
	assert.True(t, book.Available)
	assert.Equal(t, 15, member.TotalFine())

	queue := lib.Transactions()
	require.Len(t, queue, 2)
	assert.Equal(t, issued.ID, queue[0].ID)
	assert.Equal(t, returned.ID, queue[1].ID)

	recent := lib.RecentActivity()
	require.Len(t, recent, 2)
	assert.Equal(t, returned.ID, recent[0].ID)
	assert.Equal(t, issued.ID, recent[1].ID)

	assert.Contains(t, lib.GenerateReport(), "Total Transactions: 2\n")
}

func TestIssueUnknownEntities(t *testing.T) {
	lib := New()
	require.NoError(t, lib.AddResource(NewBook(1, "T", "A", 2000, BookInfo{})))
	require.NoError(t, lib.AddMember(NewMember(101, "M", "", "")))

	_, err := lib.Issue(999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = lib.Issue(101, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = lib.Return(101, 999, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, lib.Transactions())
}

func TestStrictIssueRefusesHeldResource(t *testing.T) {
	lib := newTestLibrary(strictPolicy(ReturnByID))
	require.NoError(t, lib.AddResource(NewBook(1, "T", "A", 2000, BookInfo{})))
	require.NoError(t, lib.AddMember(NewMember(101, "A", "", "")))
	require.NoError(t, lib.AddMember(NewMember(102, "B", "", "")))

	_, err := lib.Issue(101, 1)
	require.NoError(t, err)
	_, err = lib.Issue(102, 1)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
	assert.Len(t, lib.Transactions(), 1)

	_, err = lib.Return(102, 1, 0)
	assert.ErrorIs(t, err, ErrEmptyStack)
	assert.Len(t, lib.Transactions(), 1)
}

func TestStrictTopReturnKeepsEveryResourceReachable(t *testing.T) {
	lib := newTestLibrary(strictPolicy(ReturnTop))
	require.NoError(t, lib.AddResource(NewBook(1, "First", "A", 2000, BookInfo{})))
	require.NoError(t, lib.AddResource(NewBook(2, "Second", "A", 2000, BookInfo{})))
	require.NoError(t, lib.AddMember(NewMember(101, "A", "", "")))
	require.NoError(t, lib.AddMember(NewMember(102, "B", "", "")))

	_, err := lib.Issue(101, 1)
	require.NoError(t, err)
	_, err = lib.Issue(101, 2)
	require.NoError(t, err)

	_, err = lib.Return(101, 1, 0)
	assert.ErrorIs(t, err, ErrNotOnTop)
	assert.Len(t, lib.Transactions(), 2)

	_, err = lib.Return(101, 2, 0)
	require.NoError(t, err)
	_, err = lib.Issue(102, 2)
	require.NoError(t, err, "returned resource circulates again")
	_, err = lib.Return(101, 1, 0)
	require.NoError(t, err)
}

func TestLenientIssueAllowsDoubleIssue(t *testing.T) {
	lib := newTestLibrary(DefaultPolicy())
	require.NoError(t, lib.AddResource(NewBook(1, "T", "A", 2000, BookInfo{})))
	require.NoError(t, lib.AddMember(NewMember(101, "A", "", "")))
	require.NoError(t, lib.AddMember(NewMember(102, "B", "", "")))

	_, err := lib.Issue(101, 1)
	require.NoError(t, err)
	_, err = lib.Issue(102, 1)
	require.NoError(t, err)
	assert.Len(t, lib.Transactions(), 2)
}

func TestSnapshot(t *testing.T) {
	lib := newTestLibrary(DefaultPolicy())
	require.NoError(t, lib.AddResource(NewBook(1, "T", "A", 2000, BookInfo{ISBN: "123"})))
	require.NoError(t, lib.AddResource(NewJournal(2, "J", "B", 2001, JournalInfo{JournalName: "N", Volume: 3})))
	require.NoError(t, lib.AddMember(NewMember(101, "M", "m@example.com", "")))
	_, err := lib.Issue(101, 2)
	require.NoError(t, err)

	s := lib.Snapshot()
	require.Len(t, s.Resources, 2)
	assert.Equal(t, KindBook, s.Resources[0].Kind)
	require.NotNil(t, s.Resources[0].Book)
	assert.Equal(t, "123", s.Resources[0].Book.ISBN)
	assert.Nil(t, s.Resources[0].Journal)
	require.NotNil(t, s.Resources[1].Journal)
	assert.Equal(t, 3, s.Resources[1].Journal.Volume)

	require.Len(t, s.Members, 1)
	assert.Equal(t, []int64{2}, s.Members[0].Issued)
	assert.Len(t, s.Transactions, 1)
}
