package library

import (
	"fmt"
	"strings"
)

// Kind names the variant of a Resource.
type Kind string

const (
	KindResource Kind = "resource"
	KindBook     Kind = "book"
	KindEBook    Kind = "ebook"
	KindJournal  Kind = "journal"
)

// Variant is the kind-specific payload of a Resource. The set of
// implementations is closed: BookInfo, EBookInfo and JournalInfo.
type Variant interface {
	Kind() Kind
	describe() string
}

// BookInfo is the payload of a printed book.
type BookInfo struct {
	Publisher string `json:"publisher" yaml:"publisher"`
	ISBN      string `json:"isbn" yaml:"isbn"`
}

// EBookInfo is the payload of an electronic book.
type EBookInfo struct {
	FileSize string `json:"file_size" yaml:"file_size"`
	Format   string `json:"format" yaml:"format"`
}

// JournalInfo is the payload of a research journal issue.
type JournalInfo struct {
	JournalName string `json:"journal_name" yaml:"journal_name"`
	Volume      int    `json:"volume" yaml:"volume"`
}

func (BookInfo) Kind() Kind    { return KindBook }
func (EBookInfo) Kind() Kind   { return KindEBook }
func (JournalInfo) Kind() Kind { return KindJournal }

func (b BookInfo) describe() string {
	return fmt.Sprintf("publisher %s, ISBN %s", b.Publisher, b.ISBN)
}

func (e EBookInfo) describe() string {
	return fmt.Sprintf("%s, %s", e.Format, e.FileSize)
}

func (j JournalInfo) describe() string {
	return fmt.Sprintf("%s, vol. %d", j.JournalName, j.Volume)
}

// Resource is a catalog item that can circulate. ID is assigned by the
// caller and is not checked for uniqueness unless the library is strict.
type Resource struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Year      int     `json:"year"`
	Available bool    `json:"available"`
	Variant   Variant `json:"-"`
}

func NewBook(id int64, title, author string, year int, info BookInfo) *Resource {
	return &Resource{ID: id, Title: title, Author: author, Year: year, Available: true, Variant: info}
}

func NewEBook(id int64, title, author string, year int, info EBookInfo) *Resource {
	return &Resource{ID: id, Title: title, Author: author, Year: year, Available: true, Variant: info}
}

func NewJournal(id int64, title, author string, year int, info JournalInfo) *Resource {
	return &Resource{ID: id, Title: title, Author: author, Year: year, Available: true, Variant: info}
}

// Kind returns the variant kind, or KindResource when no variant is set.
func (r *Resource) Kind() Kind {
	if r.Variant == nil {
		return KindResource
	}
	return r.Variant.Kind()
}

// Details returns "{title} by {author}" regardless of the variant.
func (r *Resource) Details() string {
	return r.Title + " by " + r.Author
}

// FullDetails extends Details with the variant payload.
func (r *Resource) FullDetails() string {
	if r.Variant == nil {
		return r.Details()
	}
	return fmt.Sprintf("%s (%s, %s)", r.Details(), r.Variant.Kind(), r.Variant.describe())
}

func (r *Resource) MarkIssued()   { r.Available = false }
func (r *Resource) MarkReturned() { r.Available = true }

// ParseKind maps a user-supplied kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindBook:
		return KindBook, nil
	case KindEBook, "e-book":
		return KindEBook, nil
	case KindJournal, "research-journal":
		return KindJournal, nil
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}

// Snapshot represents the complete library state for export.
type Snapshot struct {
	Resources    []ResourceView `json:"resources"`
	Members      []MemberView   `json:"members"`
	Transactions []Transaction  `json:"transactions"`
}

// ResourceView flattens a Resource and its variant for serialization.
type ResourceView struct {
	*Resource
	Kind    Kind         `json:"kind"`
	Book    *BookInfo    `json:"book,omitempty"`
	EBook   *EBookInfo   `json:"ebook,omitempty"`
	Journal *JournalInfo `json:"journal,omitempty"`
}

// MemberView is a Member with its issued stack rendered as resource ids,
// most recently issued first.
type MemberView struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	TotalFine int     `json:"total_fine"`
	Issued    []int64 `json:"issued"`
}

func newResourceView(r *Resource) ResourceView {
	v := ResourceView{Resource: r, Kind: r.Kind()}
	switch p := r.Variant.(type) {
	case BookInfo:
		v.Book = &p
	case EBookInfo:
		v.EBook = &p
	case JournalInfo:
		v.Journal = &p
	}
	return v
}

func newMemberView(m *Member) MemberView {
	v := MemberView{ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, TotalFine: m.TotalFine(), Issued: []int64{}}
	for _, r := range m.ViewIssued() {
		v.Issued = append(v.Issued, r.ID)
	}
	return v
}
