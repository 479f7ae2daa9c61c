package library

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Library is the aggregate root: resources, members and the circulation
// history. It is not safe for concurrent use.
type Library struct {
	resources    []*Resource
	members      []*Member
	transactions []Transaction // FIFO, oldest first
	recent       []Transaction // LIFO, top is the last element

	policy Policy
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithPolicy sets the circulation policy applied to members added later.
func WithPolicy(p Policy) Option {
	return func(l *Library) { l.policy = p }
}

// WithClock overrides the time source used to stamp transactions.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(opts ...Option) *Library {
	l := &Library{
		policy: DefaultPolicy(),
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Library) Policy() Policy { return l.policy }

// ------------------ Resources ------------------

// AddResource appends r. Duplicate ids are accepted unless the policy is
// strict.
func (l *Library) AddResource(r *Resource) error {
	if l.policy.Strict && l.indexOfResource(r.ID) >= 0 {
		return newError(CodeDuplicateID, "resource id %d already exists", r.ID)
	}
	l.resources = append(l.resources, r)
	l.logger.Debug("resource added", "resource_id", r.ID, "kind", r.Kind())
	return nil
}

// RemoveResource removes every resource with the given id, keeping the
// rest in order, and returns how many were removed.
func (l *Library) RemoveResource(id int64) (int, error) {
	kept := l.resources[:0]
	for _, r := range l.resources {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	removed := len(l.resources) - len(kept)
	clear(l.resources[len(kept):])
	l.resources = kept

	if removed == 0 && l.policy.Strict {
		return 0, resourceNotFound(id)
	}
	l.logger.Debug("resources removed", "resource_id", id, "count", removed)
	return removed, nil
}

// FindResource returns the first resource with the given id.
func (l *Library) FindResource(id int64) (*Resource, error) {
	if i := l.indexOfResource(id); i >= 0 {
		return l.resources[i], nil
	}
	return nil, resourceNotFound(id)
}

func (l *Library) indexOfResource(id int64) int {
	for i, r := range l.resources {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Resources returns the resources in insertion order. The slice is a copy;
// the resources are shared.
func (l *Library) Resources() []*Resource {
	return append([]*Resource(nil), l.resources...)
}

// ------------------ Members ------------------

// AddMember appends m and applies the library policy to it.
func (l *Library) AddMember(m *Member) error {
	if l.policy.Strict && l.indexOfMember(m.ID) >= 0 {
		return newError(CodeDuplicateID, "member id %d already exists", m.ID)
	}
	m.SetPolicy(l.policy)
	l.members = append(l.members, m)
	l.logger.Debug("member added", "member_id", m.ID)
	return nil
}

// RemoveMember removes every member with the given id and returns how many
// were removed.
func (l *Library) RemoveMember(id int64) (int, error) {
	kept := l.members[:0]
	for _, m := range l.members {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	removed := len(l.members) - len(kept)
	clear(l.members[len(kept):])
	l.members = kept

	if removed == 0 && l.policy.Strict {
		return 0, memberNotFound(id)
	}
	l.logger.Debug("members removed", "member_id", id, "count", removed)
	return removed, nil
}

// FindMember returns the first member with the given id.
func (l *Library) FindMember(id int64) (*Member, error) {
	if i := l.indexOfMember(id); i >= 0 {
		return l.members[i], nil
	}
	return nil, memberNotFound(id)
}

func (l *Library) indexOfMember(id int64) int {
	for i, m := range l.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (l *Library) Members() []*Member {
	return append([]*Member(nil), l.members...)
}

// holder returns the member whose issued stack contains r, if any.
func (l *Library) holder(r *Resource) *Member {
	for _, m := range l.members {
		if m.Holds(r) {
			return m
		}
	}
	return nil
}

// ------------------ Circulation ------------------

// RecordTransaction appends t to the transaction queue and pushes it on the
// recent-activity stack.
func (l *Library) RecordTransaction(t Transaction) {
	l.transactions = append(l.transactions, t)
	l.recent = append(l.recent, t)
}

// Transactions returns the transaction queue, oldest first.
func (l *Library) Transactions() []Transaction {
	return append([]Transaction(nil), l.transactions...)
}

// RecentActivity returns the recent-activity stack, newest first.
func (l *Library) RecentActivity() []Transaction {
	out := make([]Transaction, 0, len(l.recent))
	for i := len(l.recent) - 1; i >= 0; i-- {
		out = append(out, l.recent[i])
	}
	return out
}

// Issue issues a resource to a member and records the transaction. A strict
// library also refuses a resource another member holds.
func (l *Library) Issue(memberID, resourceID int64) (Transaction, error) {
	m, r, err := l.lookup(memberID, resourceID)
	if err != nil {
		return Transaction{}, err
	}
	if l.policy.Strict {
		if h := l.holder(r); h != nil {
			return Transaction{}, newError(CodeResourceUnavailable, "resource %d is held by member %d", r.ID, h.ID)
		}
	}
	if err := m.IssueResource(r); err != nil {
		return Transaction{}, err
	}

	t := NewTransaction(ActionIssue, r.ID, m.ID, l.now(), 0)
	l.RecordTransaction(t)
	l.logger.Info("resource issued", "resource_id", r.ID, "member_id", m.ID)
	return t, nil
}

// Return takes a resource back from a member, charges the fine for daysLate
// and records the transaction.
func (l *Library) Return(memberID, resourceID int64, daysLate int) (Transaction, error) {
	m, r, err := l.lookup(memberID, resourceID)
	if err != nil {
		return Transaction{}, err
	}
	fine, err := m.ReturnResource(r, daysLate)
	if err != nil {
		return Transaction{}, err
	}

	t := NewTransaction(ActionReturn, r.ID, m.ID, l.now(), fine)
	l.RecordTransaction(t)
	l.logger.Info("resource returned", "resource_id", r.ID, "member_id", m.ID, "fine", fine)
	return t, nil
}

func (l *Library) lookup(memberID, resourceID int64) (*Member, *Resource, error) {
	m, err := l.FindMember(memberID)
	if err != nil {
		return nil, nil, err
	}
	r, err := l.FindResource(resourceID)
	if err != nil {
		return nil, nil, err
	}
	return m, r, nil
}

// ------------------ Reporting ------------------

// GenerateReport returns the resource, member and transaction counts.
func (l *Library) GenerateReport() string {
	var sb strings.Builder
	sb.WriteString("--- Library Report ---\n")
	fmt.Fprintf(&sb, "Total Resources: %d\n", len(l.resources))
	fmt.Fprintf(&sb, "Total Members: %d\n", len(l.members))
	fmt.Fprintf(&sb, "Total Transactions: %d\n", len(l.transactions))
	return sb.String()
}

// Snapshot captures the library state for export.
func (l *Library) Snapshot() Snapshot {
	s := Snapshot{
		Resources:    make([]ResourceView, 0, len(l.resources)),
		Members:      make([]MemberView, 0, len(l.members)),
		Transactions: l.Transactions(),
	}
	for _, r := range l.resources {
		s.Resources = append(s.Resources, newResourceView(r))
	}
	for _, m := range l.members {
		s.Members = append(s.Members, newMemberView(m))
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	return s
}
