package library

// Member is a registered patron. Issued resources are kept as a stack, most
// recently issued on top.
type Member struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	issued    []*Resource
	totalFine int
	policy    Policy
	policySet bool
}

func NewMember(id int64, name, email, phone string) *Member {
	return &Member{ID: id, Name: name, Email: email, Phone: phone, policy: DefaultPolicy()}
}

// SetPolicy replaces the circulation rules used by IssueResource and
// ReturnResource.
func (m *Member) SetPolicy(p Policy) {
	m.policy = p
	m.policySet = true
}

// rules returns the member's policy; a Member built without NewMember and
// never given a policy gets DefaultPolicy. A zero fine rate set explicitly
// is kept.
func (m *Member) rules() Policy {
	if !m.policySet {
		return DefaultPolicy()
	}
	return m.policy
}

// IssueResource pushes r onto the issued stack and marks it issued. A strict
// policy refuses resources that are already out.
func (m *Member) IssueResource(r *Resource) error {
	if m.rules().Strict && !r.Available {
		return newError(CodeResourceUnavailable, "resource %d is already issued", r.ID)
	}
	m.issued = append(m.issued, r)
	r.MarkIssued()
	return nil
}

// ReturnResource takes r back, marks it returned and adds the fine for
// daysLate to the member's total. It returns the fine charged.
//
// Which stack entry is removed depends on the policy's ReturnMode. Under
// ReturnTop the top of the stack goes even when it is not r; a strict policy
// refuses that instead, so the popped resource is never left issued to
// nobody.
func (m *Member) ReturnResource(r *Resource, daysLate int) (int, error) {
	p := m.rules()
	fine, err := Fine{DaysLate: daysLate, RatePerDay: p.FineRatePerDay}.Calculate()
	if err != nil {
		if p.Strict {
			return 0, err
		}
		fine = 0
	}

	idx := m.indexOf(r.ID)
	if p.Strict {
		if len(m.issued) == 0 {
			return 0, newError(CodeEmptyStack, "member %d has no issued resources", m.ID)
		}
		if idx < 0 {
			return 0, newError(CodeResourceNotIssued, "resource %d is not issued to member %d", r.ID, m.ID)
		}
		if top := m.issued[len(m.issued)-1]; p.ReturnMode != ReturnByID && top.ID != r.ID {
			return 0, newError(CodeNotOnTop, "resource %d is not on top of member %d's stack (top is %d)", r.ID, m.ID, top.ID)
		}
	}

	switch p.ReturnMode {
	case ReturnByID:
		if idx >= 0 {
			m.issued = append(m.issued[:idx], m.issued[idx+1:]...)
		}
	default:
		if n := len(m.issued); n > 0 {
			m.issued[n-1] = nil
			m.issued = m.issued[:n-1]
		}
	}

	r.MarkReturned()
	m.totalFine += fine
	return fine, nil
}

// indexOf returns the stack position of the most recently issued resource
// with the given id, or -1.
func (m *Member) indexOf(id int64) int {
	for i := len(m.issued) - 1; i >= 0; i-- {
		if m.issued[i].ID == id {
			return i
		}
	}
	return -1
}

// ViewIssued returns the issued resources, most recently issued first. The
// stack itself is left untouched.
func (m *Member) ViewIssued() []*Resource {
	out := make([]*Resource, 0, len(m.issued))
	for i := len(m.issued) - 1; i >= 0; i-- {
		out = append(out, m.issued[i])
	}
	return out
}

// Holds reports whether r itself is on the issued stack.
func (m *Member) Holds(r *Resource) bool {
	for _, held := range m.issued {
		if held == r {
			return true
		}
	}
	return false
}

func (m *Member) IssuedCount() int { return len(m.issued) }

// TotalFine is the sum of all fines charged to the member.
func (m *Member) TotalFine() int { return m.totalFine }

// restore reinstates state loaded from storage. issued is bottom-first.
func (m *Member) restore(issued []*Resource, totalFine int) {
	m.issued = issued
	m.totalFine = totalFine
}
