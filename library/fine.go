package library

// DefaultFineRate is the fine per day late, in rupees.
const DefaultFineRate = 5

// Fine is the penalty for a single late return.
type Fine struct {
	DaysLate   int
	RatePerDay int
}

// Calculate returns DaysLate * RatePerDay. Negative days are rejected.
func (f Fine) Calculate() (int, error) {
	if f.DaysLate < 0 {
		return 0, newError(CodeInvalidFineInput, "days late must not be negative, got %d", f.DaysLate)
	}
	return f.DaysLate * f.RatePerDay, nil
}

// CalculateFine computes the fine for daysLate at DefaultFineRate.
func CalculateFine(daysLate int) (int, error) {
	return Fine{DaysLate: daysLate, RatePerDay: DefaultFineRate}.Calculate()
}

// ReturnMode selects which entry of a member's issued stack a return removes.
type ReturnMode string

const (
	// ReturnTop pops the most recently issued resource, whichever resource
	// is actually being returned.
	ReturnTop ReturnMode = "top"
	// ReturnByID removes the most recently issued entry matching the
	// returned resource's id.
	ReturnByID ReturnMode = "by-id"
)

// Policy holds the circulation rules shared by a Library and its members.
type Policy struct {
	FineRatePerDay int
	Strict         bool
	ReturnMode     ReturnMode
}

// DefaultPolicy is lenient, pops the top of the stack on return and
// charges DefaultFineRate.
func DefaultPolicy() Policy {
	return Policy{FineRatePerDay: DefaultFineRate, ReturnMode: ReturnTop}
}
