package library

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of circulation event a Transaction records.
type Action string

const (
	ActionIssue  Action = "issue"
	ActionReturn Action = "return"
)

const summaryDateLayout = "2006-01-02 15:04:05"

// Transaction is an immutable record of one issue or return.
type Transaction struct {
	ID         string    `json:"id"`
	ResourceID int64     `json:"resource_id"`
	MemberID   int64     `json:"member_id"`
	Date       time.Time `json:"date"`
	Action     Action    `json:"action"`
	FineAmount int       `json:"fine_amount"`
}

// NewTransaction stamps a fresh id and truncates at to whole seconds.
func NewTransaction(action Action, resourceID, memberID int64, at time.Time, fine int) Transaction {
	return Transaction{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		MemberID:   memberID,
		Date:       at.Truncate(time.Second),
		Action:     action,
		FineAmount: fine,
	}
}

// Summary renders the transaction on one line, with the date in local time.
func (t Transaction) Summary() string {
	return fmt.Sprintf("Action: %s, Resource ID: %d, Member ID: %d, Date: %s, Fine: Rs. %d",
		t.Action, t.ResourceID, t.MemberID, t.Date.Local().Format(summaryDateLayout), t.FineAmount)
}
