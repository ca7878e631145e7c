package domain

import "time"

const (
	ContributionPending   = "PENDING"
	ContributionValidated = "VALIDATED"
	ContributionRejected  = "REJECTED"
)

// Contribution is a member's owed payment toward one round. One row is
// pre-created per (round, member) pair when the rotation is finalized, so
// every member owes every round.
type Contribution struct {
	ID        uint
	RoundID   uint
	MemberID  uint
	Amount    int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Contribution) IsPaid() bool {
	return c.Status == ContributionValidated
}
