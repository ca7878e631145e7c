package domain

import "time"

type PenaltyType string

const (
	PenaltyRetard  PenaltyType = "RETARD"
	PenaltyAbsence PenaltyType = "ABSENCE"
	PenaltyAutre   PenaltyType = "AUTRE"
)

func (t PenaltyType) IsValid() bool {
	return t == PenaltyRetard || t == PenaltyAbsence || t == PenaltyAutre
}

const (
	PenaltyUnpaid = "UNPAID"
	PenaltyPaid   = "PAID"
)

// MaxPenaltyRetries caps how many times the sweep re-notifies an unpaid
// penalty. Past that the penalty stays UNPAID but is no longer reminded.
const MaxPenaltyRetries = 2

// Penalty is a financial obligation issued for late or absent contributions.
// Penalties are an audit trail: they are never deleted, only settled.
type Penalty struct {
	ID             uint
	TontineID      uint
	MemberID       uint
	ContributionID *uint
	Amount         int64
	Type           PenaltyType
	Status         string
	RetryCount     int
	LastCheckedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
