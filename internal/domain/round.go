package domain

import "time"

const (
	RoundPending = "PENDING"
	RoundSuccess = "SUCCESS"
	RoundFailed  = "FAILED"
)

// Round is one turn of the rotation. Sequence runs 1..memberCount and rounds
// always close in sequence order. A round is terminal once SUCCESS.
type Round struct {
	ID                uint
	TontineID         uint
	Sequence          int
	BeneficiaryID     uint
	Status            string
	DistributedAmount int64
	DistributedAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
