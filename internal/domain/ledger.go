package domain

import (
	"math"
	"time"
)

type LedgerKind string

const (
	LedgerContribution LedgerKind = "CONTRIBUTION"
	LedgerDistribution LedgerKind = "DISTRIBUTION"
	LedgerPenalty      LedgerKind = "PENALTY"
	LedgerDeposit      LedgerKind = "DEPOSIT"
	LedgerWithdrawal   LedgerKind = "WITHDRAWAL"
)

// LedgerTransaction records every escrow movement with its fee breakdown.
// One row is written inside the same database transaction as the movement.
type LedgerTransaction struct {
	ID          uint
	TontineID   uint
	MemberID    uint
	Reference   string
	Kind        LedgerKind
	GrossAmount int64
	FeeAmount   int64
	NetAmount   int64
	CreatedAt   time.Time
}

// FeeOn returns the platform fee retained on amount at the given percentage
// rate, rounded half away from zero.
func FeeOn(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}
