package domain

import "time"

const (
	EscrowActive  = "ACTIVE"
	EscrowBlocked = "BLOCKED"
)

// EscrowAccount holds a tontine's pooled, undistributed balance. The balance
// only grows through validated contributions, paid penalties and
// administrative deposits, only shrinks through distributions and
// administrative withdrawals, and never goes negative.
type EscrowAccount struct {
	ID             uint
	TontineID      uint
	Balance        int64
	Status         string
	LastMovementAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
