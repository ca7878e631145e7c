package dao

import "errors"

var (
	ErrTontineNotFound      = errors.New("tontine not found")
	ErrTontineNotActive     = errors.New("tontine is not active")
	ErrMemberNotFound       = errors.New("member not found")
	ErrAlreadyMember        = errors.New("user is already a member of this tontine")
	ErrTontineFull          = errors.New("tontine has reached its member count")
	ErrMemberNotPending     = errors.New("member has no pending transition")
	ErrNotAdmin             = errors.New("caller is not the tontine admin")
	ErrInvalidRotationInput = errors.New("rotation order is not a permutation of active members")
	ErrUnsupportedPolicy    = errors.New("unsupported rotation policy")
	ErrUnsupportedFrequency = errors.New("unsupported contribution frequency")
	ErrRotationExists       = errors.New("rotation has already been generated")
	ErrRotationFinalized    = errors.New("rotation is finalized")
	ErrNoPendingRound       = errors.New("no pending round")
	ErrNothingContributed   = errors.New("no validated contribution for this round")
	ErrInsufficientEscrow   = errors.New("escrow balance is insufficient")
	ErrEscrowBlocked        = errors.New("escrow account is blocked")
	ErrContributionNotFound = errors.New("contribution not found")
	ErrContributionClosed   = errors.New("contribution belongs to a closed round")
	ErrMemberMismatch       = errors.New("contribution does not belong to this member")
	ErrAlreadyPaid          = errors.New("already paid")
	ErrPenaltyNotFound      = errors.New("penalty not found")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPenaltyType   = errors.New("invalid penalty type")
	ErrGroupBlocked         = errors.New("tontine is suspended or closed")
)
