package domain

import "time"

type RotationPolicy string

const (
	RotationFixed  RotationPolicy = "FIXED"
	RotationRandom RotationPolicy = "RANDOM"
)

func (p RotationPolicy) IsValid() bool {
	return p == RotationFixed || p == RotationRandom
}

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

func (f Frequency) IsValid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

// NextReminderDate computes when the next contribution reminder is due after
// lastReminded. A nil lastReminded means no reminder was ever sent, so the
// tontine is due immediately.
func (f Frequency) NextReminderDate(lastReminded *time.Time, now time.Time) time.Time {
	if lastReminded == nil {
		return now
	}
	switch f {
	case FrequencyDaily:
		return lastReminded.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return lastReminded.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return lastReminded.AddDate(0, 1, 0)
	default:
		return lastReminded.AddDate(0, 0, 1)
	}
}

type FundingMode string

const (
	FundingAutomatic FundingMode = "AUTOMATIC"
	FundingManual    FundingMode = "MANUAL"
)

const (
	TontineActive    = "ACTIVE"
	TontineSuspended = "SUSPENDED"
	TontineClosed    = "CLOSED"
)

// Tontine is a rotating savings group: every member contributes a fixed
// amount each period, and each round one member receives the pooled total.
type Tontine struct {
	ID                 uint
	Name               string
	RotationPolicy     RotationPolicy
	Frequency          Frequency
	ContributionAmount int64
	FundingMode        FundingMode
	MemberCount        int
	Status             string
	LastReminderAt     *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (t *Tontine) IsActive() bool {
	return t.Status == TontineActive
}
