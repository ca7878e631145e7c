package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrequency_NextReminderDate(t *testing.T) {
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("never reminded is due now", func(t *testing.T) {
		next := FrequencyMonthly.NextReminderDate(nil, now)
		assert.Equal(t, now, next)
	})

	t.Run("daily", func(t *testing.T) {
		next := FrequencyDaily.NextReminderDate(&last, now)
		assert.Equal(t, last.AddDate(0, 0, 1), next)
	})

	t.Run("weekly", func(t *testing.T) {
		next := FrequencyWeekly.NextReminderDate(&last, now)
		assert.Equal(t, last.AddDate(0, 0, 7), next)
	})

	t.Run("monthly", func(t *testing.T) {
		next := FrequencyMonthly.NextReminderDate(&last, now)
		assert.Equal(t, last.AddDate(0, 1, 0), next)
	})
}

func TestValidators(t *testing.T) {
	assert.True(t, RotationFixed.IsValid())
	assert.True(t, RotationRandom.IsValid())
	assert.False(t, RotationPolicy("ROULETTE").IsValid())

	assert.True(t, FrequencyDaily.IsValid())
	assert.False(t, Frequency("YEARLY").IsValid())

	assert.True(t, PenaltyRetard.IsValid())
	assert.True(t, PenaltyAbsence.IsValid())
	assert.True(t, PenaltyAutre.IsValid())
	assert.False(t, PenaltyType("CHAPEAU").IsValid())
}
