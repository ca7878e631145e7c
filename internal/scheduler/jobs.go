package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kolecto/tontine-api/internal/domain"
)

type PenaltyChecker interface {
	CheckUnpaidPenalties(ctx context.Context) ([]domain.Penalty, error)
	MemberUserID(ctx context.Context, memberID uint) (uint, error)
}

type ReminderSource interface {
	TontinesDueForReminder(ctx context.Context, now time.Time) ([]domain.Tontine, error)
	ActiveMembers(ctx context.Context, tontineID uint) ([]domain.Member, error)
	MarkReminded(ctx context.Context, tontineID uint, at time.Time) error
}

type Notifier interface {
	Notify(ctx context.Context, userID uint, title, body, category string) error
}

// Jobs holds the periodic sweeps. Every sweep isolates per-item failures: one
// broken tontine or penalty is logged and skipped, the rest of the sweep
// continues.
type Jobs struct {
	penalties PenaltyChecker
	reminders ReminderSource
	notifier  Notifier
	logger    *zap.Logger
}

func NewJobs(penalties PenaltyChecker, reminders ReminderSource, notifier Notifier, logger *zap.Logger) *Jobs {
	return &Jobs{
		penalties: penalties,
		reminders: reminders,
		notifier:  notifier,
		logger:    logger,
	}
}

// SweepUnpaidPenalties re-notifies members about unpaid penalties that still
// have reminder retries left. Financial balances are never touched here; only
// the retry bookkeeping moves.
func (j *Jobs) SweepUnpaidPenalties() {
	ctx := context.Background()

	penalties, err := j.penalties.CheckUnpaidPenalties(ctx)
	if err != nil {
		j.logger.Error("penalty sweep failed", zap.Error(err))
		return
	}
	if len(penalties) == 0 {
		return
	}

	notified := 0
	for _, p := range penalties {
		userID, err := j.penalties.MemberUserID(ctx, p.MemberID)
		if err != nil {
			j.logger.Warn("could not resolve penalty member",
				zap.Uint("penaltyID", p.ID),
				zap.Error(err))
			continue
		}

		err = j.notifier.Notify(ctx, userID,
			"Pénalité impayée",
			fmt.Sprintf("Vous avez une pénalité impayée de %d (%s).", p.Amount, p.Type),
			"PENALITE")
		if err != nil {
			j.logger.Warn("penalty reminder dispatch failed",
				zap.Uint("penaltyID", p.ID),
				zap.Error(err))
			continue
		}
		notified++
	}

	j.logger.Info("penalty sweep done",
		zap.Int("checked", len(penalties)),
		zap.Int("notified", notified))
}

// SendContributionReminders notifies every active member of every tontine
// whose reminder period has elapsed, then stamps the tontine as reminded.
func (j *Jobs) SendContributionReminders() {
	ctx := context.Background()
	now := time.Now()

	due, err := j.reminders.TontinesDueForReminder(ctx, now)
	if err != nil {
		j.logger.Error("reminder sweep failed", zap.Error(err))
		return
	}

	for _, tontine := range due {
		if err := j.remindTontine(ctx, tontine, now); err != nil {
			j.logger.Warn("reminder failed for tontine",
				zap.Uint("tontineID", tontine.ID),
				zap.Error(err))
		}
	}
}

func (j *Jobs) remindTontine(ctx context.Context, tontine domain.Tontine, now time.Time) error {
	members, err := j.reminders.ActiveMembers(ctx, tontine.ID)
	if err != nil {
		return fmt.Errorf("j.reminders.ActiveMembers -> %w", err)
	}

	for _, m := range members {
		err = j.notifier.Notify(ctx, m.UserID,
			"Rappel de cotisation",
			fmt.Sprintf("N'oubliez pas votre cotisation de %d pour la tontine %q.", tontine.ContributionAmount, tontine.Name),
			"RAPPEL")
		if err != nil {
			j.logger.Warn("reminder dispatch failed",
				zap.Uint("tontineID", tontine.ID),
				zap.Uint("userID", m.UserID),
				zap.Error(err))
		}
	}

	return j.reminders.MarkReminded(ctx, tontine.ID, now)
}
