package dao

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func feeOn(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}

func (d *TontineDAO) RoundsExist(ctx context.Context, tontineID uint) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&Round{}).
		Where("tontine_id = ?", tontineID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// CreateRotation materializes one round per beneficiary in order, plus one
// PENDING contribution per (round, member) pair: every member owes every
// round. The (tontine, beneficiary) unique index makes re-invocation fail
// with ErrRotationExists instead of duplicating rounds.
func (d *TontineDAO) CreateRotation(ctx context.Context, tontineID uint, beneficiaryIDs, memberIDs []uint, amount int64) ([]Round, error) {
	rounds := make([]Round, 0, len(beneficiaryIDs))

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Round{}).Where("tontine_id = ?", tontineID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrRotationExists
		}

		for i, beneficiaryID := range beneficiaryIDs {
			round := Round{
				TontineID:     tontineID,
				Sequence:      i + 1,
				BeneficiaryID: beneficiaryID,
				Status:        "PENDING",
			}
			if err := tx.Create(&round).Error; err != nil {
				return err
			}

			contributions := make([]Contribution, 0, len(memberIDs))
			for _, memberID := range memberIDs {
				contributions = append(contributions, Contribution{
					RoundID:  round.ID,
					MemberID: memberID,
					Amount:   amount,
					Status:   "PENDING",
				})
			}
			if err := tx.Create(&contributions).Error; err != nil {
				return err
			}

			rounds = append(rounds, round)
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRotationExists
		}
		return nil, err
	}

	return rounds, nil
}

func (d *TontineDAO) FirstPendingRound(ctx context.Context, tontineID uint) (Round, error) {
	var round Round
	err := d.db.WithContext(ctx).
		Where("tontine_id = ? AND status = ?", tontineID, "PENDING").
		Order("sequence").
		First(&round).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Round{}, ErrNoPendingRound
		}
		return Round{}, err
	}

	return round, nil
}

func (d *TontineDAO) GetRoundByID(ctx context.Context, id uint) (Round, error) {
	var round Round
	err := d.db.WithContext(ctx).First(&round, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Round{}, ErrNoPendingRound
		}
		return Round{}, err
	}

	return round, nil
}

func (d *TontineDAO) ListRounds(ctx context.Context, tontineID uint) ([]Round, error) {
	var rounds []Round
	err := d.db.WithContext(ctx).
		Where("tontine_id = ?", tontineID).
		Order("sequence").
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}

	return rounds, nil
}

func (d *TontineDAO) GetContribution(ctx context.Context, id uint) (Contribution, error) {
	var contribution Contribution
	err := d.db.WithContext(ctx).First(&contribution, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Contribution{}, ErrContributionNotFound
		}
		return Contribution{}, err
	}

	return contribution, nil
}

func (d *TontineDAO) ListContributions(ctx context.Context, roundID uint) ([]Contribution, error) {
	var contributions []Contribution
	err := d.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("member_id").
		Find(&contributions).Error
	if err != nil {
		return nil, err
	}

	return contributions, nil
}

type ValidateContributionParams struct {
	TontineID      uint
	ContributionID uint
	FeeRate        float64
	Reference      string
}

type ValidateContributionResult struct {
	Contribution Contribution
	Gross        int64
	Fee          int64
	Net          int64
}

// ValidateContribution marks the contribution paid and credits escrow with
// the net amount, all in one transaction. The wallet debit closure runs as
// the last step before commit so a debit failure rolls everything back.
func (d *TontineDAO) ValidateContribution(ctx context.Context, p ValidateContributionParams, debit func(gross int64) error) (ValidateContributionResult, error) {
	var result ValidateContributionResult

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contribution Contribution
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&contribution, p.ContributionID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContributionNotFound
			}
			return err
		}

		update := tx.Model(&Contribution{}).
			Where("id = ? AND status = ?", contribution.ID, "PENDING").
			Update("status", "VALIDATED")
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			if contribution.Status == "REJECTED" {
				return ErrContributionClosed
			}
			return ErrAlreadyPaid
		}

		now := time.Now()
		escrow := tx.Model(&EscrowAccount{}).
			Where("tontine_id = ? AND status = ?", p.TontineID, "ACTIVE").
			Updates(map[string]interface{}{
				"balance":          gorm.Expr("balance + ?", contribution.Amount),
				"last_movement_at": now,
			})
		if escrow.Error != nil {
			return escrow.Error
		}
		if escrow.RowsAffected == 0 {
			return ErrEscrowBlocked
		}

		fee := feeOn(contribution.Amount, p.FeeRate)
		ledger := LedgerTransaction{
			TontineID:   p.TontineID,
			MemberID:    contribution.MemberID,
			Reference:   p.Reference,
			Kind:        "CONTRIBUTION",
			GrossAmount: contribution.Amount + fee,
			FeeAmount:   fee,
			NetAmount:   contribution.Amount,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}

		contribution.Status = "VALIDATED"
		result = ValidateContributionResult{
			Contribution: contribution,
			Gross:        ledger.GrossAmount,
			Fee:          fee,
			Net:          contribution.Amount,
		}

		return debit(ledger.GrossAmount)
	})
	if err != nil {
		return ValidateContributionResult{}, err
	}

	return result, nil
}

type DistributeParams struct {
	TontineID uint
	FeeRate   float64
	Reference string
}

type DistributeResult struct {
	Round       Round
	Beneficiary Member
	Gross       int64
	Fee         int64
	Net         int64
	Defaulters  []Member
}

// DistributeRound closes the earliest pending round: it pays the beneficiary
// the collected pool minus the distribution fee, drains escrow by the gross
// amount, and converts the round's unpaid contributions into RETARD
// penalties. The wallet credit closure runs last, inside the transaction.
func (d *TontineDAO) DistributeRound(ctx context.Context, p DistributeParams, credit func(beneficiary Member, net int64) error) (DistributeResult, error) {
	var result DistributeResult

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tontine Tontine
		if err := tx.First(&tontine, p.TontineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTontineNotFound
			}
			return err
		}

		var round Round
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tontine_id = ? AND status = ?", p.TontineID, "PENDING").
			Order("sequence").
			First(&round).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoPendingRound
			}
			return err
		}

		var validated int64
		err = tx.Model(&Contribution{}).
			Where("round_id = ? AND status = ?", round.ID, "VALIDATED").
			Count(&validated).Error
		if err != nil {
			return err
		}
		if validated == 0 {
			return ErrNothingContributed
		}

		// The pool actually collected for this round, not the
		// theoretical full amount.
		gross := validated * tontine.ContributionAmount
		fee := feeOn(gross, p.FeeRate)
		net := gross - fee

		now := time.Now()
		escrow := tx.Model(&EscrowAccount{}).
			Where("tontine_id = ? AND status = ? AND balance > 0 AND balance >= ?", p.TontineID, "ACTIVE", gross).
			Updates(map[string]interface{}{
				"balance":          gorm.Expr("balance - ?", gross),
				"last_movement_at": now,
			})
		if escrow.Error != nil {
			return escrow.Error
		}
		if escrow.RowsAffected == 0 {
			return ErrInsufficientEscrow
		}

		update := tx.Model(&Round{}).
			Where("id = ? AND status = ?", round.ID, "PENDING").
			Updates(map[string]interface{}{
				"status":             "SUCCESS",
				"distributed_amount": gross,
				"distributed_at":     now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrNoPendingRound
		}

		var beneficiary Member
		if err := tx.First(&beneficiary, round.BeneficiaryID).Error; err != nil {
			return err
		}

		ledger := LedgerTransaction{
			TontineID:   p.TontineID,
			MemberID:    beneficiary.ID,
			Reference:   p.Reference,
			Kind:        "DISTRIBUTION",
			GrossAmount: gross,
			FeeAmount:   fee,
			NetAmount:   net,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}

		// Members who never paid this round owe a RETARD penalty; their
		// contribution rows are foreclosed so a late payment cannot land
		// in an already-closed round.
		var unpaid []Contribution
		err = tx.Where("round_id = ? AND status = ?", round.ID, "PENDING").Find(&unpaid).Error
		if err != nil {
			return err
		}
		defaulters := make([]Member, 0, len(unpaid))
		for i := range unpaid {
			contributionID := unpaid[i].ID
			penalty := Penalty{
				TontineID:      p.TontineID,
				MemberID:       unpaid[i].MemberID,
				ContributionID: &contributionID,
				Amount:         unpaid[i].Amount,
				Type:           "RETARD",
				Status:         "UNPAID",
			}
			if err := tx.Create(&penalty).Error; err != nil {
				return err
			}

			var defaulter Member
			if err := tx.First(&defaulter, unpaid[i].MemberID).Error; err != nil {
				return err
			}
			defaulters = append(defaulters, defaulter)
		}
		if len(unpaid) > 0 {
			err = tx.Model(&Contribution{}).
				Where("round_id = ? AND status = ?", round.ID, "PENDING").
				Update("status", "REJECTED").Error
			if err != nil {
				return err
			}
		}

		round.Status = "SUCCESS"
		round.DistributedAmount = gross
		round.DistributedAt = &now
		result = DistributeResult{
			Round:       round,
			Beneficiary: beneficiary,
			Gross:       gross,
			Fee:         fee,
			Net:         net,
			Defaulters:  defaulters,
		}

		return credit(beneficiary, net)
	})
	if err != nil {
		return DistributeResult{}, err
	}

	return result, nil
}
