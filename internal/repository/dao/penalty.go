package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PenaltyDAO struct {
	db *gorm.DB
}

func NewPenaltyDAO(db *gorm.DB) *PenaltyDAO {
	return &PenaltyDAO{
		db: db,
	}
}

func (d *PenaltyDAO) Create(ctx context.Context, penalty Penalty) (Penalty, error) {
	err := d.db.WithContext(ctx).Create(&penalty).Error
	if err != nil {
		return Penalty{}, err
	}

	return penalty, nil
}

func (d *PenaltyDAO) GetByID(ctx context.Context, id uint) (Penalty, error) {
	var penalty Penalty
	err := d.db.WithContext(ctx).First(&penalty, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Penalty{}, ErrPenaltyNotFound
		}
		return Penalty{}, err
	}

	return penalty, nil
}

func (d *PenaltyDAO) ListByMember(ctx context.Context, tontineID, memberID uint) ([]Penalty, error) {
	var penalties []Penalty
	err := d.db.WithContext(ctx).
		Where("tontine_id = ? AND member_id = ?", tontineID, memberID).
		Order("id").
		Find(&penalties).Error
	if err != nil {
		return nil, err
	}

	return penalties, nil
}

type PayPenaltyParams struct {
	PenaltyID uint
	FeeRate   float64
	Reference string
}

type PayPenaltyResult struct {
	Penalty Penalty
	Gross   int64
	Fee     int64
	Net     int64
}

// Pay settles a penalty: guarded UNPAID→PAID transition, escrow credited with
// the net amount, ledger row, then the wallet debit as the final step.
func (d *PenaltyDAO) Pay(ctx context.Context, p PayPenaltyParams, debit func(gross int64) error) (PayPenaltyResult, error) {
	var result PayPenaltyResult

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var penalty Penalty
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&penalty, p.PenaltyID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPenaltyNotFound
			}
			return err
		}

		update := tx.Model(&Penalty{}).
			Where("id = ? AND status = ?", penalty.ID, "UNPAID").
			Update("status", "PAID")
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrAlreadyPaid
		}

		now := time.Now()
		escrow := tx.Model(&EscrowAccount{}).
			Where("tontine_id = ? AND status = ?", penalty.TontineID, "ACTIVE").
			Updates(map[string]interface{}{
				"balance":          gorm.Expr("balance + ?", penalty.Amount),
				"last_movement_at": now,
			})
		if escrow.Error != nil {
			return escrow.Error
		}
		if escrow.RowsAffected == 0 {
			return ErrEscrowBlocked
		}

		fee := feeOn(penalty.Amount, p.FeeRate)
		ledger := LedgerTransaction{
			TontineID:   penalty.TontineID,
			MemberID:    penalty.MemberID,
			Reference:   p.Reference,
			Kind:        "PENALTY",
			GrossAmount: penalty.Amount + fee,
			FeeAmount:   fee,
			NetAmount:   penalty.Amount,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}

		penalty.Status = "PAID"
		result = PayPenaltyResult{
			Penalty: penalty,
			Gross:   ledger.GrossAmount,
			Fee:     fee,
			Net:     penalty.Amount,
		}

		return debit(ledger.GrossAmount)
	})
	if err != nil {
		return PayPenaltyResult{}, err
	}

	return result, nil
}

// SelectForRetry picks every unpaid penalty that still has reminder retries
// left, bumps its retry counter and check timestamp, and returns the updated
// rows for notification dispatch.
func (d *PenaltyDAO) SelectForRetry(ctx context.Context, maxRetries int) ([]Penalty, error) {
	var penalties []Penalty

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND retry_count < ?", "UNPAID", maxRetries).
			Order("id").
			Find(&penalties).Error
		if err != nil {
			return err
		}
		if len(penalties) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(penalties))
		for i := range penalties {
			ids = append(ids, penalties[i].ID)
		}

		now := time.Now()
		err = tx.Model(&Penalty{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"retry_count":     gorm.Expr("retry_count + 1"),
				"last_checked_at": now,
			}).Error
		if err != nil {
			return err
		}

		for i := range penalties {
			penalties[i].RetryCount++
			penalties[i].LastCheckedAt = &now
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return penalties, nil
}
