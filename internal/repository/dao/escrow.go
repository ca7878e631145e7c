package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

func (d *TontineDAO) GetEscrow(ctx context.Context, tontineID uint) (EscrowAccount, error) {
	var escrow EscrowAccount
	err := d.db.WithContext(ctx).Where("tontine_id = ?", tontineID).First(&escrow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EscrowAccount{}, ErrTontineNotFound
		}
		return EscrowAccount{}, err
	}

	return escrow, nil
}

type EscrowMovementParams struct {
	TontineID uint
	MemberID  uint
	Amount    int64
	Reference string
}

// Deposit credits escrow administratively. No fee applies.
func (d *TontineDAO) Deposit(ctx context.Context, p EscrowMovementParams) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&EscrowAccount{}).
			Where("tontine_id = ? AND status = ?", p.TontineID, "ACTIVE").
			Updates(map[string]interface{}{
				"balance":          gorm.Expr("balance + ?", p.Amount),
				"last_movement_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEscrowBlocked
		}

		ledger := LedgerTransaction{
			TontineID:   p.TontineID,
			MemberID:    p.MemberID,
			Reference:   p.Reference,
			Kind:        "DEPOSIT",
			GrossAmount: p.Amount,
			FeeAmount:   0,
			NetAmount:   p.Amount,
		}

		return tx.Create(&ledger).Error
	})
}

// Withdraw debits escrow administratively. The balance guard keeps the
// account from ever going negative.
func (d *TontineDAO) Withdraw(ctx context.Context, p EscrowMovementParams) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var escrow EscrowAccount
		err := tx.Where("tontine_id = ?", p.TontineID).First(&escrow).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTontineNotFound
			}
			return err
		}
		if escrow.Status != "ACTIVE" {
			return ErrEscrowBlocked
		}

		now := time.Now()
		result := tx.Model(&EscrowAccount{}).
			Where("tontine_id = ? AND balance >= ?", p.TontineID, p.Amount).
			Updates(map[string]interface{}{
				"balance":          gorm.Expr("balance - ?", p.Amount),
				"last_movement_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientEscrow
		}

		ledger := LedgerTransaction{
			TontineID:   p.TontineID,
			MemberID:    p.MemberID,
			Reference:   p.Reference,
			Kind:        "WITHDRAWAL",
			GrossAmount: p.Amount,
			FeeAmount:   0,
			NetAmount:   p.Amount,
		}

		return tx.Create(&ledger).Error
	})
}

func (d *TontineDAO) ListLedger(ctx context.Context, tontineID uint) ([]LedgerTransaction, error) {
	var transactions []LedgerTransaction
	err := d.db.WithContext(ctx).
		Where("tontine_id = ?", tontineID).
		Order("id").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
