package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type TontineDAO struct {
	db *gorm.DB
}

func NewTontineDAO(db *gorm.DB) *TontineDAO {
	return &TontineDAO{
		db: db,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// CreateTontine persists the tontine together with its creator as the single
// ADMIN member and a fresh escrow account, in one transaction.
func (d *TontineDAO) CreateTontine(ctx context.Context, tontine Tontine, creatorUserID uint) (Tontine, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tontine).Error; err != nil {
			return err
		}

		admin := Member{
			TontineID: tontine.ID,
			UserID:    creatorUserID,
			Role:      "ADMIN",
			Status:    "ACTIVE",
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		escrow := EscrowAccount{
			TontineID: tontine.ID,
			Balance:   0,
			Status:    "ACTIVE",
		}

		return tx.Create(&escrow).Error
	})
	if err != nil {
		return Tontine{}, err
	}

	return tontine, nil
}

func (d *TontineDAO) GetByID(ctx context.Context, id uint) (Tontine, error) {
	var tontine Tontine
	err := d.db.WithContext(ctx).First(&tontine, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Tontine{}, ErrTontineNotFound
		}
		return Tontine{}, err
	}

	return tontine, nil
}

func (d *TontineDAO) ListActive(ctx context.Context) ([]Tontine, error) {
	var tontines []Tontine
	err := d.db.WithContext(ctx).Where("status = ?", "ACTIVE").Find(&tontines).Error
	if err != nil {
		return nil, err
	}

	return tontines, nil
}

func (d *TontineDAO) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := d.db.WithContext(ctx).Model(&Tontine{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTontineNotFound
	}

	return nil
}

func (d *TontineDAO) StampReminder(ctx context.Context, id uint, at time.Time) error {
	return d.db.WithContext(ctx).
		Model(&Tontine{}).
		Where("id = ?", id).
		Update("last_reminder_at", at).Error
}

// AddMember creates a PENDING membership. The member cap and the one-row-per
// (tontine, user) constraint are both enforced inside the transaction.
func (d *TontineDAO) AddMember(ctx context.Context, member Member) (Member, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tontine Tontine
		if err := tx.First(&tontine, member.TontineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTontineNotFound
			}
			return err
		}

		var count int64
		err := tx.Model(&Member{}).
			Where("tontine_id = ? AND status IN ?", member.TontineID, []string{"PENDING", "ACTIVE"}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count >= int64(tontine.MemberCount) {
			return ErrTontineFull
		}

		return tx.Create(&member).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Member{}, ErrAlreadyMember
		}
		return Member{}, err
	}

	return member, nil
}

func (d *TontineDAO) GetMemberByID(ctx context.Context, id uint) (Member, error) {
	var member Member
	err := d.db.WithContext(ctx).First(&member, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Member{}, ErrMemberNotFound
		}
		return Member{}, err
	}

	return member, nil
}

func (d *TontineDAO) GetAdmin(ctx context.Context, tontineID uint) (Member, error) {
	var member Member
	err := d.db.WithContext(ctx).
		Where("tontine_id = ? AND role = ?", tontineID, "ADMIN").
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Member{}, ErrMemberNotFound
		}
		return Member{}, err
	}

	return member, nil
}

func (d *TontineDAO) ListMembers(ctx context.Context, tontineID uint) ([]Member, error) {
	var members []Member
	err := d.db.WithContext(ctx).
		Where("tontine_id = ?", tontineID).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (d *TontineDAO) ListMembersByStatus(ctx context.Context, tontineID uint, status string) ([]Member, error) {
	var members []Member
	err := d.db.WithContext(ctx).
		Where("tontine_id = ? AND status = ?", tontineID, status).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	return members, nil
}

// UpdateMemberStatus performs a guarded state transition. The first writer
// wins; a second attempt sees zero affected rows and gets ErrMemberNotPending.
func (d *TontineDAO) UpdateMemberStatus(ctx context.Context, memberID uint, from, to string) error {
	result := d.db.WithContext(ctx).
		Model(&Member{}).
		Where("id = ? AND status = ?", memberID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var member Member
		if err := d.db.WithContext(ctx).First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		return ErrMemberNotPending
	}

	return nil
}
