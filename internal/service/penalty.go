package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/kolecto/tontine-api/internal/domain"
	"github.com/kolecto/tontine-api/internal/repository"
)

type PenaltyRepository interface {
	Create(ctx context.Context, penalty domain.Penalty) (domain.Penalty, error)
	GetByID(ctx context.Context, id uint) (domain.Penalty, error)
	ListByMember(ctx context.Context, tontineID, memberID uint) ([]domain.Penalty, error)
	Pay(ctx context.Context, p repository.PayPenaltyParams, debit func(gross int64) error) (repository.PayPenaltyResult, error)
	SelectForRetry(ctx context.Context, maxRetries int) ([]domain.Penalty, error)
}

type PenaltyService struct {
	repo        PenaltyRepository
	tontineRepo TontineRepository
	wallet      Wallet
	fees        FeePolicy
	notifier    Notifier
}

func NewPenaltyService(repo PenaltyRepository, tontineRepo TontineRepository, wallet Wallet, fees FeePolicy, notifier Notifier) *PenaltyService {
	return &PenaltyService{
		repo:        repo,
		tontineRepo: tontineRepo,
		wallet:      wallet,
		fees:        fees,
		notifier:    notifier,
	}
}

func (s *PenaltyService) notify(ctx context.Context, userID uint, title, body string) {
	if err := s.notifier.Notify(ctx, userID, title, body, "PENALITE"); err != nil {
		zap.L().Warn("notification dispatch failed",
			zap.Uint("userID", userID),
			zap.String("title", title),
			zap.Error(err))
	}
}

// ApplyPenalty issues a penalty against a member. Only the tontine admin may
// sanction; no money moves until the penalty is settled.
func (s *PenaltyService) ApplyPenalty(ctx context.Context, tontineID, memberID, adminUserID uint, amount int64, penaltyType domain.PenaltyType, contributionID *uint) (domain.Penalty, error) {
	if !penaltyType.IsValid() {
		return domain.Penalty{}, ErrInvalidPenaltyType
	}
	if amount <= 0 {
		return domain.Penalty{}, ErrInvalidAmount
	}

	admin, err := s.tontineRepo.GetAdmin(ctx, tontineID)
	if err != nil {
		return domain.Penalty{}, fmt.Errorf("s.tontineRepo.GetAdmin -> %w", err)
	}
	if admin.UserID != adminUserID {
		return domain.Penalty{}, ErrNotAdmin
	}

	member, err := s.tontineRepo.GetMemberByID(ctx, memberID)
	if err != nil {
		return domain.Penalty{}, fmt.Errorf("s.tontineRepo.GetMemberByID -> %w", err)
	}
	if member.TontineID != tontineID {
		return domain.Penalty{}, ErrMemberNotFound
	}

	penalty, err := s.repo.Create(ctx, domain.Penalty{
		TontineID:      tontineID,
		MemberID:       memberID,
		ContributionID: contributionID,
		Amount:         amount,
		Type:           penaltyType,
		Status:         domain.PenaltyUnpaid,
	})
	if err != nil {
		return domain.Penalty{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.notify(ctx, member.UserID,
		"Pénalité appliquée",
		fmt.Sprintf("Une pénalité de %d (%s) vous a été appliquée.", amount, penaltyType))

	return penalty, nil
}

// PayPenalty settles a penalty: the member's wallet is debited for the
// penalty amount plus the platform fee, and escrow grows by the net penalty
// amount, atomically.
func (s *PenaltyService) PayPenalty(ctx context.Context, penaltyID, payerUserID uint) (repository.PayPenaltyResult, error) {
	penalty, err := s.repo.GetByID(ctx, penaltyID)
	if err != nil {
		return repository.PayPenaltyResult{}, fmt.Errorf("s.repo.GetByID -> %w", err)
	}

	tontine, err := s.tontineRepo.GetTontineByID(ctx, penalty.TontineID)
	if err != nil {
		return repository.PayPenaltyResult{}, fmt.Errorf("s.tontineRepo.GetTontineByID -> %w", err)
	}
	if !tontine.IsActive() {
		return repository.PayPenaltyResult{}, ErrGroupBlocked
	}

	member, err := s.tontineRepo.GetMemberByID(ctx, penalty.MemberID)
	if err != nil {
		return repository.PayPenaltyResult{}, fmt.Errorf("s.tontineRepo.GetMemberByID -> %w", err)
	}
	if member.UserID != payerUserID {
		return repository.PayPenaltyResult{}, ErrMemberMismatch
	}

	feeRate, err := s.fees.GetFee(FeePenalty)
	if err != nil {
		return repository.PayPenaltyResult{}, fmt.Errorf("s.fees.GetFee -> %w", err)
	}

	reference := uuid.NewString()
	result, err := s.repo.Pay(ctx, repository.PayPenaltyParams{
		PenaltyID: penaltyID,
		FeeRate:   feeRate,
		Reference: reference,
	}, func(gross int64) error {
		memo := fmt.Sprintf("pénalité tontine %d [%s]", penalty.TontineID, reference)
		return s.wallet.Debit(ctx, walletRef(member.UserID), gross, memo)
	})
	if err != nil {
		return repository.PayPenaltyResult{}, fmt.Errorf("s.repo.Pay -> %w", err)
	}

	zap.L().Info("penalty settled",
		zap.Uint("penaltyID", penaltyID),
		zap.Int64("net", result.Net),
		zap.Int64("fee", result.Fee))

	s.notify(ctx, member.UserID,
		"Pénalité réglée",
		fmt.Sprintf("Votre pénalité de %d a été réglée.", result.Net))
	if admin, err := s.tontineRepo.GetAdmin(ctx, penalty.TontineID); err == nil && admin.UserID != member.UserID {
		s.notify(ctx, admin.UserID,
			"Pénalité encaissée",
			fmt.Sprintf("Une pénalité de %d a été encaissée.", result.Net))
	}

	return result, nil
}

func (s *PenaltyService) ListPenalties(ctx context.Context, tontineID, memberID uint) ([]domain.Penalty, error) {
	penalties, err := s.repo.ListByMember(ctx, tontineID, memberID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByMember -> %w", err)
	}

	return penalties, nil
}

// CheckUnpaidPenalties advances the reminder retry counter of every unpaid
// penalty that has retries left and returns them for notification dispatch.
// A penalty that exhausted its retries stays UNPAID but is left alone.
func (s *PenaltyService) CheckUnpaidPenalties(ctx context.Context) ([]domain.Penalty, error) {
	penalties, err := s.repo.SelectForRetry(ctx, domain.MaxPenaltyRetries)
	if err != nil {
		return nil, fmt.Errorf("s.repo.SelectForRetry -> %w", err)
	}

	return penalties, nil
}

// MemberUserID resolves the owning user of a member, for notification
// dispatch by the scheduler.
func (s *PenaltyService) MemberUserID(ctx context.Context, memberID uint) (uint, error) {
	member, err := s.tontineRepo.GetMemberByID(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("s.tontineRepo.GetMemberByID -> %w", err)
	}

	return member.UserID, nil
}
