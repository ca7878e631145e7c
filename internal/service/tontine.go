package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/kolecto/tontine-api/internal/domain"
	"github.com/kolecto/tontine-api/internal/repository"
)

var (
	ErrTontineNotFound      = repository.ErrTontineNotFound
	ErrTontineNotActive     = repository.ErrTontineNotActive
	ErrMemberNotFound       = repository.ErrMemberNotFound
	ErrAlreadyMember        = repository.ErrAlreadyMember
	ErrTontineFull          = repository.ErrTontineFull
	ErrMemberNotPending     = repository.ErrMemberNotPending
	ErrNotAdmin             = repository.ErrNotAdmin
	ErrInvalidRotationInput = repository.ErrInvalidRotationInput
	ErrUnsupportedPolicy    = repository.ErrUnsupportedPolicy
	ErrUnsupportedFrequency = repository.ErrUnsupportedFrequency
	ErrRotationExists       = repository.ErrRotationExists
	ErrRotationFinalized    = repository.ErrRotationFinalized
	ErrNoPendingRound       = repository.ErrNoPendingRound
	ErrNothingContributed   = repository.ErrNothingContributed
	ErrInsufficientEscrow   = repository.ErrInsufficientEscrow
	ErrEscrowBlocked        = repository.ErrEscrowBlocked
	ErrContributionNotFound = repository.ErrContributionNotFound
	ErrContributionClosed   = repository.ErrContributionClosed
	ErrMemberMismatch       = repository.ErrMemberMismatch
	ErrAlreadyPaid          = repository.ErrAlreadyPaid
	ErrPenaltyNotFound      = repository.ErrPenaltyNotFound
	ErrInvalidPenaltyType   = repository.ErrInvalidPenaltyType
	ErrGroupBlocked         = repository.ErrGroupBlocked
	ErrInvalidAmount        = repository.ErrInvalidAmount
)

// Fee policy keys, looked up by name.
const (
	FeeContribution = "FRAIS_COTISATION"
	FeeDistribution = "FRAIS_DISTRIBUTION"
	FeePenalty      = "FRAIS_PENALITE"
)

// Wallet is the external wallet ledger: atomic debit/credit on a member's
// monetary account. Calls happen as the last step inside the enclosing
// database transaction so a wallet failure aborts the whole operation.
type Wallet interface {
	Debit(ctx context.Context, accountRef string, amount int64, memo string) error
	Credit(ctx context.Context, accountRef string, amount int64, memo string) error
}

// FeePolicy resolves a named percentage fee.
type FeePolicy interface {
	GetFee(name string) (float64, error)
}

// Notifier delivers user-facing messages. Fire and forget: a notification
// failure never rolls back a committed financial transaction.
type Notifier interface {
	Notify(ctx context.Context, userID uint, title, body, category string) error
}

type TontineRepository interface {
	CreateTontine(ctx context.Context, tontine domain.Tontine, creatorUserID uint) (domain.Tontine, error)
	GetTontineByID(ctx context.Context, id uint) (domain.Tontine, error)
	ListActiveTontines(ctx context.Context) ([]domain.Tontine, error)
	UpdateTontineStatus(ctx context.Context, id uint, status string) error
	StampReminder(ctx context.Context, id uint, at time.Time) error
	AddMember(ctx context.Context, member domain.Member) (domain.Member, error)
	GetMemberByID(ctx context.Context, id uint) (domain.Member, error)
	GetAdmin(ctx context.Context, tontineID uint) (domain.Member, error)
	ListMembers(ctx context.Context, tontineID uint) ([]domain.Member, error)
	ListMembersByStatus(ctx context.Context, tontineID uint, status string) ([]domain.Member, error)
	UpdateMemberStatus(ctx context.Context, memberID uint, from, to string) error
	RoundsExist(ctx context.Context, tontineID uint) (bool, error)
	CreateRotation(ctx context.Context, tontineID uint, beneficiaryIDs, memberIDs []uint, amount int64) ([]domain.Round, error)
	FirstPendingRound(ctx context.Context, tontineID uint) (domain.Round, error)
	GetRoundByID(ctx context.Context, id uint) (domain.Round, error)
	ListRounds(ctx context.Context, tontineID uint) ([]domain.Round, error)
	GetContribution(ctx context.Context, id uint) (domain.Contribution, error)
	ListContributions(ctx context.Context, roundID uint) ([]domain.Contribution, error)
	ValidateContribution(ctx context.Context, p repository.ValidateContributionParams, debit func(gross int64) error) (repository.ValidateContributionResult, error)
	DistributeRound(ctx context.Context, p repository.DistributeParams, credit func(beneficiary domain.Member, net int64) error) (repository.DistributeResult, error)
	GetEscrow(ctx context.Context, tontineID uint) (domain.EscrowAccount, error)
	Deposit(ctx context.Context, p repository.EscrowMovementParams) error
	Withdraw(ctx context.Context, p repository.EscrowMovementParams) error
	ListLedger(ctx context.Context, tontineID uint) ([]domain.LedgerTransaction, error)
}

type TontineService struct {
	repo     TontineRepository
	wallet   Wallet
	fees     FeePolicy
	notifier Notifier
}

func NewTontineService(repo TontineRepository, wallet Wallet, fees FeePolicy, notifier Notifier) *TontineService {
	return &TontineService{
		repo:     repo,
		wallet:   wallet,
		fees:     fees,
		notifier: notifier,
	}
}

func walletRef(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func (s *TontineService) notify(ctx context.Context, userID uint, title, body string) {
	if err := s.notifier.Notify(ctx, userID, title, body, "TONTINE"); err != nil {
		zap.L().Warn("notification dispatch failed",
			zap.Uint("userID", userID),
			zap.String("title", title),
			zap.Error(err))
	}
}

func (s *TontineService) CreateTontine(ctx context.Context, tontine domain.Tontine, creatorUserID uint) (domain.Tontine, error) {
	if !tontine.RotationPolicy.IsValid() {
		return domain.Tontine{}, ErrUnsupportedPolicy
	}
	if !tontine.Frequency.IsValid() {
		return domain.Tontine{}, ErrUnsupportedFrequency
	}
	if tontine.ContributionAmount <= 0 || tontine.MemberCount < 2 {
		return domain.Tontine{}, ErrInvalidAmount
	}
	if tontine.FundingMode == "" {
		tontine.FundingMode = domain.FundingManual
	}
	tontine.Status = domain.TontineActive

	created, err := s.repo.CreateTontine(ctx, tontine, creatorUserID)
	if err != nil {
		return domain.Tontine{}, fmt.Errorf("s.repo.CreateTontine -> %w", err)
	}

	return created, nil
}

func (s *TontineService) GetTontine(ctx context.Context, id uint) (domain.Tontine, error) {
	tontine, err := s.repo.GetTontineByID(ctx, id)
	if err != nil {
		return domain.Tontine{}, fmt.Errorf("s.repo.GetTontineByID -> %w", err)
	}

	return tontine, nil
}

func (s *TontineService) GetEscrow(ctx context.Context, tontineID uint) (domain.EscrowAccount, error) {
	escrow, err := s.repo.GetEscrow(ctx, tontineID)
	if err != nil {
		return domain.EscrowAccount{}, fmt.Errorf("s.repo.GetEscrow -> %w", err)
	}

	return escrow, nil
}

func (s *TontineService) ListMembers(ctx context.Context, tontineID uint) ([]domain.Member, error) {
	members, err := s.repo.ListMembers(ctx, tontineID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListMembers -> %w", err)
	}

	return members, nil
}

func (s *TontineService) ListRounds(ctx context.Context, tontineID uint) ([]domain.Round, error) {
	rounds, err := s.repo.ListRounds(ctx, tontineID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListRounds -> %w", err)
	}

	return rounds, nil
}

func (s *TontineService) ListContributions(ctx context.Context, roundID uint) ([]domain.Contribution, error) {
	contributions, err := s.repo.ListContributions(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListContributions -> %w", err)
	}

	return contributions, nil
}

func (s *TontineService) ListLedger(ctx context.Context, tontineID uint) ([]domain.LedgerTransaction, error) {
	transactions, err := s.repo.ListLedger(ctx, tontineID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListLedger -> %w", err)
	}

	return transactions, nil
}

func (s *TontineService) requireAdmin(ctx context.Context, tontineID, userID uint) (domain.Member, error) {
	admin, err := s.repo.GetAdmin(ctx, tontineID)
	if err != nil {
		return domain.Member{}, fmt.Errorf("s.repo.GetAdmin -> %w", err)
	}
	if admin.UserID != userID {
		return domain.Member{}, ErrNotAdmin
	}

	return admin, nil
}

func (s *TontineService) RequestMembership(ctx context.Context, tontineID, userID uint) (domain.Member, error) {
	tontine, err := s.repo.GetTontineByID(ctx, tontineID)
	if err != nil {
		return domain.Member{}, fmt.Errorf("s.repo.GetTontineByID -> %w", err)
	}
	if !tontine.IsActive() {
		return domain.Member{}, ErrTontineNotActive
	}

	member, err := s.repo.AddMember(ctx, domain.Member{
		TontineID: tontineID,
		UserID:    userID,
		Role:      domain.RoleMember,
		Status:    domain.MemberPending,
		JoinedAt:  time.Now(),
	})
	if err != nil {
		return domain.Member{}, fmt.Errorf("s.repo.AddMember -> %w", err)
	}

	if admin, err := s.repo.GetAdmin(ctx, tontineID); err == nil {
		s.notify(ctx, admin.UserID,
			"Nouvelle demande d'adhésion",
			fmt.Sprintf("Un utilisateur souhaite rejoindre la tontine %q.", tontine.Name))
	}

	return member, nil
}

// ReviewMembership resolves a PENDING membership request. Only the tontine's
// admin may review, and a request can be resolved exactly once.
func (s *TontineService) ReviewMembership(ctx context.Context, tontineID, memberID, reviewerUserID uint, approve bool) error {
	if _, err := s.requireAdmin(ctx, tontineID, reviewerUserID); err != nil {
		return err
	}

	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("s.repo.GetMemberByID -> %w", err)
	}
	if member.TontineID != tontineID {
		return ErrMemberNotFound
	}

	target := domain.MemberRejected
	title := "Demande d'adhésion refusée"
	if approve {
		target = domain.MemberActive
		title = "Demande d'adhésion acceptée"
	}

	if err := s.repo.UpdateMemberStatus(ctx, memberID, domain.MemberPending, target); err != nil {
		return fmt.Errorf("s.repo.UpdateMemberStatus -> %w", err)
	}

	s.notify(ctx, member.UserID, title, "Votre demande a été traitée par l'administrateur.")

	return nil
}

// ExcludeMember removes an active member before the rotation is finalized.
// Once rounds exist the member set is frozen.
func (s *TontineService) ExcludeMember(ctx context.Context, tontineID, memberID, adminUserID uint) error {
	if _, err := s.requireAdmin(ctx, tontineID, adminUserID); err != nil {
		return err
	}

	exists, err := s.repo.RoundsExist(ctx, tontineID)
	if err != nil {
		return fmt.Errorf("s.repo.RoundsExist -> %w", err)
	}
	if exists {
		return ErrRotationFinalized
	}

	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("s.repo.GetMemberByID -> %w", err)
	}
	if member.TontineID != tontineID {
		return ErrMemberNotFound
	}

	if err := s.repo.UpdateMemberStatus(ctx, memberID, domain.MemberActive, domain.MemberExcluded); err != nil {
		return fmt.Errorf("s.repo.UpdateMemberStatus -> %w", err)
	}

	s.notify(ctx, member.UserID, "Exclusion de la tontine", "Vous avez été exclu de la tontine par l'administrateur.")

	return nil
}

// SuspendMember pauses an active member. Unlike exclusion this is allowed
// after the rotation is finalized: the rounds keep their beneficiary but the
// member stops receiving reminders until reinstated.
func (s *TontineService) SuspendMember(ctx context.Context, tontineID, memberID, adminUserID uint) error {
	if _, err := s.requireAdmin(ctx, tontineID, adminUserID); err != nil {
		return err
	}

	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("s.repo.GetMemberByID -> %w", err)
	}
	if member.TontineID != tontineID {
		return ErrMemberNotFound
	}

	if err := s.repo.UpdateMemberStatus(ctx, memberID, domain.MemberActive, domain.MemberSuspended); err != nil {
		return fmt.Errorf("s.repo.UpdateMemberStatus -> %w", err)
	}

	s.notify(ctx, member.UserID, "Suspension de la tontine", "Votre participation a été suspendue par l'administrateur.")

	return nil
}

func (s *TontineService) SuspendTontine(ctx context.Context, tontineID, adminUserID uint) error {
	if _, err := s.requireAdmin(ctx, tontineID, adminUserID); err != nil {
		return err
	}

	if err := s.repo.UpdateTontineStatus(ctx, tontineID, domain.TontineSuspended); err != nil {
		return fmt.Errorf("s.repo.UpdateTontineStatus -> %w", err)
	}

	return nil
}

// PayContribution validates a member's payment toward a round. The wallet is
// debited for the gross amount (contribution plus the platform fee), the
// contribution flips to VALIDATED and escrow grows by the net contribution
// amount, all atomically. A wallet failure persists nothing.
func (s *TontineService) PayContribution(ctx context.Context, tontineID, memberID, contributionID, payerUserID uint) (repository.ValidateContributionResult, error) {
	tontine, err := s.repo.GetTontineByID(ctx, tontineID)
	if err != nil {
		return repository.ValidateContributionResult{}, fmt.Errorf("s.repo.GetTontineByID -> %w", err)
	}
	if !tontine.IsActive() {
		return repository.ValidateContributionResult{}, ErrTontineNotActive
	}

	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return repository.ValidateContributionResult{}, fmt.Errorf("s.repo.GetMemberByID -> %w", err)
	}
	if member.TontineID != tontineID || member.UserID != payerUserID {
		return repository.ValidateContributionResult{}, ErrMemberMismatch
	}

	contribution, err := s.repo.GetContribution(ctx, contributionID)
	if err != nil {
		return repository.ValidateContributionResult{}, fmt.Errorf("s.repo.GetContribution -> %w", err)
	}
	if contribution.MemberID != memberID {
		return repository.ValidateContributionResult{}, ErrMemberMismatch
	}

	round, err := s.repo.GetRoundByID(ctx, contribution.RoundID)
	if err != nil {
		return repository.ValidateContributionResult{}, fmt.Errorf("s.repo.GetRoundByID -> %w", err)
	}
	if round.TontineID != tontineID {
		return repository.ValidateContributionResult{}, ErrContributionNotFound
	}

	feeRate, err := s.fees.GetFee(FeeContribution)
	if err != nil {
		return repository.ValidateContributionResult{}, fmt.Errorf("s.fees.GetFee -> %w", err)
	}

	reference := uuid.NewString()
	result, err := s.repo.ValidateContribution(ctx, repository.ValidateContributionParams{
		TontineID:      tontineID,
		ContributionID: contributionID,
		FeeRate:        feeRate,
		Reference:      reference,
	}, func(gross int64) error {
		memo := fmt.Sprintf("cotisation tontine %d tour %d [%s]", tontineID, round.Sequence, reference)
		return s.wallet.Debit(ctx, walletRef(member.UserID), gross, memo)
	})
	if err != nil {
		return repository.ValidateContributionResult{}, fmt.Errorf("s.repo.ValidateContribution -> %w", err)
	}

	zap.L().Info("contribution validated",
		zap.Uint("tontineID", tontineID),
		zap.Uint("contributionID", contributionID),
		zap.Int64("net", result.Net),
		zap.Int64("fee", result.Fee))

	s.notify(ctx, member.UserID,
		"Cotisation validée",
		fmt.Sprintf("Votre cotisation de %d pour le tour %d est validée.", result.Net, round.Sequence))
	if admin, err := s.repo.GetAdmin(ctx, tontineID); err == nil && admin.UserID != member.UserID {
		s.notify(ctx, admin.UserID,
			"Cotisation reçue",
			fmt.Sprintf("Un membre a cotisé %d pour le tour %d.", result.Net, round.Sequence))
	}

	return result, nil
}

// Distribute pays the pooled amount of the earliest pending round out to its
// beneficiary. The pool is what was actually collected: validated
// contributions times the contribution amount. Rounds close strictly in
// sequence order.
func (s *TontineService) Distribute(ctx context.Context, tontineID uint) (repository.DistributeResult, error) {
	tontine, err := s.repo.GetTontineByID(ctx, tontineID)
	if err != nil {
		return repository.DistributeResult{}, fmt.Errorf("s.repo.GetTontineByID -> %w", err)
	}
	if !tontine.IsActive() {
		return repository.DistributeResult{}, ErrTontineNotActive
	}

	feeRate, err := s.fees.GetFee(FeeDistribution)
	if err != nil {
		return repository.DistributeResult{}, fmt.Errorf("s.fees.GetFee -> %w", err)
	}

	reference := uuid.NewString()
	result, err := s.repo.DistributeRound(ctx, repository.DistributeParams{
		TontineID: tontineID,
		FeeRate:   feeRate,
		Reference: reference,
	}, func(beneficiary domain.Member, net int64) error {
		memo := fmt.Sprintf("distribution tontine %d [%s]", tontineID, reference)
		return s.wallet.Credit(ctx, walletRef(beneficiary.UserID), net, memo)
	})
	if err != nil {
		return repository.DistributeResult{}, fmt.Errorf("s.repo.DistributeRound -> %w", err)
	}

	zap.L().Info("round distributed",
		zap.Uint("tontineID", tontineID),
		zap.Int("sequence", result.Round.Sequence),
		zap.Int64("gross", result.Gross),
		zap.Int64("net", result.Net))

	members, err := s.repo.ListMembers(ctx, tontineID)
	if err != nil {
		zap.L().Warn("could not list members for distribution notice", zap.Error(err))
		return result, nil
	}
	for _, m := range members {
		s.notify(ctx, m.UserID,
			"Distribution effectuée",
			fmt.Sprintf("Le tour %d de la tontine %q a été distribué.", result.Round.Sequence, tontine.Name))
	}

	return result, nil
}

func (s *TontineService) Deposit(ctx context.Context, tontineID, adminUserID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	admin, err := s.requireAdmin(ctx, tontineID, adminUserID)
	if err != nil {
		return err
	}

	err = s.repo.Deposit(ctx, repository.EscrowMovementParams{
		TontineID: tontineID,
		MemberID:  admin.ID,
		Amount:    amount,
		Reference: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("s.repo.Deposit -> %w", err)
	}

	return nil
}

func (s *TontineService) Withdraw(ctx context.Context, tontineID, adminUserID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	admin, err := s.requireAdmin(ctx, tontineID, adminUserID)
	if err != nil {
		return err
	}

	err = s.repo.Withdraw(ctx, repository.EscrowMovementParams{
		TontineID: tontineID,
		MemberID:  admin.ID,
		Amount:    amount,
		Reference: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("s.repo.Withdraw -> %w", err)
	}

	return nil
}

// TontinesDueForReminder returns the active tontines whose contribution
// reminder is due at now, given each tontine's frequency and the time it was
// last reminded.
func (s *TontineService) TontinesDueForReminder(ctx context.Context, now time.Time) ([]domain.Tontine, error) {
	tontines, err := s.repo.ListActiveTontines(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListActiveTontines -> %w", err)
	}

	due := make([]domain.Tontine, 0, len(tontines))
	for _, t := range tontines {
		next := t.Frequency.NextReminderDate(t.LastReminderAt, now)
		if !next.After(now) {
			due = append(due, t)
		}
	}

	return due, nil
}

func (s *TontineService) ActiveMembers(ctx context.Context, tontineID uint) ([]domain.Member, error) {
	members, err := s.repo.ListMembersByStatus(ctx, tontineID, domain.MemberActive)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListMembersByStatus -> %w", err)
	}

	return members, nil
}

func (s *TontineService) MarkReminded(ctx context.Context, tontineID uint, at time.Time) error {
	if err := s.repo.StampReminder(ctx, tontineID, at); err != nil {
		return fmt.Errorf("s.repo.StampReminder -> %w", err)
	}

	return nil
}
