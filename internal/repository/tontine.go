package repository

import (
	"context"
	"time"

	"github.com/kolecto/tontine-api/internal/domain"
	"github.com/kolecto/tontine-api/internal/repository/dao"
)

var (
	ErrTontineNotFound      = dao.ErrTontineNotFound
	ErrTontineNotActive     = dao.ErrTontineNotActive
	ErrMemberNotFound       = dao.ErrMemberNotFound
	ErrAlreadyMember        = dao.ErrAlreadyMember
	ErrTontineFull          = dao.ErrTontineFull
	ErrMemberNotPending     = dao.ErrMemberNotPending
	ErrNotAdmin             = dao.ErrNotAdmin
	ErrInvalidRotationInput = dao.ErrInvalidRotationInput
	ErrUnsupportedPolicy    = dao.ErrUnsupportedPolicy
	ErrUnsupportedFrequency = dao.ErrUnsupportedFrequency
	ErrRotationExists       = dao.ErrRotationExists
	ErrRotationFinalized    = dao.ErrRotationFinalized
	ErrNoPendingRound       = dao.ErrNoPendingRound
	ErrNothingContributed   = dao.ErrNothingContributed
	ErrInsufficientEscrow   = dao.ErrInsufficientEscrow
	ErrEscrowBlocked        = dao.ErrEscrowBlocked
	ErrContributionNotFound = dao.ErrContributionNotFound
	ErrContributionClosed   = dao.ErrContributionClosed
	ErrMemberMismatch       = dao.ErrMemberMismatch
	ErrAlreadyPaid          = dao.ErrAlreadyPaid
	ErrPenaltyNotFound      = dao.ErrPenaltyNotFound
	ErrInvalidAmount        = dao.ErrInvalidAmount
	ErrInvalidPenaltyType   = dao.ErrInvalidPenaltyType
	ErrGroupBlocked         = dao.ErrGroupBlocked
)

type TontineDAO interface {
	CreateTontine(ctx context.Context, tontine dao.Tontine, creatorUserID uint) (dao.Tontine, error)
	GetByID(ctx context.Context, id uint) (dao.Tontine, error)
	ListActive(ctx context.Context) ([]dao.Tontine, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	StampReminder(ctx context.Context, id uint, at time.Time) error
	AddMember(ctx context.Context, member dao.Member) (dao.Member, error)
	GetMemberByID(ctx context.Context, id uint) (dao.Member, error)
	GetAdmin(ctx context.Context, tontineID uint) (dao.Member, error)
	ListMembers(ctx context.Context, tontineID uint) ([]dao.Member, error)
	ListMembersByStatus(ctx context.Context, tontineID uint, status string) ([]dao.Member, error)
	UpdateMemberStatus(ctx context.Context, memberID uint, from, to string) error
	RoundsExist(ctx context.Context, tontineID uint) (bool, error)
	CreateRotation(ctx context.Context, tontineID uint, beneficiaryIDs, memberIDs []uint, amount int64) ([]dao.Round, error)
	FirstPendingRound(ctx context.Context, tontineID uint) (dao.Round, error)
	GetRoundByID(ctx context.Context, id uint) (dao.Round, error)
	ListRounds(ctx context.Context, tontineID uint) ([]dao.Round, error)
	GetContribution(ctx context.Context, id uint) (dao.Contribution, error)
	ListContributions(ctx context.Context, roundID uint) ([]dao.Contribution, error)
	ValidateContribution(ctx context.Context, p dao.ValidateContributionParams, debit func(gross int64) error) (dao.ValidateContributionResult, error)
	DistributeRound(ctx context.Context, p dao.DistributeParams, credit func(beneficiary dao.Member, net int64) error) (dao.DistributeResult, error)
	GetEscrow(ctx context.Context, tontineID uint) (dao.EscrowAccount, error)
	Deposit(ctx context.Context, p dao.EscrowMovementParams) error
	Withdraw(ctx context.Context, p dao.EscrowMovementParams) error
	ListLedger(ctx context.Context, tontineID uint) ([]dao.LedgerTransaction, error)
}

type TontineRepository struct {
	dao TontineDAO
}

func NewTontineRepository(dao TontineDAO) *TontineRepository {
	return &TontineRepository{
		dao: dao,
	}
}

func (r *TontineRepository) tontineDomainToDao(t domain.Tontine) dao.Tontine {
	return dao.Tontine{
		ID:                 t.ID,
		Name:               t.Name,
		RotationPolicy:     string(t.RotationPolicy),
		Frequency:          string(t.Frequency),
		ContributionAmount: t.ContributionAmount,
		FundingMode:        string(t.FundingMode),
		MemberCount:        t.MemberCount,
		Status:             t.Status,
		LastReminderAt:     t.LastReminderAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func (r *TontineRepository) tontineDaoToDomain(t dao.Tontine) domain.Tontine {
	return domain.Tontine{
		ID:                 t.ID,
		Name:               t.Name,
		RotationPolicy:     domain.RotationPolicy(t.RotationPolicy),
		Frequency:          domain.Frequency(t.Frequency),
		ContributionAmount: t.ContributionAmount,
		FundingMode:        domain.FundingMode(t.FundingMode),
		MemberCount:        t.MemberCount,
		Status:             t.Status,
		LastReminderAt:     t.LastReminderAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func (r *TontineRepository) memberDaoToDomain(m dao.Member) domain.Member {
	return domain.Member{
		ID:        m.ID,
		TontineID: m.TontineID,
		UserID:    m.UserID,
		Role:      m.Role,
		Status:    m.Status,
		JoinedAt:  m.JoinedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *TontineRepository) membersDaoToDomain(members []dao.Member) []domain.Member {
	result := make([]domain.Member, len(members))
	for i, m := range members {
		result[i] = r.memberDaoToDomain(m)
	}
	return result
}

func (r *TontineRepository) roundDaoToDomain(round dao.Round) domain.Round {
	return domain.Round{
		ID:                round.ID,
		TontineID:         round.TontineID,
		Sequence:          round.Sequence,
		BeneficiaryID:     round.BeneficiaryID,
		Status:            round.Status,
		DistributedAmount: round.DistributedAmount,
		DistributedAt:     round.DistributedAt,
		CreatedAt:         round.CreatedAt,
		UpdatedAt:         round.UpdatedAt,
	}
}

func (r *TontineRepository) contributionDaoToDomain(c dao.Contribution) domain.Contribution {
	return domain.Contribution{
		ID:        c.ID,
		RoundID:   c.RoundID,
		MemberID:  c.MemberID,
		Amount:    c.Amount,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (r *TontineRepository) escrowDaoToDomain(e dao.EscrowAccount) domain.EscrowAccount {
	return domain.EscrowAccount{
		ID:             e.ID,
		TontineID:      e.TontineID,
		Balance:        e.Balance,
		Status:         e.Status,
		LastMovementAt: e.LastMovementAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (r *TontineRepository) CreateTontine(ctx context.Context, tontine domain.Tontine, creatorUserID uint) (domain.Tontine, error) {
	created, err := r.dao.CreateTontine(ctx, r.tontineDomainToDao(tontine), creatorUserID)
	if err != nil {
		return domain.Tontine{}, err
	}

	return r.tontineDaoToDomain(created), nil
}

func (r *TontineRepository) GetTontineByID(ctx context.Context, id uint) (domain.Tontine, error) {
	tontine, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Tontine{}, err
	}

	return r.tontineDaoToDomain(tontine), nil
}

func (r *TontineRepository) ListActiveTontines(ctx context.Context) ([]domain.Tontine, error) {
	tontines, err := r.dao.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Tontine, len(tontines))
	for i, t := range tontines {
		result[i] = r.tontineDaoToDomain(t)
	}

	return result, nil
}

func (r *TontineRepository) UpdateTontineStatus(ctx context.Context, id uint, status string) error {
	return r.dao.UpdateStatus(ctx, id, status)
}

func (r *TontineRepository) StampReminder(ctx context.Context, id uint, at time.Time) error {
	return r.dao.StampReminder(ctx, id, at)
}

func (r *TontineRepository) AddMember(ctx context.Context, member domain.Member) (domain.Member, error) {
	created, err := r.dao.AddMember(ctx, dao.Member{
		TontineID: member.TontineID,
		UserID:    member.UserID,
		Role:      member.Role,
		Status:    member.Status,
		JoinedAt:  member.JoinedAt,
	})
	if err != nil {
		return domain.Member{}, err
	}

	return r.memberDaoToDomain(created), nil
}

func (r *TontineRepository) GetMemberByID(ctx context.Context, id uint) (domain.Member, error) {
	member, err := r.dao.GetMemberByID(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}

	return r.memberDaoToDomain(member), nil
}

func (r *TontineRepository) GetAdmin(ctx context.Context, tontineID uint) (domain.Member, error) {
	member, err := r.dao.GetAdmin(ctx, tontineID)
	if err != nil {
		return domain.Member{}, err
	}

	return r.memberDaoToDomain(member), nil
}

func (r *TontineRepository) ListMembers(ctx context.Context, tontineID uint) ([]domain.Member, error) {
	members, err := r.dao.ListMembers(ctx, tontineID)
	if err != nil {
		return nil, err
	}

	return r.membersDaoToDomain(members), nil
}

func (r *TontineRepository) ListMembersByStatus(ctx context.Context, tontineID uint, status string) ([]domain.Member, error) {
	members, err := r.dao.ListMembersByStatus(ctx, tontineID, status)
	if err != nil {
		return nil, err
	}

	return r.membersDaoToDomain(members), nil
}

func (r *TontineRepository) UpdateMemberStatus(ctx context.Context, memberID uint, from, to string) error {
	return r.dao.UpdateMemberStatus(ctx, memberID, from, to)
}

func (r *TontineRepository) RoundsExist(ctx context.Context, tontineID uint) (bool, error) {
	return r.dao.RoundsExist(ctx, tontineID)
}

func (r *TontineRepository) CreateRotation(ctx context.Context, tontineID uint, beneficiaryIDs, memberIDs []uint, amount int64) ([]domain.Round, error) {
	rounds, err := r.dao.CreateRotation(ctx, tontineID, beneficiaryIDs, memberIDs, amount)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Round, len(rounds))
	for i, round := range rounds {
		result[i] = r.roundDaoToDomain(round)
	}

	return result, nil
}

func (r *TontineRepository) FirstPendingRound(ctx context.Context, tontineID uint) (domain.Round, error) {
	round, err := r.dao.FirstPendingRound(ctx, tontineID)
	if err != nil {
		return domain.Round{}, err
	}

	return r.roundDaoToDomain(round), nil
}

func (r *TontineRepository) GetRoundByID(ctx context.Context, id uint) (domain.Round, error) {
	round, err := r.dao.GetRoundByID(ctx, id)
	if err != nil {
		return domain.Round{}, err
	}

	return r.roundDaoToDomain(round), nil
}

func (r *TontineRepository) ListRounds(ctx context.Context, tontineID uint) ([]domain.Round, error) {
	rounds, err := r.dao.ListRounds(ctx, tontineID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Round, len(rounds))
	for i, round := range rounds {
		result[i] = r.roundDaoToDomain(round)
	}

	return result, nil
}

func (r *TontineRepository) GetContribution(ctx context.Context, id uint) (domain.Contribution, error) {
	contribution, err := r.dao.GetContribution(ctx, id)
	if err != nil {
		return domain.Contribution{}, err
	}

	return r.contributionDaoToDomain(contribution), nil
}

func (r *TontineRepository) ListContributions(ctx context.Context, roundID uint) ([]domain.Contribution, error) {
	contributions, err := r.dao.ListContributions(ctx, roundID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Contribution, len(contributions))
	for i, c := range contributions {
		result[i] = r.contributionDaoToDomain(c)
	}

	return result, nil
}

type ValidateContributionParams struct {
	TontineID      uint
	ContributionID uint
	FeeRate        float64
	Reference      string
}

type ValidateContributionResult struct {
	Contribution domain.Contribution
	Gross        int64
	Fee          int64
	Net          int64
}

func (r *TontineRepository) ValidateContribution(ctx context.Context, p ValidateContributionParams, debit func(gross int64) error) (ValidateContributionResult, error) {
	result, err := r.dao.ValidateContribution(ctx, dao.ValidateContributionParams{
		TontineID:      p.TontineID,
		ContributionID: p.ContributionID,
		FeeRate:        p.FeeRate,
		Reference:      p.Reference,
	}, debit)
	if err != nil {
		return ValidateContributionResult{}, err
	}

	return ValidateContributionResult{
		Contribution: r.contributionDaoToDomain(result.Contribution),
		Gross:        result.Gross,
		Fee:          result.Fee,
		Net:          result.Net,
	}, nil
}

type DistributeParams struct {
	TontineID uint
	FeeRate   float64
	Reference string
}

type DistributeResult struct {
	Round       domain.Round
	Beneficiary domain.Member
	Gross       int64
	Fee         int64
	Net         int64
	Defaulters  []domain.Member
}

func (r *TontineRepository) DistributeRound(ctx context.Context, p DistributeParams, credit func(beneficiary domain.Member, net int64) error) (DistributeResult, error) {
	result, err := r.dao.DistributeRound(ctx, dao.DistributeParams{
		TontineID: p.TontineID,
		FeeRate:   p.FeeRate,
		Reference: p.Reference,
	}, func(beneficiary dao.Member, net int64) error {
		return credit(r.memberDaoToDomain(beneficiary), net)
	})
	if err != nil {
		return DistributeResult{}, err
	}

	return DistributeResult{
		Round:       r.roundDaoToDomain(result.Round),
		Beneficiary: r.memberDaoToDomain(result.Beneficiary),
		Gross:       result.Gross,
		Fee:         result.Fee,
		Net:         result.Net,
		Defaulters:  r.membersDaoToDomain(result.Defaulters),
	}, nil
}

func (r *TontineRepository) GetEscrow(ctx context.Context, tontineID uint) (domain.EscrowAccount, error) {
	escrow, err := r.dao.GetEscrow(ctx, tontineID)
	if err != nil {
		return domain.EscrowAccount{}, err
	}

	return r.escrowDaoToDomain(escrow), nil
}

type EscrowMovementParams struct {
	TontineID uint
	MemberID  uint
	Amount    int64
	Reference string
}

func (r *TontineRepository) Deposit(ctx context.Context, p EscrowMovementParams) error {
	return r.dao.Deposit(ctx, dao.EscrowMovementParams(p))
}

func (r *TontineRepository) Withdraw(ctx context.Context, p EscrowMovementParams) error {
	return r.dao.Withdraw(ctx, dao.EscrowMovementParams(p))
}

func (r *TontineRepository) ListLedger(ctx context.Context, tontineID uint) ([]domain.LedgerTransaction, error) {
	transactions, err := r.dao.ListLedger(ctx, tontineID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.LedgerTransaction, len(transactions))
	for i, t := range transactions {
		result[i] = domain.LedgerTransaction{
			ID:          t.ID,
			TontineID:   t.TontineID,
			MemberID:    t.MemberID,
			Reference:   t.Reference,
			Kind:        domain.LedgerKind(t.Kind),
			GrossAmount: t.GrossAmount,
			FeeAmount:   t.FeeAmount,
			NetAmount:   t.NetAmount,
			CreatedAt:   t.CreatedAt,
		}
	}

	return result, nil
}
