package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kolecto/tontine-api/internal/domain"
	"github.com/kolecto/tontine-api/internal/repository"
)

var errWalletDown = errors.New("wallet unavailable")

// fakeStore is an in-memory stand-in for the persistence layer. It mirrors
// the guarded status transitions of the real store, including the
// all-or-nothing behavior around the wallet callback: state only moves when
// the callback succeeds.
type fakeStore struct {
	mu sync.Mutex

	nextID        uint
	tontines      map[uint]*domain.Tontine
	members       map[uint]*domain.Member
	rounds        map[uint]*domain.Round
	contributions map[uint]*domain.Contribution
	escrows       map[uint]*domain.EscrowAccount // keyed by tontine ID
	penalties     map[uint]*domain.Penalty
	ledger        []domain.LedgerTransaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tontines:      map[uint]*domain.Tontine{},
		members:       map[uint]*domain.Member{},
		rounds:        map[uint]*domain.Round{},
		contributions: map[uint]*domain.Contribution{},
		escrows:       map[uint]*domain.EscrowAccount{},
		penalties:     map[uint]*domain.Penalty{},
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateTontine(_ context.Context, tontine domain.Tontine, creatorUserID uint) (domain.Tontine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tontine.ID = f.id()
	f.tontines[tontine.ID] = &tontine

	admin := domain.Member{
		ID:        f.id(),
		TontineID: tontine.ID,
		UserID:    creatorUserID,
		Role:      domain.RoleAdmin,
		Status:    domain.MemberActive,
		JoinedAt:  time.Now(),
	}
	f.members[admin.ID] = &admin

	f.escrows[tontine.ID] = &domain.EscrowAccount{
		ID:        f.id(),
		TontineID: tontine.ID,
		Status:    domain.EscrowActive,
	}

	return tontine, nil
}

func (f *fakeStore) GetTontineByID(_ context.Context, id uint) (domain.Tontine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tontines[id]
	if !ok {
		return domain.Tontine{}, repository.ErrTontineNotFound
	}

	return *t, nil
}

func (f *fakeStore) ListActiveTontines(_ context.Context) ([]domain.Tontine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Tontine
	for _, t := range f.tontines {
		if t.Status == domain.TontineActive {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeStore) UpdateTontineStatus(_ context.Context, id uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tontines[id]
	if !ok {
		return repository.ErrTontineNotFound
	}
	t.Status = status

	return nil
}

func (f *fakeStore) StampReminder(_ context.Context, id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tontines[id]
	if !ok {
		return repository.ErrTontineNotFound
	}
	t.LastReminderAt = &at

	return nil
}

func (f *fakeStore) AddMember(_ context.Context, member domain.Member) (domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tontines[member.TontineID]
	if !ok {
		return domain.Member{}, repository.ErrTontineNotFound
	}

	occupied := 0
	for _, m := range f.members {
		if m.TontineID != member.TontineID {
			continue
		}
		if m.UserID == member.UserID {
			return domain.Member{}, repository.ErrAlreadyMember
		}
		if m.Status == domain.MemberActive || m.Status == domain.MemberPending {
			occupied++
		}
	}
	if occupied >= t.MemberCount {
		return domain.Member{}, repository.ErrTontineFull
	}

	member.ID = f.id()
	f.members[member.ID] = &member

	return member, nil
}

func (f *fakeStore) GetMemberByID(_ context.Context, id uint) (domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[id]
	if !ok {
		return domain.Member{}, repository.ErrMemberNotFound
	}

	return *m, nil
}

func (f *fakeStore) GetAdmin(_ context.Context, tontineID uint) (domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.members {
		if m.TontineID == tontineID && m.Role == domain.RoleAdmin {
			return *m, nil
		}
	}

	return domain.Member{}, repository.ErrMemberNotFound
}

func (f *fakeStore) ListMembers(_ context.Context, tontineID uint) ([]domain.Member, error) {
	return f.listMembers(tontineID, "")
}

func (f *fakeStore) ListMembersByStatus(_ context.Context, tontineID uint, status string) ([]domain.Member, error) {
	return f.listMembers(tontineID, status)
}

func (f *fakeStore) listMembers(tontineID uint, status string) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Member
	for _, m := range f.members {
		if m.TontineID == tontineID && (status == "" || m.Status == status) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeStore) UpdateMemberStatus(_ context.Context, memberID uint, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[memberID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	if m.Status != from {
		return repository.ErrMemberNotPending
	}
	m.Status = to

	return nil
}

func (f *fakeStore) RoundsExist(_ context.Context, tontineID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.rounds {
		if r.TontineID == tontineID {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeStore) CreateRotation(_ context.Context, tontineID uint, beneficiaryIDs, memberIDs []uint, amount int64) ([]domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.rounds {
		if r.TontineID == tontineID {
			return nil, repository.ErrRotationExists
		}
	}

	rounds := make([]domain.Round, 0, len(beneficiaryIDs))
	for i, beneficiaryID := range beneficiaryIDs {
		round := domain.Round{
			ID:            f.id(),
			TontineID:     tontineID,
			Sequence:      i + 1,
			BeneficiaryID: beneficiaryID,
			Status:        domain.RoundPending,
		}
		f.rounds[round.ID] = &round

		for _, memberID := range memberIDs {
			contribution := domain.Contribution{
				ID:       f.id(),
				RoundID:  round.ID,
				MemberID: memberID,
				Amount:   amount,
				Status:   domain.ContributionPending,
			}
			f.contributions[contribution.ID] = &contribution
		}

		rounds = append(rounds, round)
	}

	return rounds, nil
}

func (f *fakeStore) FirstPendingRound(_ context.Context, tontineID uint) (domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	round := f.firstPendingLocked(tontineID)
	if round == nil {
		return domain.Round{}, repository.ErrNoPendingRound
	}

	return *round, nil
}

func (f *fakeStore) firstPendingLocked(tontineID uint) *domain.Round {
	var found *domain.Round
	for _, r := range f.rounds {
		if r.TontineID != tontineID || r.Status != domain.RoundPending {
			continue
		}
		if found == nil || r.Sequence < found.Sequence {
			found = r
		}
	}

	return found
}

func (f *fakeStore) GetRoundByID(_ context.Context, id uint) (domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rounds[id]
	if !ok {
		return domain.Round{}, repository.ErrNoPendingRound
	}

	return *r, nil
}

func (f *fakeStore) ListRounds(_ context.Context, tontineID uint) ([]domain.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Round
	for _, r := range f.rounds {
		if r.TontineID == tontineID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })

	return out, nil
}

func (f *fakeStore) GetContribution(_ context.Context, id uint) (domain.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.contributions[id]
	if !ok {
		return domain.Contribution{}, repository.ErrContributionNotFound
	}

	return *c, nil
}

func (f *fakeStore) ListContributions(_ context.Context, roundID uint) ([]domain.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Contribution
	for _, c := range f.contributions {
		if c.RoundID == roundID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeStore) ValidateContribution(_ context.Context, p repository.ValidateContributionParams, debit func(gross int64) error) (repository.ValidateContributionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.contributions[p.ContributionID]
	if !ok {
		return repository.ValidateContributionResult{}, repository.ErrContributionNotFound
	}
	switch c.Status {
	case domain.ContributionValidated:
		return repository.ValidateContributionResult{}, repository.ErrAlreadyPaid
	case domain.ContributionRejected:
		return repository.ValidateContributionResult{}, repository.ErrContributionClosed
	}

	escrow, ok := f.escrows[p.TontineID]
	if !ok || escrow.Status != domain.EscrowActive {
		return repository.ValidateContributionResult{}, repository.ErrEscrowBlocked
	}

	fee := domain.FeeOn(c.Amount, p.FeeRate)
	gross := c.Amount + fee

	// The wallet call is the last step; nothing is persisted if it fails.
	if err := debit(gross); err != nil {
		return repository.ValidateContributionResult{}, err
	}

	c.Status = domain.ContributionValidated
	escrow.Balance += c.Amount
	f.ledger = append(f.ledger, domain.LedgerTransaction{
		ID:          f.id(),
		TontineID:   p.TontineID,
		MemberID:    c.MemberID,
		Reference:   p.Reference,
		Kind:        domain.LedgerContribution,
		GrossAmount: gross,
		FeeAmount:   fee,
		NetAmount:   c.Amount,
	})

	return repository.ValidateContributionResult{
		Contribution: *c,
		Gross:        gross,
		Fee:          fee,
		Net:          c.Amount,
	}, nil
}

func (f *fakeStore) DistributeRound(_ context.Context, p repository.DistributeParams, credit func(beneficiary domain.Member, net int64) error) (repository.DistributeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tontine, ok := f.tontines[p.TontineID]
	if !ok {
		return repository.DistributeResult{}, repository.ErrTontineNotFound
	}

	round := f.firstPendingLocked(p.TontineID)
	if round == nil {
		return repository.DistributeResult{}, repository.ErrNoPendingRound
	}

	validated := 0
	var pending []*domain.Contribution
	for _, c := range f.contributions {
		if c.RoundID != round.ID {
			continue
		}
		switch c.Status {
		case domain.ContributionValidated:
			validated++
		case domain.ContributionPending:
			pending = append(pending, c)
		}
	}
	if validated == 0 {
		return repository.DistributeResult{}, repository.ErrNothingContributed
	}

	gross := int64(validated) * tontine.ContributionAmount
	fee := domain.FeeOn(gross, p.FeeRate)
	net := gross - fee

	escrow := f.escrows[p.TontineID]
	if escrow == nil || escrow.Status != domain.EscrowActive {
		return repository.DistributeResult{}, repository.ErrEscrowBlocked
	}
	if escrow.Balance <= 0 || escrow.Balance < gross {
		return repository.DistributeResult{}, repository.ErrInsufficientEscrow
	}

	beneficiary, ok := f.members[round.BeneficiaryID]
	if !ok {
		return repository.DistributeResult{}, repository.ErrMemberNotFound
	}

	if err := credit(*beneficiary, net); err != nil {
		return repository.DistributeResult{}, err
	}

	now := time.Now()
	escrow.Balance -= gross
	round.Status = domain.RoundSuccess
	round.DistributedAmount = gross
	round.DistributedAt = &now

	var defaulters []domain.Member
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	for _, c := range pending {
		c.Status = domain.ContributionRejected
		contributionID := c.ID
		f.penalties[f.id()] = &domain.Penalty{
			ID:             f.nextID,
			TontineID:      p.TontineID,
			MemberID:       c.MemberID,
			ContributionID: &contributionID,
			Amount:         c.Amount,
			Type:           domain.PenaltyRetard,
			Status:         domain.PenaltyUnpaid,
		}
		if m, ok := f.members[c.MemberID]; ok {
			defaulters = append(defaulters, *m)
		}
	}

	f.ledger = append(f.ledger, domain.LedgerTransaction{
		ID:          f.id(),
		TontineID:   p.TontineID,
		MemberID:    beneficiary.ID,
		Reference:   p.Reference,
		Kind:        domain.LedgerDistribution,
		GrossAmount: gross,
		FeeAmount:   fee,
		NetAmount:   net,
	})

	return repository.DistributeResult{
		Round:       *round,
		Beneficiary: *beneficiary,
		Gross:       gross,
		Fee:         fee,
		Net:         net,
		Defaulters:  defaulters,
	}, nil
}

func (f *fakeStore) GetEscrow(_ context.Context, tontineID uint) (domain.EscrowAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	escrow, ok := f.escrows[tontineID]
	if !ok {
		return domain.EscrowAccount{}, repository.ErrTontineNotFound
	}

	return *escrow, nil
}

func (f *fakeStore) Deposit(_ context.Context, p repository.EscrowMovementParams) error {
	return f.move(p, 1, domain.LedgerDeposit)
}

func (f *fakeStore) Withdraw(_ context.Context, p repository.EscrowMovementParams) error {
	return f.move(p, -1, domain.LedgerWithdrawal)
}

func (f *fakeStore) move(p repository.EscrowMovementParams, sign int64, kind domain.LedgerKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	escrow, ok := f.escrows[p.TontineID]
	if !ok {
		return repository.ErrTontineNotFound
	}
	if escrow.Status != domain.EscrowActive {
		return repository.ErrEscrowBlocked
	}
	if sign < 0 && escrow.Balance < p.Amount {
		return repository.ErrInsufficientEscrow
	}

	escrow.Balance += sign * p.Amount
	f.ledger = append(f.ledger, domain.LedgerTransaction{
		ID:          f.id(),
		TontineID:   p.TontineID,
		MemberID:    p.MemberID,
		Reference:   p.Reference,
		Kind:        kind,
		GrossAmount: p.Amount,
		NetAmount:   p.Amount,
	})

	return nil
}

func (f *fakeStore) ListLedger(_ context.Context, tontineID uint) ([]domain.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.LedgerTransaction
	for _, tx := range f.ledger {
		if tx.TontineID == tontineID {
			out = append(out, tx)
		}
	}

	return out, nil
}

// Penalty store methods, so the same fake backs both repositories.

func (f *fakeStore) Create(_ context.Context, penalty domain.Penalty) (domain.Penalty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	penalty.ID = f.id()
	f.penalties[penalty.ID] = &penalty

	return penalty, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint) (domain.Penalty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.penalties[id]
	if !ok {
		return domain.Penalty{}, repository.ErrPenaltyNotFound
	}

	return *p, nil
}

func (f *fakeStore) ListByMember(_ context.Context, tontineID, memberID uint) ([]domain.Penalty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Penalty
	for _, p := range f.penalties {
		if p.TontineID == tontineID && p.MemberID == memberID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeStore) Pay(_ context.Context, p repository.PayPenaltyParams, debit func(gross int64) error) (repository.PayPenaltyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	penalty, ok := f.penalties[p.PenaltyID]
	if !ok {
		return repository.PayPenaltyResult{}, repository.ErrPenaltyNotFound
	}
	if penalty.Status == domain.PenaltyPaid {
		return repository.PayPenaltyResult{}, repository.ErrAlreadyPaid
	}

	escrow, ok := f.escrows[penalty.TontineID]
	if !ok || escrow.Status != domain.EscrowActive {
		return repository.PayPenaltyResult{}, repository.ErrEscrowBlocked
	}

	fee := domain.FeeOn(penalty.Amount, p.FeeRate)
	gross := penalty.Amount + fee

	if err := debit(gross); err != nil {
		return repository.PayPenaltyResult{}, err
	}

	penalty.Status = domain.PenaltyPaid
	escrow.Balance += penalty.Amount
	f.ledger = append(f.ledger, domain.LedgerTransaction{
		ID:          f.id(),
		TontineID:   penalty.TontineID,
		MemberID:    penalty.MemberID,
		Reference:   p.Reference,
		Kind:        domain.LedgerPenalty,
		GrossAmount: gross,
		FeeAmount:   fee,
		NetAmount:   penalty.Amount,
	})

	return repository.PayPenaltyResult{
		Penalty: *penalty,
		Gross:   gross,
		Fee:     fee,
		Net:     penalty.Amount,
	}, nil
}

func (f *fakeStore) SelectForRetry(_ context.Context, maxRetries int) ([]domain.Penalty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	var out []domain.Penalty
	for _, p := range f.penalties {
		if p.Status != domain.PenaltyUnpaid || p.RetryCount >= maxRetries {
			continue
		}
		p.RetryCount++
		p.LastCheckedAt = &now
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

type walletCall struct {
	AccountRef string
	Amount     int64
	Memo       string
}

type fakeWallet struct {
	mu       sync.Mutex
	debits   []walletCall
	credits  []walletCall
	debitErr error
	credErr  error
}

func (w *fakeWallet) Debit(_ context.Context, accountRef string, amount int64, memo string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debitErr != nil {
		return w.debitErr
	}
	w.debits = append(w.debits, walletCall{AccountRef: accountRef, Amount: amount, Memo: memo})

	return nil
}

func (w *fakeWallet) Credit(_ context.Context, accountRef string, amount int64, memo string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.credErr != nil {
		return w.credErr
	}
	w.credits = append(w.credits, walletCall{AccountRef: accountRef, Amount: amount, Memo: memo})

	return nil
}

type fakeFees map[string]float64

func (f fakeFees) GetFee(name string) (float64, error) {
	rate, ok := f[name]
	if !ok {
		return 0, errors.New("unknown fee: " + name)
	}

	return rate, nil
}

type notification struct {
	UserID   uint
	Title    string
	Category string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) Notify(_ context.Context, userID uint, title, _, category string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, notification{UserID: userID, Title: title, Category: category})

	return nil
}

func (n *fakeNotifier) sentTo(userID uint) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}

	return out
}

// newTestServices builds both services over one shared fake store.
func newTestServices() (*TontineService, *PenaltyService, *fakeStore, *fakeWallet, *fakeNotifier) {
	store := newFakeStore()
	wallet := &fakeWallet{}
	notifier := &fakeNotifier{}
	fees := fakeFees{
		FeeContribution: 2.0,
		FeeDistribution: 1.0,
		FeePenalty:      2.0,
	}

	tontineSvc := NewTontineService(store, wallet, fees, notifier)
	penaltySvc := NewPenaltyService(store, store, wallet, fees, notifier)

	return tontineSvc, penaltySvc, store, wallet, notifier
}
