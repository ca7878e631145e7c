package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/kolecto/tontine-api/internal/domain"
)

// GenerateRotation freezes the beneficiary order and materializes every round
// together with one contribution row per (round, member) pair. For FIXED
// tontines the caller supplies the full order; for RANDOM ones the order is a
// one-time unbiased shuffle of the active members. Re-invocation is rejected
// once rounds exist.
func (s *TontineService) GenerateRotation(ctx context.Context, tontineID, requesterUserID uint, order []uint) ([]domain.Round, error) {
	tontine, err := s.repo.GetTontineByID(ctx, tontineID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.GetTontineByID -> %w", err)
	}
	if !tontine.IsActive() {
		return nil, ErrTontineNotActive
	}

	if _, err := s.requireAdmin(ctx, tontineID, requesterUserID); err != nil {
		return nil, err
	}

	active, err := s.repo.ListMembersByStatus(ctx, tontineID, domain.MemberActive)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListMembersByStatus -> %w", err)
	}

	memberIDs := make([]uint, len(active))
	for i, m := range active {
		memberIDs[i] = m.ID
	}

	var beneficiaryIDs []uint
	switch tontine.RotationPolicy {
	case domain.RotationFixed:
		if !isPermutation(order, memberIDs) {
			return nil, ErrInvalidRotationInput
		}
		beneficiaryIDs = order
	case domain.RotationRandom:
		beneficiaryIDs = shuffled(memberIDs)
	default:
		return nil, ErrUnsupportedPolicy
	}

	rounds, err := s.repo.CreateRotation(ctx, tontineID, beneficiaryIDs, memberIDs, tontine.ContributionAmount)
	if err != nil {
		return nil, fmt.Errorf("s.repo.CreateRotation -> %w", err)
	}

	for _, m := range active {
		s.notify(ctx, m.UserID,
			"Ordre de rotation fixé",
			fmt.Sprintf("L'ordre des tours de la tontine %q est désormais fixé.", tontine.Name))
	}

	return rounds, nil
}

// NextBeneficiary returns the member designated by the earliest pending
// round. Completed rounds track who has already been served in this cycle, so
// a member never comes up twice.
func (s *TontineService) NextBeneficiary(ctx context.Context, tontineID uint) (domain.Member, error) {
	round, err := s.repo.FirstPendingRound(ctx, tontineID)
	if err != nil {
		return domain.Member{}, fmt.Errorf("s.repo.FirstPendingRound -> %w", err)
	}

	member, err := s.repo.GetMemberByID(ctx, round.BeneficiaryID)
	if err != nil {
		return domain.Member{}, fmt.Errorf("s.repo.GetMemberByID -> %w", err)
	}

	return member, nil
}

// isPermutation reports whether order contains exactly the ids in members,
// each once.
func isPermutation(order, members []uint) bool {
	if len(order) != len(members) || len(order) == 0 {
		return false
	}

	want := make(map[uint]bool, len(members))
	for _, id := range members {
		want[id] = true
	}

	seen := make(map[uint]bool, len(order))
	for _, id := range order {
		if !want[id] || seen[id] {
			return false
		}
		seen[id] = true
	}

	return true
}

// shuffled returns a Fisher–Yates shuffle of ids without mutating the input.
func shuffled(ids []uint) []uint {
	result := make([]uint, len(ids))
	copy(result, ids)
	rand.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})

	return result
}
