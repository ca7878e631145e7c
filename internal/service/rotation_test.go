package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolecto/tontine-api/internal/domain"
)

func TestTontineService_GenerateRotation(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed order materializes rounds and contributions", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, members := seedTontine(t, svc, 3)
		order := []uint{members[2].ID, members[0].ID, members[1].ID}

		rounds, err := svc.GenerateRotation(ctx, tontine.ID, adminUser, order)
		require.NoError(t, err)
		require.Len(t, rounds, 3)

		for i, round := range rounds {
			assert.Equal(t, i+1, round.Sequence)
			assert.Equal(t, order[i], round.BeneficiaryID)
			assert.Equal(t, domain.RoundPending, round.Status)

			contributions, err := svc.ListContributions(ctx, round.ID)
			require.NoError(t, err)
			assert.Len(t, contributions, 3, "one contribution per member per round")
			for _, c := range contributions {
				assert.Equal(t, tontine.ContributionAmount, c.Amount)
				assert.Equal(t, domain.ContributionPending, c.Status)
			}
		}
	})

	t.Run("fixed order must be a permutation of active members", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, members := seedTontine(t, svc, 3)

		cases := map[string][]uint{
			"too short":      {members[0].ID, members[1].ID},
			"duplicate":      {members[0].ID, members[0].ID, members[1].ID},
			"unknown member": {members[0].ID, members[1].ID, 9999},
			"empty":          {},
			"too long":       {members[0].ID, members[1].ID, members[2].ID, members[0].ID},
		}
		for name, order := range cases {
			_, err := svc.GenerateRotation(ctx, tontine.ID, adminUser, order)
			assert.ErrorIs(t, err, ErrInvalidRotationInput, name)
		}
	})

	t.Run("random policy shuffles the active members", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, err := svc.CreateTontine(ctx, domain.Tontine{
			Name:               "Aléatoire",
			RotationPolicy:     domain.RotationRandom,
			Frequency:          domain.FrequencyWeekly,
			ContributionAmount: 1000,
			MemberCount:        4,
		}, adminUser)
		require.NoError(t, err)

		for i := 1; i < 4; i++ {
			member, err := svc.RequestMembership(ctx, tontine.ID, adminUser+uint(i))
			require.NoError(t, err)
			require.NoError(t, svc.ReviewMembership(ctx, tontine.ID, member.ID, adminUser, true))
		}
		members, err := svc.ListMembers(ctx, tontine.ID)
		require.NoError(t, err)

		rounds, err := svc.GenerateRotation(ctx, tontine.ID, adminUser, nil)
		require.NoError(t, err)
		require.Len(t, rounds, 4)

		// Whatever the shuffle, every member benefits exactly once.
		seen := map[uint]int{}
		for _, round := range rounds {
			seen[round.BeneficiaryID]++
		}
		for _, m := range members {
			assert.Equal(t, 1, seen[m.ID], "member %d must benefit exactly once", m.ID)
		}
	})

	t.Run("random order spreads the first position evenly", func(t *testing.T) {
		ids := []uint{1, 2, 3, 4}
		const runs = 4000

		firsts := map[uint]int{}
		for i := 0; i < runs; i++ {
			firsts[shuffled(ids)[0]]++
		}

		// Each member should open roughly a quarter of the shuffles.
		// The band is loose on purpose; it catches a stuck or biased
		// shuffle, not statistical noise.
		for _, id := range ids {
			count := firsts[id]
			assert.Greater(t, count, runs/8, "member %d almost never drawn first (%d/%d)", id, count, runs)
			assert.Less(t, count, runs/2, "member %d drawn first far too often (%d/%d)", id, count, runs)
		}
	})

	t.Run("second generation is rejected", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, members := seedTontine(t, svc, 2)
		order := []uint{members[0].ID, members[1].ID}

		_, err := svc.GenerateRotation(ctx, tontine.ID, adminUser, order)
		require.NoError(t, err)

		_, err = svc.GenerateRotation(ctx, tontine.ID, adminUser, order)
		assert.ErrorIs(t, err, ErrRotationExists)
	})

	t.Run("only the admin generates the rotation", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, members := seedTontine(t, svc, 2)

		_, err := svc.GenerateRotation(ctx, tontine.ID, adminUser+1, []uint{members[0].ID, members[1].ID})
		assert.ErrorIs(t, err, ErrNotAdmin)
	})

	t.Run("suspended tontine cannot generate", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, members := seedTontine(t, svc, 2)
		require.NoError(t, svc.SuspendTontine(ctx, tontine.ID, adminUser))

		_, err := svc.GenerateRotation(ctx, tontine.ID, adminUser, []uint{members[0].ID, members[1].ID})
		assert.ErrorIs(t, err, ErrTontineNotActive)
	})
}

func TestTontineService_NextBeneficiary(t *testing.T) {
	ctx := context.Background()

	t.Run("no rounds yet", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, _ := seedTontine(t, svc, 2)

		_, err := svc.NextBeneficiary(ctx, tontine.ID)
		assert.ErrorIs(t, err, ErrNoPendingRound)
	})

	t.Run("full cycle serves every member once in order", func(t *testing.T) {
		svc, _, _, _, _ := newTestServices()
		tontine, members := seedTontine(t, svc, 3)
		order := []uint{members[1].ID, members[2].ID, members[0].ID}
		rounds, err := svc.GenerateRotation(ctx, tontine.ID, adminUser, order)
		require.NoError(t, err)

		var served []uint
		for _, round := range rounds {
			next, err := svc.NextBeneficiary(ctx, tontine.ID)
			require.NoError(t, err)
			served = append(served, next.ID)

			payRound(t, svc, tontine.ID, round, members)
			_, err = svc.Distribute(ctx, tontine.ID)
			require.NoError(t, err)
		}

		assert.Equal(t, order, served)

		// The cycle is complete.
		_, err = svc.NextBeneficiary(ctx, tontine.ID)
		assert.ErrorIs(t, err, ErrNoPendingRound)
		_, err = svc.Distribute(ctx, tontine.ID)
		assert.ErrorIs(t, err, ErrNoPendingRound)
	})
}
