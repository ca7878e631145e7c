package response

import (
	"time"

	"github.com/kolecto/tontine-api/internal/domain"
	"github.com/kolecto/tontine-api/internal/repository"
)

type Distribution struct {
	RoundID       uint       `json:"round_id"`
	Sequence      int        `json:"sequence"`
	BeneficiaryID uint       `json:"beneficiary_id"`
	Gross         int64      `json:"gross"`
	Fee           int64      `json:"fee"`
	Net           int64      `json:"net"`
	DistributedAt *time.Time `json:"distributed_at"`
	Defaulters    []uint     `json:"defaulters,omitempty"`
}

func NewDistribution(result repository.DistributeResult) Distribution {
	defaulters := make([]uint, len(result.Defaulters))
	for i, m := range result.Defaulters {
		defaulters[i] = m.ID
	}

	return Distribution{
		RoundID:       result.Round.ID,
		Sequence:      result.Round.Sequence,
		BeneficiaryID: result.Beneficiary.ID,
		Gross:         result.Gross,
		Fee:           result.Fee,
		Net:           result.Net,
		DistributedAt: result.Round.DistributedAt,
		Defaulters:    defaulters,
	}
}

type ContributionPayment struct {
	ContributionID uint  `json:"contribution_id"`
	Gross          int64 `json:"gross"`
	Fee            int64 `json:"fee"`
	Net            int64 `json:"net"`
}

func NewContributionPayment(result repository.ValidateContributionResult) ContributionPayment {
	return ContributionPayment{
		ContributionID: result.Contribution.ID,
		Gross:          result.Gross,
		Fee:            result.Fee,
		Net:            result.Net,
	}
}

type PenaltyPayment struct {
	PenaltyID uint  `json:"penalty_id"`
	Gross     int64 `json:"gross"`
	Fee       int64 `json:"fee"`
	Net       int64 `json:"net"`
}

func NewPenaltyPayment(result repository.PayPenaltyResult) PenaltyPayment {
	return PenaltyPayment{
		PenaltyID: result.Penalty.ID,
		Gross:     result.Gross,
		Fee:       result.Fee,
		Net:       result.Net,
	}
}

type Escrow struct {
	TontineID      uint       `json:"tontine_id"`
	Balance        int64      `json:"balance"`
	Status         string     `json:"status"`
	LastMovementAt *time.Time `json:"last_movement_at"`
}

func NewEscrow(escrow domain.EscrowAccount) Escrow {
	return Escrow{
		TontineID:      escrow.TontineID,
		Balance:        escrow.Balance,
		Status:         escrow.Status,
		LastMovementAt: escrow.LastMovementAt,
	}
}
