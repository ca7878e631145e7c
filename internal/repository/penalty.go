package repository

import (
	"context"

	"github.com/kolecto/tontine-api/internal/domain"
	"github.com/kolecto/tontine-api/internal/repository/dao"
)

type PenaltyDAO interface {
	Create(ctx context.Context, penalty dao.Penalty) (dao.Penalty, error)
	GetByID(ctx context.Context, id uint) (dao.Penalty, error)
	ListByMember(ctx context.Context, tontineID, memberID uint) ([]dao.Penalty, error)
	Pay(ctx context.Context, p dao.PayPenaltyParams, debit func(gross int64) error) (dao.PayPenaltyResult, error)
	SelectForRetry(ctx context.Context, maxRetries int) ([]dao.Penalty, error)
}

type PenaltyRepository struct {
	dao PenaltyDAO
}

func NewPenaltyRepository(dao PenaltyDAO) *PenaltyRepository {
	return &PenaltyRepository{
		dao: dao,
	}
}

func (r *PenaltyRepository) penaltyDomainToDao(p domain.Penalty) dao.Penalty {
	return dao.Penalty{
		ID:             p.ID,
		TontineID:      p.TontineID,
		MemberID:       p.MemberID,
		ContributionID: p.ContributionID,
		Amount:         p.Amount,
		Type:           string(p.Type),
		Status:         p.Status,
		RetryCount:     p.RetryCount,
		LastCheckedAt:  p.LastCheckedAt,
	}
}

func (r *PenaltyRepository) penaltyDaoToDomain(p dao.Penalty) domain.Penalty {
	return domain.Penalty{
		ID:             p.ID,
		TontineID:      p.TontineID,
		MemberID:       p.MemberID,
		ContributionID: p.ContributionID,
		Amount:         p.Amount,
		Type:           domain.PenaltyType(p.Type),
		Status:         p.Status,
		RetryCount:     p.RetryCount,
		LastCheckedAt:  p.LastCheckedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r *PenaltyRepository) Create(ctx context.Context, penalty domain.Penalty) (domain.Penalty, error) {
	created, err := r.dao.Create(ctx, r.penaltyDomainToDao(penalty))
	if err != nil {
		return domain.Penalty{}, err
	}

	return r.penaltyDaoToDomain(created), nil
}

func (r *PenaltyRepository) GetByID(ctx context.Context, id uint) (domain.Penalty, error) {
	penalty, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Penalty{}, err
	}

	return r.penaltyDaoToDomain(penalty), nil
}

func (r *PenaltyRepository) ListByMember(ctx context.Context, tontineID, memberID uint) ([]domain.Penalty, error) {
	penalties, err := r.dao.ListByMember(ctx, tontineID, memberID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Penalty, len(penalties))
	for i, p := range penalties {
		result[i] = r.penaltyDaoToDomain(p)
	}

	return result, nil
}

type PayPenaltyParams struct {
	PenaltyID uint
	FeeRate   float64
	Reference string
}

type PayPenaltyResult struct {
	Penalty domain.Penalty
	Gross   int64
	Fee     int64
	Net     int64
}

func (r *PenaltyRepository) Pay(ctx context.Context, p PayPenaltyParams, debit func(gross int64) error) (PayPenaltyResult, error) {
	result, err := r.dao.Pay(ctx, dao.PayPenaltyParams{
		PenaltyID: p.PenaltyID,
		FeeRate:   p.FeeRate,
		Reference: p.Reference,
	}, debit)
	if err != nil {
		return PayPenaltyResult{}, err
	}

	return PayPenaltyResult{
		Penalty: r.penaltyDaoToDomain(result.Penalty),
		Gross:   result.Gross,
		Fee:     result.Fee,
		Net:     result.Net,
	}, nil
}

func (r *PenaltyRepository) SelectForRetry(ctx context.Context, maxRetries int) ([]domain.Penalty, error) {
	penalties, err := r.dao.SelectForRetry(ctx, maxRetries)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Penalty, len(penalties))
	for i, p := range penalties {
		result[i] = r.penaltyDaoToDomain(p)
	}

	return result, nil
}
