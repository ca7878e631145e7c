package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kolecto/tontine-api/internal/api/handler/v1/request"
	"github.com/kolecto/tontine-api/internal/api/handler/v1/response"
	"github.com/kolecto/tontine-api/internal/domain"
	"github.com/kolecto/tontine-api/internal/repository"
)

type PenaltyService interface {
	ApplyPenalty(ctx context.Context, tontineID, memberID, adminUserID uint, amount int64, penaltyType domain.PenaltyType, contributionID *uint) (domain.Penalty, error)
	PayPenalty(ctx context.Context, penaltyID, payerUserID uint) (repository.PayPenaltyResult, error)
	ListPenalties(ctx context.Context, tontineID, memberID uint) ([]domain.Penalty, error)
}

type PenaltyHandler struct {
	svc PenaltyService
}

func NewPenaltyHandler(svc PenaltyService) *PenaltyHandler {
	return &PenaltyHandler{
		svc: svc,
	}
}

// HandleApplyPenalty godoc
// @Summary      Apply a penalty to a member
// @Description  Only the tontine admin may sanction a member
// @Tags         penalties
// @Accept       json
// @Produce      json
// @Param        tontineID  path      int                          true  "Tontine ID"
// @Param        input      body      request.ApplyPenaltyRequest  true  "Penalty details"
// @Success      201        {object}  domain.Penalty
// @Failure      403        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      422        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/penalties [post]
func (h *PenaltyHandler) HandleApplyPenalty(ctx *gin.Context) {
	userID, respErr := callerID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ApplyPenaltyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrUnprocessableEntity(err))
		return
	}

	penalty, err := h.svc.ApplyPenalty(ctx.Request.Context(), tontineID, req.MemberID, userID, req.Amount, domain.PenaltyType(req.Type), req.ContributionID)
	if err != nil {
		err = fmt.Errorf("HandleApplyPenalty -> h.svc.ApplyPenalty -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusCreated, penalty)
}

// HandlePayPenalty godoc
// @Summary      Pay a penalty
// @Description  Debits the payer's wallet and credits the penalty amount to the tontine's escrow
// @Tags         penalties
// @Produce      json
// @Param        penaltyID  path      int  true  "Penalty ID"
// @Success      200        {object}  response.PenaltyPayment
// @Failure      402        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /penalties/{penaltyID}/pay [post]
func (h *PenaltyHandler) HandlePayPenalty(ctx *gin.Context) {
	userID, respErr := callerID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	penaltyID, respErr := pathID(ctx, "penaltyID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	result, err := h.svc.PayPenalty(ctx.Request.Context(), penaltyID, userID)
	if err != nil {
		err = fmt.Errorf("HandlePayPenalty -> h.svc.PayPenalty -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewPenaltyPayment(result))
}

// HandleListPenalties godoc
// @Summary      List a member's penalties
// @Tags         penalties
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Param        memberID   path      int  true  "Member ID"
// @Success      200        {array}   domain.Penalty
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/members/{memberID}/penalties [get]
func (h *PenaltyHandler) HandleListPenalties(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	memberID, respErr := pathID(ctx, "memberID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	penalties, err := h.svc.ListPenalties(ctx.Request.Context(), tontineID, memberID)
	if err != nil {
		err = fmt.Errorf("HandleListPenalties -> h.svc.ListPenalties -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, penalties)
}
