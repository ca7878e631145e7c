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

type TontineService interface {
	CreateTontine(ctx context.Context, tontine domain.Tontine, creatorUserID uint) (domain.Tontine, error)
	GetTontine(ctx context.Context, id uint) (domain.Tontine, error)
	GetEscrow(ctx context.Context, tontineID uint) (domain.EscrowAccount, error)
	ListMembers(ctx context.Context, tontineID uint) ([]domain.Member, error)
	ListRounds(ctx context.Context, tontineID uint) ([]domain.Round, error)
	ListContributions(ctx context.Context, roundID uint) ([]domain.Contribution, error)
	ListLedger(ctx context.Context, tontineID uint) ([]domain.LedgerTransaction, error)
	RequestMembership(ctx context.Context, tontineID, userID uint) (domain.Member, error)
	ReviewMembership(ctx context.Context, tontineID, memberID, reviewerUserID uint, approve bool) error
	ExcludeMember(ctx context.Context, tontineID, memberID, adminUserID uint) error
	SuspendMember(ctx context.Context, tontineID, memberID, adminUserID uint) error
	SuspendTontine(ctx context.Context, tontineID, adminUserID uint) error
	GenerateRotation(ctx context.Context, tontineID, requesterUserID uint, order []uint) ([]domain.Round, error)
	NextBeneficiary(ctx context.Context, tontineID uint) (domain.Member, error)
	PayContribution(ctx context.Context, tontineID, memberID, contributionID, payerUserID uint) (repository.ValidateContributionResult, error)
	Distribute(ctx context.Context, tontineID uint) (repository.DistributeResult, error)
	Deposit(ctx context.Context, tontineID, adminUserID uint, amount int64) error
	Withdraw(ctx context.Context, tontineID, adminUserID uint, amount int64) error
}

type TontineHandler struct {
	svc TontineService
}

func NewTontineHandler(svc TontineService) *TontineHandler {
	return &TontineHandler{
		svc: svc,
	}
}

// HandleCreateTontine godoc
// @Summary      Create a tontine
// @Description  Creates a tontine with the caller as its admin, plus a fresh escrow account
// @Tags         tontines
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateTontineRequest  true  "Tontine details"
// @Success      201    {object}  domain.Tontine
// @Failure      400    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /tontines [post]
func (h *TontineHandler) HandleCreateTontine(ctx *gin.Context) {
	userID, respErr := callerID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateTontineRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrUnprocessableEntity(err))
		return
	}

	tontine, err := h.svc.CreateTontine(ctx.Request.Context(), domain.Tontine{
		Name:               req.Name,
		RotationPolicy:     domain.RotationPolicy(req.RotationPolicy),
		Frequency:          domain.Frequency(req.Frequency),
		ContributionAmount: req.ContributionAmount,
		FundingMode:        domain.FundingMode(req.FundingMode),
		MemberCount:        req.MemberCount,
	}, userID)
	if err != nil {
		err = fmt.Errorf("HandleCreateTontine -> h.svc.CreateTontine -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusCreated, tontine)
}

// HandleGetTontine godoc
// @Summary      Get a tontine
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      200        {object}  domain.Tontine
// @Failure      404        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID} [get]
func (h *TontineHandler) HandleGetTontine(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tontine, err := h.svc.GetTontine(ctx.Request.Context(), tontineID)
	if err != nil {
		err = fmt.Errorf("HandleGetTontine -> h.svc.GetTontine -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, tontine)
}

// HandleGetEscrow godoc
// @Summary      Get a tontine's escrow account
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      200        {object}  response.Escrow
// @Failure      404        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/escrow [get]
func (h *TontineHandler) HandleGetEscrow(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	escrow, err := h.svc.GetEscrow(ctx.Request.Context(), tontineID)
	if err != nil {
		err = fmt.Errorf("HandleGetEscrow -> h.svc.GetEscrow -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewEscrow(escrow))
}

// HandleListMembers godoc
// @Summary      List a tontine's members
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      200        {array}   domain.Member
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/members [get]
func (h *TontineHandler) HandleListMembers(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	members, err := h.svc.ListMembers(ctx.Request.Context(), tontineID)
	if err != nil {
		err = fmt.Errorf("HandleListMembers -> h.svc.ListMembers -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, members)
}

// HandleRequestMembership godoc
// @Summary      Request to join a tontine
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      201        {object}  domain.Member
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/members [post]
func (h *TontineHandler) HandleRequestMembership(ctx *gin.Context) {
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

	member, err := h.svc.RequestMembership(ctx.Request.Context(), tontineID, userID)
	if err != nil {
		err = fmt.Errorf("HandleRequestMembership -> h.svc.RequestMembership -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusCreated, member)
}

// HandleReviewMembership godoc
// @Summary      Approve or reject a membership request
// @Description  Only the tontine admin may review; a request is resolved exactly once
// @Tags         tontines
// @Accept       json
// @Produce      json
// @Param        tontineID  path      int                              true  "Tontine ID"
// @Param        memberID   path      int                              true  "Member ID"
// @Param        input      body      request.ReviewMembershipRequest  true  "Review decision"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tontines/{tontineID}/members/{memberID}/review [post]
func (h *TontineHandler) HandleReviewMembership(ctx *gin.Context) {
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
	memberID, respErr := pathID(ctx, "memberID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ReviewMembershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrUnprocessableEntity(err))
		return
	}

	err := h.svc.ReviewMembership(ctx.Request.Context(), tontineID, memberID, userID, *req.Approve)
	if err != nil {
		err = fmt.Errorf("HandleReviewMembership -> h.svc.ReviewMembership -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleExcludeMember godoc
// @Summary      Exclude a member
// @Description  Removes an active member; impossible once the rotation is finalized
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path  int  true  "Tontine ID"
// @Param        memberID   path  int  true  "Member ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tontines/{tontineID}/members/{memberID} [delete]
func (h *TontineHandler) HandleExcludeMember(ctx *gin.Context) {
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
	memberID, respErr := pathID(ctx, "memberID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.ExcludeMember(ctx.Request.Context(), tontineID, memberID, userID); err != nil {
		err = fmt.Errorf("HandleExcludeMember -> h.svc.ExcludeMember -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleSuspendMember godoc
// @Summary      Suspend a member
// @Description  Pauses an active member; allowed even after the rotation is finalized
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path  int  true  "Tontine ID"
// @Param        memberID   path  int  true  "Member ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tontines/{tontineID}/members/{memberID}/suspend [post]
func (h *TontineHandler) HandleSuspendMember(ctx *gin.Context) {
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
	memberID, respErr := pathID(ctx, "memberID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.SuspendMember(ctx.Request.Context(), tontineID, memberID, userID); err != nil {
		err = fmt.Errorf("HandleSuspendMember -> h.svc.SuspendMember -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleSuspendTontine godoc
// @Summary      Suspend a tontine
// @Description  Blocks payments and distributions until the group is reinstated
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path  int  true  "Tontine ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tontines/{tontineID}/suspend [post]
func (h *TontineHandler) HandleSuspendTontine(ctx *gin.Context) {
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

	if err := h.svc.SuspendTontine(ctx.Request.Context(), tontineID, userID); err != nil {
		err = fmt.Errorf("HandleSuspendTontine -> h.svc.SuspendTontine -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleGenerateRotation godoc
// @Summary      Finalize the rotation order
// @Description  Materializes all rounds and contribution rows. FIXED tontines take the explicit order; RANDOM tontines shuffle once.
// @Tags         tontines
// @Accept       json
// @Produce      json
// @Param        tontineID  path      int                              true  "Tontine ID"
// @Param        input      body      request.GenerateRotationRequest  true  "Beneficiary order (FIXED only)"
// @Success      201        {array}   domain.Round
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Failure      422        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/rotation [post]
func (h *TontineHandler) HandleGenerateRotation(ctx *gin.Context) {
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

	var req request.GenerateRotationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	rounds, err := h.svc.GenerateRotation(ctx.Request.Context(), tontineID, userID, req.Order)
	if err != nil {
		err = fmt.Errorf("HandleGenerateRotation -> h.svc.GenerateRotation -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusCreated, rounds)
}

// HandleListRounds godoc
// @Summary      List a tontine's rounds
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      200        {array}   domain.Round
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/rounds [get]
func (h *TontineHandler) HandleListRounds(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rounds, err := h.svc.ListRounds(ctx.Request.Context(), tontineID)
	if err != nil {
		err = fmt.Errorf("HandleListRounds -> h.svc.ListRounds -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, rounds)
}

// HandleNextBeneficiary godoc
// @Summary      Get the next beneficiary
// @Description  The member designated by the earliest pending round
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      200        {object}  domain.Member
// @Failure      409        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/beneficiary [get]
func (h *TontineHandler) HandleNextBeneficiary(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	member, err := h.svc.NextBeneficiary(ctx.Request.Context(), tontineID)
	if err != nil {
		err = fmt.Errorf("HandleNextBeneficiary -> h.svc.NextBeneficiary -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, member)
}

// HandleListContributions godoc
// @Summary      List a round's contributions
// @Tags         rounds
// @Produce      json
// @Param        roundID  path      int  true  "Round ID"
// @Success      200      {array}   domain.Contribution
// @Failure      500      {object}  response.Err
// @Router       /rounds/{roundID}/contributions [get]
func (h *TontineHandler) HandleListContributions(ctx *gin.Context) {
	roundID, respErr := pathID(ctx, "roundID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	contributions, err := h.svc.ListContributions(ctx.Request.Context(), roundID)
	if err != nil {
		err = fmt.Errorf("HandleListContributions -> h.svc.ListContributions -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, contributions)
}

// HandlePayContribution godoc
// @Summary      Pay a contribution
// @Description  Debits the caller's wallet for the gross amount and credits escrow with the net contribution, atomically
// @Tags         tontines
// @Produce      json
// @Param        tontineID       path      int  true  "Tontine ID"
// @Param        memberID        path      int  true  "Member ID"
// @Param        contributionID  path      int  true  "Contribution ID"
// @Success      200             {object}  response.ContributionPayment
// @Failure      402             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /tontines/{tontineID}/members/{memberID}/contributions/{contributionID}/pay [post]
func (h *TontineHandler) HandlePayContribution(ctx *gin.Context) {
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
	memberID, respErr := pathID(ctx, "memberID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	contributionID, respErr := pathID(ctx, "contributionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	result, err := h.svc.PayContribution(ctx.Request.Context(), tontineID, memberID, contributionID, userID)
	if err != nil {
		err = fmt.Errorf("HandlePayContribution -> h.svc.PayContribution -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewContributionPayment(result))
}

// HandleDistribute godoc
// @Summary      Distribute the earliest pending round
// @Description  Pays the collected pool, minus the distribution fee, to the round's beneficiary
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      200        {object}  response.Distribution
// @Failure      409        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/distribute [post]
func (h *TontineHandler) HandleDistribute(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	result, err := h.svc.Distribute(ctx.Request.Context(), tontineID)
	if err != nil {
		err = fmt.Errorf("HandleDistribute -> h.svc.Distribute -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewDistribution(result))
}

// HandleDeposit godoc
// @Summary      Administrative escrow deposit
// @Tags         tontines
// @Accept       json
// @Produce      json
// @Param        tontineID  path  int                            true  "Tontine ID"
// @Param        input      body  request.EscrowMovementRequest  true  "Amount"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tontines/{tontineID}/escrow/deposit [post]
func (h *TontineHandler) HandleDeposit(ctx *gin.Context) {
	h.handleEscrowMovement(ctx, h.svc.Deposit)
}

// HandleWithdraw godoc
// @Summary      Administrative escrow withdrawal
// @Tags         tontines
// @Accept       json
// @Produce      json
// @Param        tontineID  path  int                            true  "Tontine ID"
// @Param        input      body  request.EscrowMovementRequest  true  "Amount"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /tontines/{tontineID}/escrow/withdraw [post]
func (h *TontineHandler) HandleWithdraw(ctx *gin.Context) {
	h.handleEscrowMovement(ctx, h.svc.Withdraw)
}

func (h *TontineHandler) handleEscrowMovement(ctx *gin.Context, move func(ctx context.Context, tontineID, adminUserID uint, amount int64) error) {
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

	var req request.EscrowMovementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrUnprocessableEntity(err))
		return
	}

	if err := move(ctx.Request.Context(), tontineID, userID, req.Amount); err != nil {
		err = fmt.Errorf("handleEscrowMovement -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListLedger godoc
// @Summary      List a tontine's ledger transactions
// @Tags         tontines
// @Produce      json
// @Param        tontineID  path      int  true  "Tontine ID"
// @Success      200        {array}   domain.LedgerTransaction
// @Failure      500        {object}  response.Err
// @Router       /tontines/{tontineID}/ledger [get]
func (h *TontineHandler) HandleListLedger(ctx *gin.Context) {
	tontineID, respErr := pathID(ctx, "tontineID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactions, err := h.svc.ListLedger(ctx.Request.Context(), tontineID)
	if err != nil {
		err = fmt.Errorf("HandleListLedger -> h.svc.ListLedger -> %w", err)
		response.RenderErr(ctx, mapServiceError(err))
		return
	}

	ctx.JSON(http.StatusOK, transactions)
}
