package v1

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kolecto/tontine-api/internal/api/handler/v1/response"
	"github.com/kolecto/tontine-api/internal/service"
	"github.com/kolecto/tontine-api/pkg/walletclient"
)

// callerID reads the authenticated user id the upstream gateway sets. The
// tontine API itself performs no authentication.
func callerID(ctx *gin.Context) (uint, *response.Err) {
	raw := ctx.GetHeader("X-User-ID")
	if raw == "" {
		return 0, response.ErrForbidden("missing X-User-ID header")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrForbidden("invalid X-User-ID header")
	}

	return uint(id), nil
}

func pathID(ctx *gin.Context, name string) (uint, *response.Err) {
	raw := ctx.Param(name)

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(errors.New("invalid " + name + " path parameter"))
	}

	return uint(id), nil
}

// mapServiceError translates the service-layer sentinels into the HTTP error
// envelope. Unknown errors become 500s and are logged there.
func mapServiceError(err error) *response.Err {
	switch {
	case errors.Is(err, service.ErrTontineNotFound):
		return response.NewNotFound("tontine")
	case errors.Is(err, service.ErrMemberNotFound):
		return response.NewNotFound("member")
	case errors.Is(err, service.ErrContributionNotFound):
		return response.NewNotFound("contribution")
	case errors.Is(err, service.ErrPenaltyNotFound):
		return response.NewNotFound("penalty")
	case errors.Is(err, walletclient.ErrAccountNotFound):
		return response.NewNotFound("wallet account")
	case errors.Is(err, service.ErrNotAdmin),
		errors.Is(err, service.ErrMemberMismatch):
		return response.ErrForbidden(err.Error())
	case errors.Is(err, service.ErrInvalidRotationInput),
		errors.Is(err, service.ErrUnsupportedPolicy),
		errors.Is(err, service.ErrUnsupportedFrequency),
		errors.Is(err, service.ErrInvalidPenaltyType),
		errors.Is(err, service.ErrInvalidAmount):
		return response.ErrUnprocessableEntity(err)
	case errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrTontineFull),
		errors.Is(err, service.ErrMemberNotPending),
		errors.Is(err, service.ErrRotationExists),
		errors.Is(err, service.ErrRotationFinalized),
		errors.Is(err, service.ErrNoPendingRound),
		errors.Is(err, service.ErrNothingContributed),
		errors.Is(err, service.ErrInsufficientEscrow),
		errors.Is(err, service.ErrEscrowBlocked),
		errors.Is(err, service.ErrContributionClosed),
		errors.Is(err, service.ErrTontineNotActive),
		errors.Is(err, service.ErrGroupBlocked):
		return response.ErrConflict(err.Error())
	case errors.Is(err, walletclient.ErrInsufficientFunds):
		return response.ErrPaymentRequired(err.Error())
	default:
		return response.ErrInternalServerError(err)
	}
}
