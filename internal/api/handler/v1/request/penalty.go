package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type ApplyPenaltyRequest struct {
	MemberID       uint   `json:"member_id"`
	Amount         int64  `json:"amount"`
	Type           string `json:"type"`
	ContributionID *uint  `json:"contribution_id,omitempty"`
}

func (req *ApplyPenaltyRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.MemberID, validation.Required, validation.Min(uint(1))),
		validation.Field(&req.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Type, validation.Required, validation.In("RETARD", "ABSENCE", "AUTRE")),
	)
}
