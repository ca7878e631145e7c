package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateTontineRequest struct {
	Name               string `json:"name"`
	RotationPolicy     string `json:"rotation_policy"`
	Frequency          string `json:"frequency"`
	ContributionAmount int64  `json:"contribution_amount"`
	FundingMode        string `json:"funding_mode"`
	MemberCount        int    `json:"member_count"`
}

func (req *CreateTontineRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.RotationPolicy, validation.Required, validation.In("FIXED", "RANDOM")),
		validation.Field(&req.Frequency, validation.Required, validation.In("DAILY", "WEEKLY", "MONTHLY")),
		validation.Field(&req.ContributionAmount, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.FundingMode, validation.In("AUTOMATIC", "MANUAL")),
		validation.Field(&req.MemberCount, validation.Required, validation.Min(2)),
	)
}

type ReviewMembershipRequest struct {
	Approve *bool `json:"approve"`
}

func (req *ReviewMembershipRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Approve, validation.NotNil),
	)
}

type GenerateRotationRequest struct {
	Order []uint `json:"order"`
}

func (req *GenerateRotationRequest) Validate() error {
	// An empty order is valid for RANDOM tontines; the service decides.
	return nil
}

type EscrowMovementRequest struct {
	Amount int64 `json:"amount"`
}

func (req *EscrowMovementRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Amount, validation.Required, validation.Min(int64(1))),
	)
}
