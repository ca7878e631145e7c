package dao

import "time"

type Tontine struct {
	ID                 uint   `gorm:"primaryKey"`
	Name               string `gorm:"not null"`
	RotationPolicy     string `gorm:"not null"`
	Frequency          string `gorm:"not null"`
	ContributionAmount int64  `gorm:"not null"`
	FundingMode        string `gorm:"not null;default:MANUAL"`
	MemberCount        int    `gorm:"not null"`
	Status             string `gorm:"not null;default:ACTIVE"`
	LastReminderAt     *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Tontine) TableName() string {
	return "tontines"
}

type Member struct {
	ID        uint   `gorm:"primaryKey"`
	TontineID uint   `gorm:"not null;index;uniqueIndex:uniq_tontine_user"`
	UserID    uint   `gorm:"not null;uniqueIndex:uniq_tontine_user"`
	Role      string `gorm:"not null;default:MEMBER"`
	Status    string `gorm:"not null;default:PENDING"`
	JoinedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Member) TableName() string {
	return "members"
}

type Round struct {
	ID                uint   `gorm:"primaryKey"`
	TontineID         uint   `gorm:"not null;uniqueIndex:uniq_tontine_sequence;uniqueIndex:uniq_tontine_beneficiary"`
	Sequence          int    `gorm:"not null;uniqueIndex:uniq_tontine_sequence"`
	BeneficiaryID     uint   `gorm:"not null;uniqueIndex:uniq_tontine_beneficiary"`
	Status            string `gorm:"not null;default:PENDING"`
	DistributedAmount int64  `gorm:"not null;default:0"`
	DistributedAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Round) TableName() string {
	return "rounds"
}

type Contribution struct {
	ID        uint   `gorm:"primaryKey"`
	RoundID   uint   `gorm:"not null;uniqueIndex:uniq_round_member"`
	MemberID  uint   `gorm:"not null;uniqueIndex:uniq_round_member"`
	Amount    int64  `gorm:"not null"`
	Status    string `gorm:"not null;default:PENDING"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Contribution) TableName() string {
	return "contributions"
}

type EscrowAccount struct {
	ID             uint   `gorm:"primaryKey"`
	TontineID      uint   `gorm:"not null;uniqueIndex"`
	Balance        int64  `gorm:"not null;default:0"`
	Status         string `gorm:"not null;default:ACTIVE"`
	LastMovementAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (EscrowAccount) TableName() string {
	return "escrow_accounts"
}

type Penalty struct {
	ID             uint `gorm:"primaryKey"`
	TontineID      uint `gorm:"not null;index"`
	MemberID       uint `gorm:"not null;index"`
	ContributionID *uint
	Amount         int64  `gorm:"not null"`
	Type           string `gorm:"not null"`
	Status         string `gorm:"not null;default:UNPAID"`
	RetryCount     int    `gorm:"not null;default:0"`
	LastCheckedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Penalty) TableName() string {
	return "penalties"
}

type LedgerTransaction struct {
	ID          uint   `gorm:"primaryKey"`
	TontineID   uint   `gorm:"not null;index"`
	MemberID    uint   `gorm:"not null"`
	Reference   string `gorm:"not null;uniqueIndex"`
	Kind        string `gorm:"not null"`
	GrossAmount int64  `gorm:"not null"`
	FeeAmount   int64  `gorm:"not null"`
	NetAmount   int64  `gorm:"not null"`
	CreatedAt   time.Time
}

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}
