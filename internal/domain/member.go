package domain

import "time"

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

const (
	MemberPending   = "PENDING"
	MemberActive    = "ACTIVE"
	MemberRejected  = "REJECTED"
	MemberExcluded  = "EXCLUDED"
	MemberSuspended = "SUSPENDED"
)

// Member ties a user to a tontine. UserID is a weak reference into the
// accounts system; the tontine core never owns user records.
type Member struct {
	ID        uint
	TontineID uint
	UserID    uint
	Role      string
	Status    string
	JoinedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Member) IsActive() bool {
	return m.Status == MemberActive
}
