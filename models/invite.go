package models

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteApproved InviteStatus = "approved"
	InviteRejected InviteStatus = "rejected"
)

// RoomInvite — приглашение игрока в комнату. На пару (room, user)
// допускается не больше одного pending-приглашения.
type RoomInvite struct {
	ID        int          `json:"id" db:"id"`
	RoomID    int          `json:"room_id" db:"room_id"`
	UserID    int          `json:"user_id" db:"user_id"`
	InvitedBy int          `json:"invited_by" db:"invited_by"`
	Status    InviteStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`

	User    *User `json:"user,omitempty" db:"-"`
	Inviter *User `json:"inviter,omitempty" db:"-"`
}
