package models

import "time"

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
	RegistrationAssigned RegistrationStatus = "assigned"
)

// Registration — заявка игрока на новость типа room-creation.
// Уникальна по паре (user, news). RoomID выставляется только батчером
// при распределении по комнатам.
type Registration struct {
	ID         int                `json:"id" db:"id"`
	UserID     int                `json:"user_id" db:"user_id"`
	NewsID     *int               `json:"news_id,omitempty" db:"news_id"`
	RoomID     *int               `json:"room_id,omitempty" db:"room_id"`
	IngameName string             `json:"ingame_name" db:"ingame_name"`
	Lane       string             `json:"lane" db:"lane"`
	Rank       string             `json:"rank" db:"rank"`
	Status     RegistrationStatus `json:"status" db:"status"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
