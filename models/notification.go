package models

import "time"

type NotificationType string

const (
	NotificationRoomAssignment NotificationType = "room-assignment"
	NotificationCustomInvite   NotificationType = "custom-invite"
	NotificationGeneral        NotificationType = "general"
)

type Notification struct {
	ID        int              `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	RoomID    *int             `json:"room_id,omitempty" db:"room_id"`
	NewsID    *int             `json:"news_id,omitempty" db:"news_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
