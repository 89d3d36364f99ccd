package models

import "time"

// NewsType определяет, что можно делать с новостью: обычное объявление,
// набор игроков в комнаты или анонс турнира.
type NewsType string

const (
	NewsAnnouncement NewsType = "announcement"
	NewsRoomCreation NewsType = "room-creation"
	NewsTournament   NewsType = "tournament"
)

type News struct {
	ID           int       `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content"`
	Type         NewsType  `json:"type" db:"type"`
	CreatedBy    int       `json:"created_by" db:"created_by"`
	TournamentID *int      `json:"tournament_id,omitempty" db:"tournament_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Author *User `json:"author,omitempty" db:"-"`
}
