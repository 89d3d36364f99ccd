package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchOngoing   MatchStatus = "ongoing"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

// Match — пара команд внутри раунда турнира. Создаётся ровно один раз,
// когда для пары открывается турнирная комната; завершается только вместе
// с закрытием этой комнаты.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	MatchNumber  int         `json:"match_number" db:"match_number"`
	Team1ID      int         `json:"team1_id" db:"team1_id"`
	Team2ID      int         `json:"team2_id" db:"team2_id"`
	Team1Score   int         `json:"team1_score" db:"team1_score"`
	Team2Score   int         `json:"team2_score" db:"team2_score"`
	BestOf       int         `json:"best_of" db:"best_of"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	LoserID      *int        `json:"loser_id,omitempty" db:"loser_id"`
	RoomID       *int        `json:"room_id,omitempty" db:"room_id"`
	StartedAt    *time.Time  `json:"started_at,omitempty" db:"started_at"`
	EndedAt      *time.Time  `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Team1  *Team `json:"team1,omitempty" db:"-"`
	Team2  *Team `json:"team2,omitempty" db:"-"`
	Winner *Team `json:"winner,omitempty" db:"-"`
}
