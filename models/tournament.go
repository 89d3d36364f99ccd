package models

import "time"

type TournamentStatus string

const (
	TournamentDraft        TournamentStatus = "draft"
	TournamentRegistration TournamentStatus = "registration"
	TournamentOngoing      TournamentStatus = "ongoing"
	TournamentCompleted    TournamentStatus = "completed"
	TournamentCancelled    TournamentStatus = "cancelled"
)

// RoundWinners — победители одного раунда. Список для раунда N пишется
// целиком и только когда все матчи раунда завершены.
type RoundWinners struct {
	Round   int   `json:"round"`
	TeamIDs []int `json:"team_ids"`
}

type Tournament struct {
	ID            int              `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Description   *string          `json:"description,omitempty" db:"description"`
	GameType      string           `json:"game_type" db:"game_type"`
	GameMode      GameMode         `json:"game_mode" db:"game_mode"`
	DefaultBestOf int              `json:"default_best_of" db:"default_best_of"`
	MaxTeams      int              `json:"max_teams" db:"max_teams"`
	TeamSize      int              `json:"team_size" db:"team_size"`
	Status        TournamentStatus `json:"status" db:"status"`
	CurrentRound  int              `json:"current_round" db:"current_round"`
	ChampionID    *int             `json:"champion_id,omitempty" db:"champion_id"`
	CreatedBy     int              `json:"created_by" db:"created_by"`
	NewsID        *int             `json:"news_id,omitempty" db:"news_id"`
	StartDate     *time.Time       `json:"start_date,omitempty" db:"start_date"`
	EndDate       *time.Time       `json:"end_date,omitempty" db:"end_date"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`

	WinningTeamsByRound []RoundWinners `json:"winning_teams_by_round,omitempty" db:"-"`
	RegisteredTeams     []Team         `json:"registered_teams,omitempty" db:"-"`
	Champion            *Team          `json:"champion,omitempty" db:"-"`
	Matches             []Match        `json:"matches,omitempty" db:"-"`
}
