package models

import "time"

type TeamTournamentStatus string

const (
	TeamRegistered TeamTournamentStatus = "registered"
	TeamActive     TeamTournamentStatus = "active"
	TeamEliminated TeamTournamentStatus = "eliminated"
	TeamWinner     TeamTournamentStatus = "winner"
)

type TeamMemberRole string

const (
	MemberCaptain    TeamMemberRole = "captain"
	MemberPlayer     TeamMemberRole = "player"
	MemberSubstitute TeamMemberRole = "substitute"
)

type TeamMember struct {
	UserID   int            `json:"user_id" db:"user_id"`
	Role     TeamMemberRole `json:"role" db:"role"`
	Position string         `json:"position" db:"position"`
	JoinedAt time.Time      `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

type Team struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Tag         *string `json:"tag,omitempty" db:"tag"`
	Description *string `json:"description,omitempty" db:"description"`
	CaptainID   int     `json:"captain_id" db:"captain_id"`
	CreatedBy   int     `json:"created_by" db:"created_by"`

	TournamentID     *int                 `json:"tournament_id,omitempty" db:"tournament_id"`
	TournamentStatus TeamTournamentStatus `json:"tournament_status" db:"tournament_status"`
	MatchesWon       int                  `json:"matches_won" db:"matches_won"`
	MatchesLost      int                  `json:"matches_lost" db:"matches_lost"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
	Captain *User        `json:"captain,omitempty" db:"-"`
}
