package models

import "time"

type RoomStatus string

const (
	RoomOpen    RoomStatus = "open"
	RoomOngoing RoomStatus = "ongoing"
	RoomClosed  RoomStatus = "closed"
)

// RoomKind выбирается один раз при создании комнаты и больше не меняется.
// От него зависит, как комната закрывается и кто считается победителем.
type RoomKind string

const (
	RoomPlain            RoomKind = "plain"
	RoomTeamTournament   RoomKind = "team_tournament"
	RoomSimpleTournament RoomKind = "simple_tournament"
)

type GameMode string

const (
	Mode5vs5     GameMode = "5vs5"
	ModeAram     GameMode = "aram"
	ModeDraft    GameMode = "draft"
	ModeMinigame GameMode = "minigame"
)

const (
	RoomMaxPlayers = 10
	RoomSideSize   = 5
)

// Room — игровая комната на две стороны по пять слотов.
// Side1/Side2 хранят ID игроков; для турнирных комнат команды и победитель
// лежат в соответствующем варианте (Tournament или Simple).
type Room struct {
	ID           int        `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description,omitempty" db:"description"`
	CreatedBy    int        `json:"created_by" db:"created_by"`
	NewsID       *int       `json:"news_id,omitempty" db:"news_id"`
	ScheduleTime time.Time  `json:"schedule_time" db:"schedule_time"`
	MaxPlayers   int        `json:"max_players" db:"max_players"`
	GameMode     GameMode   `json:"game_mode" db:"game_mode"`
	Kind         RoomKind   `json:"kind" db:"kind"`
	Status       RoomStatus `json:"status" db:"status"`

	Side1      []int64 `json:"team1" db:"team1"`
	Side2      []int64 `json:"team2" db:"team2"`
	Team1Score int     `json:"team1_score" db:"team1_score"`
	Team2Score int     `json:"team2_score" db:"team2_score"`
	BestOf     int     `json:"best_of" db:"best_of"`

	Tournament *TournamentRoomInfo   `json:"tournament,omitempty" db:"-"`
	Simple     *SimpleTournamentInfo `json:"simple,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Side1Users []User `json:"team1_users,omitempty" db:"-"`
	Side2Users []User `json:"team2_users,omitempty" db:"-"`
}

// TournamentRoomInfo — данные комнаты вида team_tournament.
type TournamentRoomInfo struct {
	TournamentID int  `json:"tournament_id" db:"tournament_id"`
	MatchID      *int `json:"match_id,omitempty" db:"match_id"`
	Round        int  `json:"round" db:"round"`
	Team1ID      int  `json:"team1_id" db:"team1_id"`
	Team2ID      int  `json:"team2_id" db:"team2_id"`
	WinnerTeamID *int `json:"winner_team_id,omitempty" db:"winner_team_id"`
}

// SimpleTournamentInfo — данные комнаты вида simple_tournament:
// турнирный матч без сущности Team, стороны различаются по названию.
type SimpleTournamentInfo struct {
	TournamentName string  `json:"tournament_name" db:"tournament_name"`
	Team1Name      string  `json:"team1_name" db:"team1_name"`
	Team2Name      string  `json:"team2_name" db:"team2_name"`
	WinnerName     *string `json:"winner_name,omitempty" db:"winner_name"`
}

// PlayerCount возвращает суммарное число игроков на обеих сторонах.
func (r *Room) PlayerCount() int {
	return len(r.Side1) + len(r.Side2)
}

// HasPlayer сообщает, занят ли игроком слот в любой из сторон.
func (r *Room) HasPlayer(userID int) bool {
	id := int64(userID)
	for _, p := range r.Side1 {
		if p == id {
			return true
		}
	}
	for _, p := range r.Side2 {
		if p == id {
			return true
		}
	}
	return false
}
