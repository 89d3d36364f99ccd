package services

import "errors"

// Ошибки валидации и бизнес-правил. Репозиторные "не найдено" пробрасываются
// как есть, хендлеры маппят и те и другие на HTTP-статусы.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrForbidden        = errors.New("operation not allowed")

	// auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")

	// registrations
	ErrNewsNotRoomCreation  = errors.New("news is not a room-creation announcement")
	ErrAlreadyRegistered    = errors.New("user already registered for this news")
	ErrRegistrationAssigned = errors.New("registration already assigned to a room")

	// rooms
	ErrRoomFull         = errors.New("room is full")
	ErrRoomClosed       = errors.New("room is closed")
	ErrRoomScoresTied   = errors.New("scores are tied, winner cannot be determined")
	ErrRoomNotTeamKind  = errors.New("room is not a team tournament room")
	ErrRoomNotSimple    = errors.New("room is not a simple tournament room")
	ErrPlayerNotInRoom  = errors.New("player is not in the room")
	ErrPlayerAlreadyIn  = errors.New("player already in the room")
	ErrInviteNotPending = errors.New("invite is not pending")

	// teams
	ErrTeamRosterFull      = errors.New("team roster is full")
	ErrNotTeamCaptain      = errors.New("only the team captain can do this")
	ErrTeamInTournament    = errors.New("team is already in a tournament")
	ErrTeamNotInTournament = errors.New("team is not in this tournament")

	// tournaments
	ErrTournamentNotOngoing = errors.New("tournament is not ongoing")
	ErrTournamentFull       = errors.New("tournament team limit reached")
	ErrRoundNotComplete     = errors.New("current round has unfinished matches")
	ErrNoRoundWinners       = errors.New("current round produced no winners")
)
