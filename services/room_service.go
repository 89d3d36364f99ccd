package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/realtime"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
)

type CreateRoomInput struct {
	Title        string          `json:"title"`
	Description  *string         `json:"description,omitempty"`
	ScheduleTime time.Time       `json:"schedule_time"`
	GameMode     models.GameMode `json:"game_mode"`
	Kind         models.RoomKind `json:"kind"`
	BestOf       int             `json:"best_of"`

	// team_tournament
	TournamentID *int `json:"tournament_id,omitempty"`
	Round        *int `json:"round,omitempty"`
	Team1ID      *int `json:"team1_id,omitempty"`
	Team2ID      *int `json:"team2_id,omitempty"`

	// simple_tournament
	TournamentName *string `json:"tournament_name,omitempty"`
	Team1Name      *string `json:"team1_name,omitempty"`
	Team2Name      *string `json:"team2_name,omitempty"`
}

type UpdateRoomInput struct {
	Title        *string            `json:"title,omitempty"`
	Description  *string            `json:"description,omitempty"`
	ScheduleTime *time.Time         `json:"schedule_time,omitempty"`
	GameMode     *models.GameMode   `json:"game_mode,omitempty"`
	Team1Score   *int               `json:"team1_score,omitempty"`
	Team2Score   *int               `json:"team2_score,omitempty"`
	Status       *models.RoomStatus `json:"status,omitempty"`
}

type FinishMatchInput struct {
	Team1Score int `json:"team1_score"`
	Team2Score int `json:"team2_score"`

	// Явный победитель: при ничейном счёте вывести его из счёта нельзя,
	// поэтому вызывающий может назвать сторону сам.
	WinningTeamID   *int    `json:"winning_team_id,omitempty"`
	WinningTeamName *string `json:"winning_team_name,omitempty"`
}

type RoomList struct {
	Items []*models.Room `json:"items"`
	Total int            `json:"total"`
}

type RoomService interface {
	Create(ctx context.Context, creatorID int, input CreateRoomInput) (*models.Room, error)
	GetByID(ctx context.Context, id int) (*models.Room, error)
	List(ctx context.Context, filter repositories.RoomFilter) (*RoomList, error)
	ListByNews(ctx context.Context, newsID int) ([]*models.Room, error)
	Update(ctx context.Context, id int, input UpdateRoomInput) (*models.Room, error)
	Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error

	Join(ctx context.Context, roomID, userID, side int) (*models.Room, error)
	Leave(ctx context.Context, roomID, userID int) (*models.Room, error)
	RemovePlayer(ctx context.Context, roomID, targetID, actorID int, actorRole models.UserRole) (*models.Room, error)
	Rebalance(ctx context.Context, roomID, actorID int, actorRole models.UserRole) (*models.Room, error)

	InvitePlayer(ctx context.Context, roomID, userID, actorID int) (*models.RoomInvite, error)
	RespondInvite(ctx context.Context, inviteID, userID int, accept bool) (*models.RoomInvite, error)
	ListInvites(ctx context.Context, roomID int) ([]*models.RoomInvite, error)

	// FinishTournamentMatch закрывает team_tournament-комнату: выводит победителя
	// из счёта, завершает матч и обновляет рекорды обеих команд.
	FinishTournamentMatch(ctx context.Context, roomID int, input FinishMatchInput) (*models.Room, error)

	// FinishSimpleTournament закрывает simple_tournament-комнату, фиксируя
	// название победившей стороны.
	FinishSimpleTournament(ctx context.Context, roomID int, input FinishMatchInput) (*models.Room, error)
}

type roomService struct {
	roomRepo         repositories.RoomRepository
	matchRepo        repositories.MatchRepository
	tournamentRepo   repositories.TournamentRepository
	userRepo         repositories.UserRepository
	inviteRepo       repositories.InviteRepository
	notificationRepo repositories.NotificationRepository
	teams            TeamService
	events           realtime.EventSink
	logger           *slog.Logger
}

func NewRoomService(
	roomRepo repositories.RoomRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	inviteRepo repositories.InviteRepository,
	notificationRepo repositories.NotificationRepository,
	teams TeamService,
	events realtime.EventSink,
	logger *slog.Logger,
) RoomService {
	return &roomService{
		roomRepo:         roomRepo,
		matchRepo:        matchRepo,
		tournamentRepo:   tournamentRepo,
		userRepo:         userRepo,
		inviteRepo:       inviteRepo,
		notificationRepo: notificationRepo,
		teams:            teams,
		events:           events,
		logger:           logger,
	}
}

// decideWinner выводит победившую сторону из счёта.
// Сторона побеждает, добрав нужное число побед для best-of, либо просто
// ведя в счёте на момент закрытия. Ничья закрытию не подлежит.
func decideWinner(team1Score, team2Score, bestOf int) (int, error) {
	winsNeeded := bestOf/2 + 1

	switch {
	case team1Score >= winsNeeded:
		return 1, nil
	case team2Score >= winsNeeded:
		return 2, nil
	case team1Score > team2Score:
		return 1, nil
	case team2Score > team1Score:
		return 2, nil
	}
	return 0, ErrRoomScoresTied
}

func (s *roomService) Create(ctx context.Context, creatorID int, input CreateRoomInput) (*models.Room, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.BestOf <= 0 {
		input.BestOf = 1
	}
	if input.BestOf%2 == 0 {
		return nil, fmt.Errorf("%w: best_of must be odd", ErrValidationFailed)
	}
	if input.GameMode == "" {
		input.GameMode = models.Mode5vs5
	}

	room := &models.Room{
		Title:        input.Title,
		Description:  input.Description,
		CreatedBy:    creatorID,
		ScheduleTime: input.ScheduleTime,
		MaxPlayers:   models.RoomMaxPlayers,
		GameMode:     input.GameMode,
		Kind:         input.Kind,
		Status:       models.RoomOpen,
		Side1:        []int64{},
		Side2:        []int64{},
		BestOf:       input.BestOf,
	}

	switch input.Kind {
	case models.RoomPlain:
		// Обычная комната: создатель сразу занимает слот на первой стороне.
		room.Side1 = []int64{int64(creatorID)}

	case models.RoomTeamTournament:
		if input.TournamentID == nil || input.Team1ID == nil || input.Team2ID == nil {
			return nil, fmt.Errorf("%w: tournament_id, team1_id and team2_id are required", ErrValidationFailed)
		}
		if *input.Team1ID == *input.Team2ID {
			return nil, fmt.Errorf("%w: a team cannot play against itself", ErrValidationFailed)
		}
		info, err := s.prepareTournamentRoom(ctx, input)
		if err != nil {
			return nil, err
		}
		room.Tournament = info

	case models.RoomSimpleTournament:
		if input.TournamentName == nil || input.Team1Name == nil || input.Team2Name == nil {
			return nil, fmt.Errorf("%w: tournament_name, team1_name and team2_name are required", ErrValidationFailed)
		}
		room.Simple = &models.SimpleTournamentInfo{
			TournamentName: *input.TournamentName,
			Team1Name:      *input.Team1Name,
			Team2Name:      *input.Team2Name,
		}

	default:
		return nil, fmt.Errorf("%w: unknown room kind %q", ErrValidationFailed, input.Kind)
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	// Связываем матч с комнатой после того, как у комнаты появился ID.
	if room.Kind == models.RoomTeamTournament && room.Tournament.MatchID != nil {
		if err := s.matchRepo.AttachRoom(ctx, *room.Tournament.MatchID, room.ID); err != nil {
			s.logger.Error("failed to attach match to room",
				"match_id", *room.Tournament.MatchID, "room_id", room.ID, "error", err)
		}
	}

	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomCreated, room)
	return room, nil
}

// prepareTournamentRoom проверяет турнир и команды и находит либо создаёт матч
// пары. На пару команд в раунде существует ровно один матч.
func (s *roomService) prepareTournamentRoom(ctx context.Context, input CreateRoomInput) (*models.TournamentRoomInfo, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, *input.TournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentOngoing {
		return nil, ErrTournamentNotOngoing
	}

	round := tournament.CurrentRound
	if input.Round != nil {
		round = *input.Round
	}

	info := &models.TournamentRoomInfo{
		TournamentID: tournament.ID,
		Round:        round,
		Team1ID:      *input.Team1ID,
		Team2ID:      *input.Team2ID,
	}

	match, err := s.matchRepo.FindByPair(ctx, tournament.ID, round, info.Team1ID, info.Team2ID)
	if err != nil {
		if !errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, err
		}
		_, total, countErr := s.matchRepo.CountByRound(ctx, tournament.ID, round)
		if countErr != nil {
			return nil, countErr
		}
		now := time.Now()
		match = &models.Match{
			TournamentID: tournament.ID,
			Round:        round,
			MatchNumber:  total + 1,
			Team1ID:      info.Team1ID,
			Team2ID:      info.Team2ID,
			BestOf:       input.BestOf,
			Status:       models.MatchOngoing,
			StartedAt:    &now,
		}
		if createErr := s.matchRepo.Create(ctx, match); createErr != nil {
			return nil, createErr
		}
	}
	info.MatchID = &match.ID
	return info, nil
}

func (s *roomService) GetByID(ctx context.Context, id int) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachPlayers(ctx, room)
	return room, nil
}

func (s *roomService) List(ctx context.Context, filter repositories.RoomFilter) (*RoomList, error) {
	items, err := s.roomRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	total, err := s.roomRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count rooms: %w", err)
	}
	return &RoomList{Items: items, Total: total}, nil
}

func (s *roomService) ListByNews(ctx context.Context, newsID int) ([]*models.Room, error) {
	return s.roomRepo.ListByNews(ctx, newsID)
}

func (s *roomService) Update(ctx context.Context, id int, input UpdateRoomInput) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.Status == models.RoomClosed {
		return nil, ErrRoomClosed
	}

	if input.Title != nil {
		room.Title = *input.Title
	}
	if input.Description != nil {
		room.Description = input.Description
	}
	if input.ScheduleTime != nil {
		room.ScheduleTime = *input.ScheduleTime
	}
	if input.GameMode != nil {
		room.GameMode = *input.GameMode
	}
	if input.Team1Score != nil {
		room.Team1Score = *input.Team1Score
	}
	if input.Team2Score != nil {
		room.Team2Score = *input.Team2Score
	}

	if input.Status != nil && *input.Status != room.Status {
		if *input.Status == models.RoomClosed {
			// Закрытие турнирной комнаты — это финализация матча:
			// победитель выводится из текущего счёта.
			switch room.Kind {
			case models.RoomTeamTournament:
				return s.finalizeTeamRoom(ctx, room, nil)
			case models.RoomSimpleTournament:
				return s.finalizeSimpleRoom(ctx, room, nil)
			}
		}
		room.Status = *input.Status
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomUpdated, room)
	return room, nil
}

func (s *roomService) Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if room.CreatedBy != actorID && actorRole == models.RoleMember {
		return ErrForbidden
	}
	if err := s.roomRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomDeleted, map[string]int{"id": id})
	return nil
}

func (s *roomService) Join(ctx context.Context, roomID, userID, side int) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomOpen {
		return nil, ErrRoomClosed
	}
	if room.HasPlayer(userID) {
		return nil, ErrPlayerAlreadyIn
	}
	if room.PlayerCount() >= room.MaxPlayers {
		return nil, ErrRoomFull
	}

	// Сторона 0 означает "куда есть место", с перевесом в первую.
	switch side {
	case 1:
		if len(room.Side1) >= models.RoomSideSize {
			return nil, ErrRoomFull
		}
		room.Side1 = append(room.Side1, int64(userID))
	case 2:
		if len(room.Side2) >= models.RoomSideSize {
			return nil, ErrRoomFull
		}
		room.Side2 = append(room.Side2, int64(userID))
	default:
		if len(room.Side1) <= len(room.Side2) && len(room.Side1) < models.RoomSideSize {
			room.Side1 = append(room.Side1, int64(userID))
		} else if len(room.Side2) < models.RoomSideSize {
			room.Side2 = append(room.Side2, int64(userID))
		} else {
			return nil, ErrRoomFull
		}
	}

	if err := s.roomRepo.UpdateSides(ctx, roomID, room.Side1, room.Side2); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomUpdated, room)
	return room, nil
}

func (s *roomService) Leave(ctx context.Context, roomID, userID int) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasPlayer(userID) {
		return nil, ErrPlayerNotInRoom
	}

	room.Side1 = removePlayer(room.Side1, userID)
	room.Side2 = removePlayer(room.Side2, userID)

	if err := s.roomRepo.UpdateSides(ctx, roomID, room.Side1, room.Side2); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomUpdated, room)
	return room, nil
}

func (s *roomService) RemovePlayer(ctx context.Context, roomID, targetID, actorID int, actorRole models.UserRole) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.CreatedBy != actorID && actorRole == models.RoleMember {
		return nil, ErrForbidden
	}
	if !room.HasPlayer(targetID) {
		return nil, ErrPlayerNotInRoom
	}

	room.Side1 = removePlayer(room.Side1, targetID)
	room.Side2 = removePlayer(room.Side2, targetID)

	if err := s.roomRepo.UpdateSides(ctx, roomID, room.Side1, room.Side2); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomUpdated, room)
	return room, nil
}

// Rebalance выравнивает стороны: всех игроков раскладывают заново по порядку,
// первая половина в первую сторону, вторая во вторую.
func (s *roomService) Rebalance(ctx context.Context, roomID, actorID int, actorRole models.UserRole) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.CreatedBy != actorID && actorRole == models.RoleMember {
		return nil, ErrForbidden
	}
	if room.Status != models.RoomOpen {
		return nil, ErrRoomClosed
	}

	all := append(append([]int64{}, room.Side1...), room.Side2...)
	half := (len(all) + 1) / 2
	if half > models.RoomSideSize {
		half = models.RoomSideSize
	}
	room.Side1 = all[:half]
	room.Side2 = all[half:]

	if err := s.roomRepo.UpdateSides(ctx, roomID, room.Side1, room.Side2); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomUpdated, room)
	return room, nil
}

func (s *roomService) InvitePlayer(ctx context.Context, roomID, userID, actorID int) (*models.RoomInvite, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomOpen {
		return nil, ErrRoomClosed
	}
	if room.HasPlayer(userID) {
		return nil, ErrPlayerAlreadyIn
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	invite := &models.RoomInvite{
		RoomID:    roomID,
		UserID:    userID,
		InvitedBy: actorID,
		Status:    models.InvitePending,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	n := &models.Notification{
		UserID:  userID,
		Type:    models.NotificationCustomInvite,
		Title:   "Room invite",
		Message: fmt.Sprintf("You were invited to room %q", room.Title),
		RoomID:  &roomID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create invite notification", "user_id", userID, "room_id", roomID, "error", err)
	} else {
		s.events.Publish(realtime.UserTopic(userID), realtime.EventNotification, n)
	}
	return invite, nil
}

func (s *roomService) RespondInvite(ctx context.Context, inviteID, userID int, accept bool) (*models.RoomInvite, error) {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.UserID != userID {
		return nil, ErrForbidden
	}
	if invite.Status != models.InvitePending {
		return nil, ErrInviteNotPending
	}

	if !accept {
		invite.Status = models.InviteRejected
		return invite, s.inviteRepo.UpdateStatus(ctx, inviteID, invite.Status)
	}

	if _, err := s.Join(ctx, invite.RoomID, userID, 0); err != nil {
		return nil, err
	}
	invite.Status = models.InviteApproved
	return invite, s.inviteRepo.UpdateStatus(ctx, inviteID, invite.Status)
}

func (s *roomService) ListInvites(ctx context.Context, roomID int) ([]*models.RoomInvite, error) {
	return s.inviteRepo.ListPendingByRoom(ctx, roomID)
}

func (s *roomService) FinishTournamentMatch(ctx context.Context, roomID int, input FinishMatchInput) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Kind != models.RoomTeamTournament || room.Tournament == nil {
		return nil, ErrRoomNotTeamKind
	}
	if room.Status == models.RoomClosed {
		return nil, ErrRoomClosed
	}

	room.Team1Score = input.Team1Score
	room.Team2Score = input.Team2Score
	return s.finalizeTeamRoom(ctx, room, input.WinningTeamID)
}

// finalizeTeamRoom закрывает team_tournament-комнату: фиксирует победителя,
// завершает матч и обновляет рекорды обеих команд. Без явного победителя
// сторона выводится из текущего счёта комнаты.
func (s *roomService) finalizeTeamRoom(ctx context.Context, room *models.Room, explicitWinnerID *int) (*models.Room, error) {
	winnerID, loserID := room.Tournament.Team1ID, room.Tournament.Team2ID
	if explicitWinnerID != nil {
		switch *explicitWinnerID {
		case room.Tournament.Team1ID:
		case room.Tournament.Team2ID:
			winnerID, loserID = loserID, winnerID
		default:
			return nil, fmt.Errorf("%w: team %d does not play in this room", ErrValidationFailed, *explicitWinnerID)
		}
	} else {
		winnerSide, err := decideWinner(room.Team1Score, room.Team2Score, room.BestOf)
		if err != nil {
			return nil, err
		}
		if winnerSide == 2 {
			winnerID, loserID = loserID, winnerID
		}
	}

	room.Tournament.WinnerTeamID = &winnerID
	room.Status = models.RoomClosed

	if room.Tournament.MatchID != nil {
		match, matchErr := s.matchRepo.GetByID(ctx, *room.Tournament.MatchID)
		if matchErr != nil {
			return nil, matchErr
		}
		now := time.Now()
		match.Team1Score = room.Team1Score
		match.Team2Score = room.Team2Score
		match.Status = models.MatchCompleted
		match.WinnerID = &winnerID
		match.LoserID = &loserID
		match.EndedAt = &now
		if completeErr := s.matchRepo.Complete(ctx, match); completeErr != nil {
			return nil, completeErr
		}
	}

	// Рекорды команд обновляются по принципу "записал и поехал дальше":
	// сбой здесь не отменяет уже сыгранный матч.
	s.teams.ApplyMatchResult(ctx, winnerID, loserID)

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.TopicCustoms, realtime.EventMatchCompleted, room)
	s.events.Publish(realtime.TopicTournaments, realtime.EventMatchCompleted, map[string]interface{}{
		"tournament_id": room.Tournament.TournamentID,
		"match_id":      room.Tournament.MatchID,
		"winner_id":     winnerID,
	})
	return room, nil
}

func (s *roomService) FinishSimpleTournament(ctx context.Context, roomID int, input FinishMatchInput) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Kind != models.RoomSimpleTournament || room.Simple == nil {
		return nil, ErrRoomNotSimple
	}
	if room.Status == models.RoomClosed {
		return nil, ErrRoomClosed
	}

	room.Team1Score = input.Team1Score
	room.Team2Score = input.Team2Score
	return s.finalizeSimpleRoom(ctx, room, input.WinningTeamName)
}

// finalizeSimpleRoom закрывает simple_tournament-комнату, фиксируя название
// победившей стороны — явное либо выведенное из счёта.
func (s *roomService) finalizeSimpleRoom(ctx context.Context, room *models.Room, explicitWinnerName *string) (*models.Room, error) {
	winnerName := room.Simple.Team1Name
	if explicitWinnerName != nil {
		switch *explicitWinnerName {
		case room.Simple.Team1Name:
		case room.Simple.Team2Name:
			winnerName = room.Simple.Team2Name
		default:
			return nil, fmt.Errorf("%w: %q is not a side of this room", ErrValidationFailed, *explicitWinnerName)
		}
	} else {
		winnerSide, err := decideWinner(room.Team1Score, room.Team2Score, room.BestOf)
		if err != nil {
			return nil, err
		}
		if winnerSide == 2 {
			winnerName = room.Simple.Team2Name
		}
	}

	room.Simple.WinnerName = &winnerName
	room.Status = models.RoomClosed

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.TopicCustoms, realtime.EventMatchCompleted, room)
	return room, nil
}

func removePlayer(side []int64, userID int) []int64 {
	id := int64(userID)
	out := side[:0]
	for _, p := range side {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}

func (s *roomService) attachPlayers(ctx context.Context, room *models.Room) {
	ids := append(append([]int64{}, room.Side1...), room.Side2...)
	if len(ids) == 0 {
		return
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load room players", "room_id", room.ID, "error", err)
		return
	}
	byID := make(map[int64]models.User, len(users))
	for _, u := range users {
		byID[int64(u.ID)] = *u
	}
	for _, id := range room.Side1 {
		if u, ok := byID[id]; ok {
			room.Side1Users = append(room.Side1Users, u)
		}
	}
	for _, id := range room.Side2 {
		if u, ok := byID[id]; ok {
			room.Side2Users = append(room.Side2Users, u)
		}
	}
}
