package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/realtime"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	GameType      string          `json:"game_type"`
	GameMode      models.GameMode `json:"game_mode"`
	DefaultBestOf int             `json:"default_best_of"`
	MaxTeams      int             `json:"max_teams"`
	TeamSize      int             `json:"team_size"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
}

type UpdateTournamentInput struct {
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	DefaultBestOf *int       `json:"default_best_of,omitempty"`
	MaxTeams      *int       `json:"max_teams,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
}

// AdvanceResult — итог перехода турнира к следующему раунду.
type AdvanceResult struct {
	Tournament *models.Tournament `json:"tournament"`
	Winners    []int              `json:"winners"`
	Finished   bool               `json:"finished"`
}

type TournamentList struct {
	Items []*models.Tournament `json:"items"`
	Total int                  `json:"total"`
}

// RoundPool — кто играет в текущем раунде: весь допущенный пул и те,
// у кого ещё нет матча.
type RoundPool struct {
	Round    int            `json:"round"`
	Pool     []*models.Team `json:"pool"`
	Unpaired []*models.Team `json:"unpaired"`
}

type TournamentService interface {
	Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.TournamentFilter) (*TournamentList, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error

	OpenRegistration(ctx context.Context, id int) error
	Start(ctx context.Context, id int) error
	Cancel(ctx context.Context, id int) error

	// AdvanceRound закрывает текущий раунд: требует, чтобы все его матчи были
	// завершены, фиксирует победителей и либо открывает следующий раунд, либо
	// объявляет чемпиона, когда победитель остался один.
	AdvanceRound(ctx context.Context, id int) (*AdvanceResult, error)

	// WinningTeams возвращает зафиксированных победителей по раундам.
	WinningTeams(ctx context.Context, id int) ([]models.RoundWinners, error)

	// PairableTeams показывает пул текущего раунда и команды без пары.
	PairableTeams(ctx context.Context, id int) (*RoundPool, error)

	ListMatches(ctx context.Context, id int, round *int) ([]*models.Match, error)
}

type tournamentService struct {
	tourRepo  repositories.TournamentRepository
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	events    realtime.EventSink
	logger    *slog.Logger
}

func NewTournamentService(
	tourRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	events realtime.EventSink,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tourRepo:  tourRepo,
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		events:    events,
		logger:    logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.DefaultBestOf <= 0 {
		input.DefaultBestOf = 1
	}
	if input.DefaultBestOf%2 == 0 {
		return nil, fmt.Errorf("%w: default_best_of must be odd", ErrValidationFailed)
	}
	if input.MaxTeams < 2 {
		return nil, fmt.Errorf("%w: max_teams must be at least 2", ErrValidationFailed)
	}
	if input.TeamSize <= 0 {
		input.TeamSize = models.RoomSideSize
	}
	if input.GameMode == "" {
		input.GameMode = models.Mode5vs5
	}

	tournament := &models.Tournament{
		Name:          input.Name,
		Description:   input.Description,
		GameType:      input.GameType,
		GameMode:      input.GameMode,
		DefaultBestOf: input.DefaultBestOf,
		MaxTeams:      input.MaxTeams,
		TeamSize:      input.TeamSize,
		Status:        models.TournamentDraft,
		CurrentRound:  0,
		CreatedBy:     creatorID,
		StartDate:     input.StartDate,
	}
	if err := s.tourRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.TopicTournaments, realtime.EventTournamentCreated, tournament)
	return tournament, nil
}

// GetByID отдаёт турнир вместе с командами, матчами и победителями раундов.
// Четыре независимых запроса идут параллельно.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, teamsErr := s.teamRepo.ListByTournament(gctx, id)
		if teamsErr != nil {
			return fmt.Errorf("failed to load tournament teams: %w", teamsErr)
		}
		registered := make([]models.Team, 0, len(teams))
		for _, t := range teams {
			registered = append(registered, *t)
		}
		tournament.RegisteredTeams = registered
		return nil
	})

	g.Go(func() error {
		matches, matchesErr := s.matchRepo.ListByTournament(gctx, id, repositories.MatchFilter{})
		if matchesErr != nil {
			return fmt.Errorf("failed to load tournament matches: %w", matchesErr)
		}
		items := make([]models.Match, 0, len(matches))
		for _, m := range matches {
			items = append(items, *m)
		}
		tournament.Matches = items
		return nil
	})

	g.Go(func() error {
		winners, winnersErr := s.tourRepo.GetRoundWinners(gctx, id)
		if winnersErr != nil {
			return fmt.Errorf("failed to load round winners: %w", winnersErr)
		}
		tournament.WinningTeamsByRound = winners
		return nil
	})

	if tournament.ChampionID != nil {
		championID := *tournament.ChampionID
		g.Go(func() error {
			champion, championErr := s.teamRepo.GetByID(gctx, championID)
			if championErr != nil {
				return fmt.Errorf("failed to load champion: %w", championErr)
			}
			tournament.Champion = champion
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.TournamentFilter) (*TournamentList, error) {
	items, err := s.tourRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	total, err := s.tourRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tournaments: %w", err)
	}
	return &TournamentList{Items: items, Total: total}, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.TournamentCompleted || tournament.Status == models.TournamentCancelled {
		return nil, fmt.Errorf("%w: tournament is finished", ErrValidationFailed)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tournament name cannot be empty", ErrValidationFailed)
		}
		tournament.Name = name
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.DefaultBestOf != nil {
		if *input.DefaultBestOf%2 == 0 || *input.DefaultBestOf <= 0 {
			return nil, fmt.Errorf("%w: default_best_of must be odd", ErrValidationFailed)
		}
		tournament.DefaultBestOf = *input.DefaultBestOf
	}
	if input.MaxTeams != nil {
		tournament.MaxTeams = *input.MaxTeams
	}
	if input.StartDate != nil {
		tournament.StartDate = input.StartDate
	}

	if err := s.tourRepo.Update(ctx, tournament); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.TopicTournaments, realtime.EventTournamentUpdated, tournament)
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.Status == models.TournamentOngoing {
		return fmt.Errorf("%w: cannot delete an ongoing tournament", ErrValidationFailed)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return err
	}
	for _, team := range teams {
		if err := s.teamRepo.SetTournament(ctx, team.ID, nil, models.TeamRegistered); err != nil {
			s.logger.Error("failed to detach team from tournament", "team_id", team.ID, "error", err)
		}
	}
	if err := s.matchRepo.DeleteByTournament(ctx, id); err != nil {
		return err
	}
	return s.tourRepo.Delete(ctx, id)
}

func (s *tournamentService) OpenRegistration(ctx context.Context, id int) error {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentDraft {
		return fmt.Errorf("%w: registration can only be opened from draft", ErrValidationFailed)
	}
	return s.tourRepo.UpdateStatus(ctx, id, models.TournamentRegistration)
}

func (s *tournamentService) Start(ctx context.Context, id int) error {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentRegistration {
		return fmt.Errorf("%w: tournament is not in registration", ErrValidationFailed)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return err
	}
	if len(teams) < 2 {
		return fmt.Errorf("%w: at least 2 teams are required to start", ErrValidationFailed)
	}

	for _, team := range teams {
		if err := s.teamRepo.SetTournamentStatus(ctx, team.ID, models.TeamActive); err != nil {
			return err
		}
	}
	if err := s.tourRepo.SetCurrentRound(ctx, id, 1); err != nil {
		return err
	}
	if err := s.tourRepo.UpdateStatus(ctx, id, models.TournamentOngoing); err != nil {
		return err
	}

	s.events.Publish(realtime.TopicTournaments, realtime.EventTournamentUpdated, map[string]interface{}{
		"id": id, "status": models.TournamentOngoing,
	})
	return nil
}

func (s *tournamentService) Cancel(ctx context.Context, id int) error {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.Status == models.TournamentCompleted {
		return fmt.Errorf("%w: completed tournament cannot be cancelled", ErrValidationFailed)
	}
	return s.tourRepo.UpdateStatus(ctx, id, models.TournamentCancelled)
}

func (s *tournamentService) AdvanceRound(ctx context.Context, id int) (*AdvanceResult, error) {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentOngoing {
		return nil, ErrTournamentNotOngoing
	}

	round := tournament.CurrentRound
	completed, total, err := s.matchRepo.CountByRound(ctx, id, round)
	if err != nil {
		return nil, fmt.Errorf("failed to count round matches: %w", err)
	}
	// Раунд без единого матча двигать нечем, равно как и раунд с висящими играми.
	if total == 0 || completed < total {
		return nil, ErrRoundNotComplete
	}

	status := models.MatchCompleted
	matches, err := s.matchRepo.ListByTournament(ctx, id, repositories.MatchFilter{Round: &round, Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to load round matches: %w", err)
	}

	winners := make([]int, 0, len(matches))
	for _, match := range matches {
		if match.WinnerID == nil {
			return nil, fmt.Errorf("match %d is completed without a winner", match.ID)
		}
		winners = append(winners, *match.WinnerID)
	}
	if len(winners) == 0 {
		return nil, ErrNoRoundWinners
	}

	// Список победителей раунда перезаписывается целиком: повторный вызов
	// после сбоя не плодит дубликатов.
	if err := s.tourRepo.UpsertRoundWinners(ctx, id, round, winners); err != nil {
		return nil, fmt.Errorf("failed to save round winners: %w", err)
	}

	result := &AdvanceResult{Winners: winners}

	if len(winners) == 1 {
		championID := winners[0]
		if err := s.tourRepo.SetChampion(ctx, id, championID); err != nil {
			return nil, err
		}
		if err := s.teamRepo.SetTournamentStatus(ctx, championID, models.TeamWinner); err != nil {
			s.logger.Error("failed to mark champion team", "team_id", championID, "error", err)
		}
		tournament.Status = models.TournamentCompleted
		tournament.ChampionID = &championID
		result.Finished = true
	} else {
		if err := s.tourRepo.SetCurrentRound(ctx, id, round+1); err != nil {
			return nil, err
		}
		tournament.CurrentRound = round + 1
	}

	result.Tournament = tournament
	s.events.Publish(realtime.TopicTournaments, realtime.EventTournamentUpdated, result)
	return result, nil
}

func (s *tournamentService) WinningTeams(ctx context.Context, id int) ([]models.RoundWinners, error) {
	if _, err := s.tourRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.tourRepo.GetRoundWinners(ctx, id)
}

// PairableTeams собирает пул текущего раунда: в первом раунде это все
// невыбывшие команды турнира, дальше — победители предыдущего раунда.
// Команды, уже получившие матч в раунде, попадают только в Pool.
func (s *tournamentService) PairableTeams(ctx context.Context, id int) (*RoundPool, error) {
	tournament, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentOngoing {
		return nil, ErrTournamentNotOngoing
	}
	round := tournament.CurrentRound

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	eligible := make(map[int]bool, len(teams))
	if round <= 1 {
		for _, team := range teams {
			if team.TournamentStatus != models.TeamEliminated {
				eligible[team.ID] = true
			}
		}
	} else {
		rounds, winnersErr := s.tourRepo.GetRoundWinners(ctx, id)
		if winnersErr != nil {
			return nil, winnersErr
		}
		for _, rw := range rounds {
			if rw.Round != round-1 {
				continue
			}
			for _, teamID := range rw.TeamIDs {
				eligible[teamID] = true
			}
		}
	}

	matches, err := s.matchRepo.ListByTournament(ctx, id, repositories.MatchFilter{Round: &round})
	if err != nil {
		return nil, err
	}
	paired := make(map[int]bool, len(matches)*2)
	for _, match := range matches {
		if match.Status == models.MatchCancelled {
			continue
		}
		paired[match.Team1ID] = true
		paired[match.Team2ID] = true
	}

	pool := &RoundPool{Round: round, Pool: []*models.Team{}, Unpaired: []*models.Team{}}
	for _, team := range teams {
		if !eligible[team.ID] {
			continue
		}
		pool.Pool = append(pool.Pool, team)
		if !paired[team.ID] {
			pool.Unpaired = append(pool.Unpaired, team)
		}
	}
	return pool, nil
}

func (s *tournamentService) ListMatches(ctx context.Context, id int, round *int) ([]*models.Match, error) {
	if _, err := s.tourRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByTournament(ctx, id, repositories.MatchFilter{Round: round})
}
