package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/realtime"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
	"github.com/StephenCStudy/BX-clan-Backend/storage"
)

// TeamRosterLimit — игроки плюс запасные.
const TeamRosterLimit = 7

type CreateTeamInput struct {
	Name        string  `json:"name"`
	Tag         *string `json:"tag,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateTeamInput struct {
	Name        *string `json:"name,omitempty"`
	Tag         *string `json:"tag,omitempty"`
	Description *string `json:"description,omitempty"`
}

type AddMemberInput struct {
	UserID   int                   `json:"user_id"`
	Role     models.TeamMemberRole `json:"role"`
	Position string                `json:"position"`
}

type TeamList struct {
	Items []*models.Team `json:"items"`
	Total int            `json:"total"`
}

type TeamService interface {
	Create(ctx context.Context, creatorID int, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context, filter repositories.TeamFilter) (*TeamList, error)
	Update(ctx context.Context, id, actorID int, actorRole models.UserRole, input UpdateTeamInput) (*models.Team, error)
	Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error

	AddMember(ctx context.Context, teamID, actorID int, input AddMemberInput) (*models.Team, error)
	RemoveMember(ctx context.Context, teamID, userID, actorID int, actorRole models.UserRole) error

	UploadLogo(ctx context.Context, teamID, actorID int, actorRole models.UserRole, contentType string, file io.Reader) (*models.Team, error)

	JoinTournament(ctx context.Context, teamID, tournamentID, actorID int) error
	LeaveTournament(ctx context.Context, teamID, actorID int, actorRole models.UserRole) error

	// ApplyMatchResult переносит исход матча в рекорды обеих команд.
	// Ошибки логируются и не прерывают вызвавшую операцию: сыгранный матч
	// важнее, чем счётчики.
	ApplyMatchResult(ctx context.Context, winnerID, loserID int)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	tourRepo repositories.TournamentRepository
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	events   realtime.EventSink
	logger   *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	tourRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	events realtime.EventSink,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		tourRepo: tourRepo,
		userRepo: userRepo,
		uploader: uploader,
		events:   events,
		logger:   logger,
	}
}

func (s *teamService) Create(ctx context.Context, creatorID int, input CreateTeamInput) (*models.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}

	team := &models.Team{
		Name:             input.Name,
		Tag:              input.Tag,
		Description:      input.Description,
		CaptainID:        creatorID,
		CreatedBy:        creatorID,
		TournamentStatus: models.TeamRegistered,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.TopicTeams, realtime.EventTeamCreated, team)
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachLogoURL(team)
	s.attachMemberUsers(ctx, team)
	return team, nil
}

func (s *teamService) List(ctx context.Context, filter repositories.TeamFilter) (*TeamList, error) {
	items, err := s.teamRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	total, err := s.teamRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams: %w", err)
	}
	for _, team := range items {
		s.attachLogoURL(team)
	}
	return &TeamList{Items: items, Total: total}, nil
}

func (s *teamService) Update(ctx context.Context, id, actorID int, actorRole models.UserRole, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != actorID && actorRole == models.RoleMember {
		return nil, ErrNotTeamCaptain
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: team name cannot be empty", ErrValidationFailed)
		}
		team.Name = name
	}
	if input.Tag != nil {
		team.Tag = input.Tag
	}
	if input.Description != nil {
		team.Description = input.Description
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.TopicTeams, realtime.EventTeamUpdated, team)
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if team.CaptainID != actorID && actorRole == models.RoleMember {
		return ErrNotTeamCaptain
	}
	if team.TournamentID != nil {
		return ErrTeamInTournament
	}
	return s.teamRepo.Delete(ctx, id)
}

func (s *teamService) AddMember(ctx context.Context, teamID, actorID int, input AddMemberInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != actorID {
		return nil, ErrNotTeamCaptain
	}

	count, err := s.teamRepo.CountMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if count >= TeamRosterLimit {
		return nil, ErrTeamRosterFull
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.MemberPlayer
	}
	member := &models.TeamMember{UserID: input.UserID, Role: role, Position: input.Position}
	if err := s.teamRepo.AddMember(ctx, teamID, member); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, teamID)
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, userID, actorID int, actorRole models.UserRole) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	// Выйти из команды можно самому, выгнать — только капитану или модерации.
	if userID != actorID && team.CaptainID != actorID && actorRole == models.RoleMember {
		return ErrNotTeamCaptain
	}
	if userID == team.CaptainID {
		return fmt.Errorf("%w: captain cannot leave the team", ErrValidationFailed)
	}
	return s.teamRepo.RemoveMember(ctx, teamID, userID)
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, actorID int, actorRole models.UserRole, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != actorID && actorRole == models.RoleMember {
		return nil, ErrNotTeamCaptain
	}

	ext := "png"
	if parts := strings.Split(contentType, "/"); len(parts) == 2 && parts[0] == "image" {
		ext = parts[1]
	} else {
		return nil, fmt.Errorf("%w: logo must be an image", ErrValidationFailed)
	}

	key := fmt.Sprintf("teams/%d/logo_%d.%s", teamID, time.Now().Unix(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	if team.LogoKey != nil && *team.LogoKey != "" {
		if delErr := s.uploader.Delete(ctx, *team.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete old team logo", "team_id", teamID, "key", *team.LogoKey, "error", delErr)
		}
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, result.Key); err != nil {
		return nil, err
	}
	team.LogoKey = &result.Key
	s.attachLogoURL(team)

	s.events.Publish(realtime.TopicTeams, realtime.EventTeamUpdated, team)
	return team, nil
}

func (s *teamService) JoinTournament(ctx context.Context, teamID, tournamentID, actorID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CaptainID != actorID {
		return ErrNotTeamCaptain
	}
	if team.TournamentID != nil {
		return ErrTeamInTournament
	}

	tournament, err := s.tourRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentRegistration {
		return ErrTournamentNotOngoing
	}

	registered, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if len(registered) >= tournament.MaxTeams {
		return ErrTournamentFull
	}

	members, err := s.teamRepo.CountMembers(ctx, teamID)
	if err != nil {
		return err
	}
	if members < tournament.TeamSize {
		return fmt.Errorf("%w: team needs at least %d members", ErrValidationFailed, tournament.TeamSize)
	}

	return s.teamRepo.SetTournament(ctx, teamID, &tournamentID, models.TeamRegistered)
}

func (s *teamService) LeaveTournament(ctx context.Context, teamID, actorID int, actorRole models.UserRole) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CaptainID != actorID && actorRole == models.RoleMember {
		return ErrNotTeamCaptain
	}
	if team.TournamentID == nil {
		return ErrTeamNotInTournament
	}

	tournament, err := s.tourRepo.GetByID(ctx, *team.TournamentID)
	if err != nil {
		return err
	}
	if tournament.Status == models.TournamentOngoing {
		return fmt.Errorf("%w: cannot leave an ongoing tournament", ErrValidationFailed)
	}

	return s.teamRepo.SetTournament(ctx, teamID, nil, models.TeamRegistered)
}

func (s *teamService) ApplyMatchResult(ctx context.Context, winnerID, loserID int) {
	if err := s.teamRepo.RecordWin(ctx, winnerID, models.TeamActive); err != nil {
		s.logger.Error("failed to record team win", "team_id", winnerID, "error", err)
	}
	if err := s.teamRepo.RecordLoss(ctx, loserID, models.TeamEliminated); err != nil {
		s.logger.Error("failed to record team loss", "team_id", loserID, "error", err)
	}
}

func (s *teamService) attachLogoURL(team *models.Team) {
	if s.uploader == nil || team.LogoKey == nil || *team.LogoKey == "" {
		return
	}
	if url := s.uploader.GetPublicURL(*team.LogoKey); url != "" {
		team.LogoURL = &url
	}
}

func (s *teamService) attachMemberUsers(ctx context.Context, team *models.Team) {
	if len(team.Members) == 0 {
		return
	}
	ids := make([]int64, 0, len(team.Members))
	for _, m := range team.Members {
		ids = append(ids, int64(m.UserID))
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load team members", "team_id", team.ID, "error", err)
		return
	}
	byID := make(map[int]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range team.Members {
		team.Members[i].User = byID[team.Members[i].UserID]
	}
	team.Captain = byID[team.CaptainID]
}
