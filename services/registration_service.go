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

type CreateRegistrationInput struct {
	NewsID     int    `json:"news_id"`
	IngameName string `json:"ingame_name"`
	Lane       string `json:"lane"`
	Rank       string `json:"rank"`
}

// AutoCreateRoomsInput — параметры комнат, которые соберёт батчер.
type AutoCreateRoomsInput struct {
	GameMode models.GameMode `json:"game_mode"`
	BestOf   int             `json:"best_of"`
}

// AutoCreateResult — итог одного прогона батчера.
type AutoCreateResult struct {
	Rooms            []*models.Room `json:"rooms"`
	AssignedPlayers  int            `json:"assigned_players"`
	RemainingPending int            `json:"remaining_pending"`
}

type RegistrationService interface {
	Create(ctx context.Context, userID int, input CreateRegistrationInput) (*models.Registration, error)
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	ListByNews(ctx context.Context, newsID int) ([]*models.Registration, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error

	// AutoCreateRooms собирает pending-заявки новости в полные комнаты 5на5.
	// Остаток, которому не хватило до полной комнаты, остаётся в очереди.
	AutoCreateRooms(ctx context.Context, newsID, actorID int, input AutoCreateRoomsInput) (*AutoCreateResult, error)

	// ResetAssignments распускает все авто-назначения новости обратно в pending.
	ResetAssignments(ctx context.Context, newsID int) (int, error)
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	newsRepo         repositories.NewsRepository
	roomRepo         repositories.RoomRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	events           realtime.EventSink
	logger           *slog.Logger
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	newsRepo repositories.NewsRepository,
	roomRepo repositories.RoomRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	events realtime.EventSink,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		newsRepo:         newsRepo,
		roomRepo:         roomRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		events:           events,
		logger:           logger,
	}
}

func (s *registrationService) Create(ctx context.Context, userID int, input CreateRegistrationInput) (*models.Registration, error) {
	news, err := s.newsRepo.GetByID(ctx, input.NewsID)
	if err != nil {
		return nil, err
	}
	if news.Type != models.NewsRoomCreation {
		return nil, ErrNewsNotRoomCreation
	}
	if input.IngameName == "" {
		return nil, fmt.Errorf("%w: ingame_name is required", ErrValidationFailed)
	}

	reg := &models.Registration{
		UserID:     userID,
		NewsID:     &news.ID,
		IngameName: input.IngameName,
		Lane:       input.Lane,
		Rank:       input.Rank,
		Status:     models.RegistrationPending,
	}
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	return reg, nil
}

func (s *registrationService) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	return s.registrationRepo.GetByID(ctx, id)
}

func (s *registrationService) ListByNews(ctx context.Context, newsID int) ([]*models.Registration, error) {
	regs, err := s.registrationRepo.ListByNews(ctx, newsID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	s.attachUsers(ctx, regs)
	return regs, nil
}

func (s *registrationService) ListByUser(ctx context.Context, userID int) ([]*models.Registration, error) {
	return s.registrationRepo.ListByUser(ctx, userID)
}

func (s *registrationService) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	switch status {
	case models.RegistrationApproved, models.RegistrationRejected, models.RegistrationPending:
	default:
		return fmt.Errorf("%w: status %q cannot be set manually", ErrValidationFailed, status)
	}
	return s.registrationRepo.UpdateStatus(ctx, id, status)
}

func (s *registrationService) Delete(ctx context.Context, id, actorID int, actorRole models.UserRole) error {
	reg, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if reg.UserID != actorID && actorRole == models.RoleMember {
		return ErrForbidden
	}
	if reg.RoomID != nil {
		return ErrRegistrationAssigned
	}
	return s.registrationRepo.Delete(ctx, id)
}

func (s *registrationService) AutoCreateRooms(ctx context.Context, newsID, actorID int, input AutoCreateRoomsInput) (*AutoCreateResult, error) {
	if input.GameMode == "" {
		input.GameMode = models.Mode5vs5
	}
	if input.BestOf <= 0 {
		input.BestOf = 3
	}
	if input.BestOf%2 == 0 {
		return nil, fmt.Errorf("%w: best_of must be odd", ErrValidationFailed)
	}

	news, err := s.newsRepo.GetByID(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if news.Type != models.NewsRoomCreation {
		return nil, ErrNewsNotRoomCreation
	}

	eligible, err := s.registrationRepo.ListEligible(ctx, newsID)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible registrations: %w", err)
	}

	existingRooms, err := s.roomRepo.CountByNews(ctx, newsID)
	if err != nil {
		return nil, fmt.Errorf("failed to count existing rooms: %w", err)
	}

	result := &AutoCreateResult{Rooms: []*models.Room{}}
	batch := make([]*models.Registration, 0, models.RoomMaxPlayers)
	lostClaims := 0

	for _, reg := range eligible {
		// Конкурирующий прогон мог уже занять заявку: проигравший просто идёт дальше.
		claimed, claimErr := s.registrationRepo.Claim(ctx, reg.ID)
		if claimErr != nil {
			s.releaseBatch(ctx, batch)
			return nil, fmt.Errorf("failed to claim registration %d: %w", reg.ID, claimErr)
		}
		if !claimed {
			lostClaims++
			continue
		}
		batch = append(batch, reg)

		if len(batch) < models.RoomMaxPlayers {
			continue
		}

		room, roomErr := s.createBatchRoom(ctx, news, actorID, existingRooms+len(result.Rooms)+1, batch, input)
		if roomErr != nil {
			s.releaseBatch(ctx, batch)
			return nil, roomErr
		}
		result.Rooms = append(result.Rooms, room)
		result.AssignedPlayers += len(batch)
		batch = batch[:0]
	}

	// Неполной группе комната не положена: возвращаем её в очередь.
	// Проигранные чужому прогону заявки в остаток не входят.
	s.releaseBatch(ctx, batch)
	result.RemainingPending = len(eligible) - result.AssignedPlayers - lostClaims

	return result, nil
}

func (s *registrationService) createBatchRoom(ctx context.Context, news *models.News, actorID, roomNumber int, batch []*models.Registration, input AutoCreateRoomsInput) (*models.Room, error) {
	side1 := make([]int64, 0, models.RoomSideSize)
	side2 := make([]int64, 0, models.RoomSideSize)
	ids := make([]int, 0, len(batch))
	for i, reg := range batch {
		if i < models.RoomSideSize {
			side1 = append(side1, int64(reg.UserID))
		} else {
			side2 = append(side2, int64(reg.UserID))
		}
		ids = append(ids, reg.ID)
	}

	room := &models.Room{
		Title:        fmt.Sprintf("%s #%d", news.Title, roomNumber),
		CreatedBy:    actorID,
		NewsID:       &news.ID,
		ScheduleTime: time.Now(),
		MaxPlayers:   models.RoomMaxPlayers,
		GameMode:     input.GameMode,
		Kind:         models.RoomPlain,
		Status:       models.RoomOpen,
		Side1:        side1,
		Side2:        side2,
		BestOf:       input.BestOf,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room for news %d: %w", news.ID, err)
	}
	if err := s.registrationRepo.AssignRoom(ctx, ids, room.ID); err != nil {
		return nil, fmt.Errorf("failed to assign registrations to room %d: %w", room.ID, err)
	}

	s.notifyAssigned(ctx, room, batch)
	s.events.Publish(realtime.TopicCustoms, realtime.EventCustomCreated, room)
	return room, nil
}

func (s *registrationService) releaseBatch(ctx context.Context, batch []*models.Registration) {
	if len(batch) == 0 {
		return
	}
	ids := make([]int, 0, len(batch))
	for _, reg := range batch {
		ids = append(ids, reg.ID)
	}
	if err := s.registrationRepo.Release(ctx, ids); err != nil {
		s.logger.Error("failed to release claimed registrations", "ids", ids, "error", err)
	}
}

func (s *registrationService) notifyAssigned(ctx context.Context, room *models.Room, batch []*models.Registration) {
	for _, reg := range batch {
		n := &models.Notification{
			UserID:  reg.UserID,
			Type:    models.NotificationRoomAssignment,
			Title:   "You have been assigned to a room",
			Message: fmt.Sprintf("Room %q is waiting for you", room.Title),
			RoomID:  &room.ID,
			NewsID:  room.NewsID,
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			// Рассылка не должна валить уже созданную комнату.
			s.logger.Error("failed to create room-assignment notification",
				"user_id", reg.UserID, "room_id", room.ID, "error", err)
			continue
		}
		s.events.Publish(realtime.UserTopic(reg.UserID), realtime.EventNotification, n)
	}
}

func (s *registrationService) ResetAssignments(ctx context.Context, newsID int) (int, error) {
	if _, err := s.newsRepo.GetByID(ctx, newsID); err != nil {
		return 0, err
	}
	count, err := s.registrationRepo.ResetAssignments(ctx, newsID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset assignments for news %d: %w", newsID, err)
	}
	s.logger.Info("registration assignments reset", "news_id", newsID, "count", count)
	return count, nil
}

func (s *registrationService) attachUsers(ctx context.Context, regs []*models.Registration) {
	if len(regs) == 0 {
		return
	}
	ids := make([]int64, 0, len(regs))
	for _, reg := range regs {
		ids = append(ids, int64(reg.UserID))
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load registration users", "error", err)
		return
	}
	byID := make(map[int]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, reg := range regs {
		reg.User = byID[reg.UserID]
	}
}
