package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/realtime"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
)

type CreateNewsInput struct {
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	Type         models.NewsType `json:"type"`
	TournamentID *int            `json:"tournament_id,omitempty"`
}

type UpdateNewsInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type NewsList struct {
	Items []*models.News `json:"items"`
	Total int            `json:"total"`
}

type NewsService interface {
	Create(ctx context.Context, authorID int, input CreateNewsInput) (*models.News, error)
	GetByID(ctx context.Context, id int) (*models.News, error)
	List(ctx context.Context, filter repositories.NewsFilter) (*NewsList, error)
	Update(ctx context.Context, id int, input UpdateNewsInput) (*models.News, error)
	Delete(ctx context.Context, id int) error
}

type newsService struct {
	newsRepo       repositories.NewsRepository
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	events         realtime.EventSink
}

func NewNewsService(
	newsRepo repositories.NewsRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	events realtime.EventSink,
) NewsService {
	return &newsService{
		newsRepo:       newsRepo,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		events:         events,
	}
}

func validNewsType(t models.NewsType) bool {
	switch t {
	case models.NewsAnnouncement, models.NewsRoomCreation, models.NewsTournament:
		return true
	}
	return false
}

func (s *newsService) Create(ctx context.Context, authorID int, input CreateNewsInput) (*models.News, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if !validNewsType(input.Type) {
		return nil, fmt.Errorf("%w: unknown news type %q", ErrValidationFailed, input.Type)
	}

	// Связь с турниром задаётся явным полем, а не содержимым заголовка.
	if input.Type == models.NewsTournament {
		if input.TournamentID == nil {
			return nil, fmt.Errorf("%w: tournament news requires tournament_id", ErrValidationFailed)
		}
		if _, err := s.tournamentRepo.GetByID(ctx, *input.TournamentID); err != nil {
			return nil, err
		}
	} else if input.TournamentID != nil {
		return nil, fmt.Errorf("%w: tournament_id is only valid for tournament news", ErrValidationFailed)
	}

	news := &models.News{
		Title:        input.Title,
		Content:      input.Content,
		Type:         input.Type,
		CreatedBy:    authorID,
		TournamentID: input.TournamentID,
	}
	if err := s.newsRepo.Create(ctx, news); err != nil {
		return nil, fmt.Errorf("failed to create news: %w", err)
	}

	s.events.Publish(realtime.TopicNews, realtime.EventNewsCreated, news)
	return news, nil
}

func (s *newsService) GetByID(ctx context.Context, id int) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if author, authorErr := s.userRepo.GetByID(ctx, news.CreatedBy); authorErr == nil {
		news.Author = author
	}
	return news, nil
}

func (s *newsService) List(ctx context.Context, filter repositories.NewsFilter) (*NewsList, error) {
	items, err := s.newsRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	total, err := s.newsRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count news: %w", err)
	}
	return &NewsList{Items: items, Total: total}, nil
}

func (s *newsService) Update(ctx context.Context, id int, input UpdateNewsInput) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidationFailed)
		}
		news.Title = title
	}
	if input.Content != nil {
		news.Content = *input.Content
	}

	if err := s.newsRepo.Update(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

func (s *newsService) Delete(ctx context.Context, id int) error {
	return s.newsRepo.Delete(ctx, id)
}
