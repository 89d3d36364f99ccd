package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/StephenCStudy/BX-clan-Backend/models"
)

var ErrNewsNotFound = errors.New("news not found")

type NewsFilter struct {
	Search string
	Type   *models.NewsType
	Limit  int
	Offset int
}

type NewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	GetByID(ctx context.Context, id int) (*models.News, error)
	List(ctx context.Context, filter NewsFilter) ([]*models.News, error)
	Count(ctx context.Context, filter NewsFilter) (int, error)
	Update(ctx context.Context, news *models.News) error
	Delete(ctx context.Context, id int) error
}

type postgresNewsRepository struct {
	db *sql.DB
}

func NewPostgresNewsRepository(db *sql.DB) NewsRepository {
	return &postgresNewsRepository{db: db}
}

func (r *postgresNewsRepository) Create(ctx context.Context, news *models.News) error {
	query := `
		INSERT INTO news (title, content, type, created_by, tournament_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		news.Title,
		news.Content,
		news.Type,
		news.CreatedBy,
		news.TournamentID,
	).Scan(&news.ID, &news.CreatedAt)
}

func (r *postgresNewsRepository) GetByID(ctx context.Context, id int) (*models.News, error) {
	query := `
		SELECT id, title, content, type, created_by, tournament_id, created_at
		FROM news
		WHERE id = $1`

	news := &models.News{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&news.ID,
		&news.Title,
		&news.Content,
		&news.Type,
		&news.CreatedBy,
		&news.TournamentID,
		&news.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	return news, nil
}

func buildNewsWhere(filter NewsFilter, args *[]interface{}) string {
	var conditions []string
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		conditions = append(conditions, "title ILIKE $"+strconv.Itoa(len(*args)))
	}
	if filter.Type != nil {
		*args = append(*args, *filter.Type)
		conditions = append(conditions, "type = $"+strconv.Itoa(len(*args)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func (r *postgresNewsRepository) List(ctx context.Context, filter NewsFilter) ([]*models.News, error) {
	args := make([]interface{}, 0, 4)
	query := `SELECT id, title, content, type, created_by, tournament_id, created_at FROM news` +
		buildNewsWhere(filter, &args) +
		` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.News, 0)
	for rows.Next() {
		news := &models.News{}
		if scanErr := rows.Scan(
			&news.ID,
			&news.Title,
			&news.Content,
			&news.Type,
			&news.CreatedBy,
			&news.TournamentID,
			&news.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		items = append(items, news)
	}
	return items, rows.Err()
}

func (r *postgresNewsRepository) Count(ctx context.Context, filter NewsFilter) (int, error) {
	args := make([]interface{}, 0, 2)
	query := `SELECT count(*) FROM news` + buildNewsWhere(filter, &args)

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresNewsRepository) Update(ctx context.Context, news *models.News) error {
	query := `
		UPDATE news
		SET title = $1, content = $2, type = $3, tournament_id = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		news.Title,
		news.Content,
		news.Type,
		news.TournamentID,
		news.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}
