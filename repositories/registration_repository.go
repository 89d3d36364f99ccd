package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationConflict = errors.New("registration already exists for this user and news")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	FindByUserAndNews(ctx context.Context, userID, newsID int) (*models.Registration, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Registration, error)
	ListByNews(ctx context.Context, newsID int) ([]*models.Registration, error)

	// ListEligible возвращает заявки новости со статусом pending и без комнаты,
	// в порядке создания.
	ListEligible(ctx context.Context, newsID int) ([]*models.Registration, error)

	// Claim атомарно переводит заявку pending/без-комнаты в assigned.
	// Возвращает false, если заявка уже кем-то занята (условие не совпало).
	Claim(ctx context.Context, id int) (bool, error)

	// Release возвращает занятые, но не попавшие в комнату заявки обратно в pending.
	Release(ctx context.Context, ids []int) error

	// AssignRoom проставляет ссылку на комнату уже занятым заявкам.
	AssignRoom(ctx context.Context, ids []int, roomID int) error

	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	Delete(ctx context.Context, id int) error

	// ResetAssignments возвращает все assigned-заявки новости в pending и
	// очищает ссылку на комнату. Возвращает число затронутых заявок.
	ResetAssignments(ctx context.Context, newsID int) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `id, user_id, news_id, room_id, ingame_name, lane, rank, status, created_at`

func scanRegistration(row interface{ Scan(...interface{}) error }) (*models.Registration, error) {
	reg := &models.Registration{}
	err := row.Scan(
		&reg.ID,
		&reg.UserID,
		&reg.NewsID,
		&reg.RoomID,
		&reg.IngameName,
		&reg.Lane,
		&reg.Rank,
		&reg.Status,
		&reg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (user_id, news_id, room_id, ingame_name, lane, rank, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.UserID,
		reg.NewsID,
		reg.RoomID,
		reg.IngameName,
		reg.Lane,
		reg.Rank,
		reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrRegistrationConflict
	}
	return err
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) FindByUserAndNews(ctx context.Context, userID, newsID int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 AND news_id = $2`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, userID, newsID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) listQuery(ctx context.Context, query string, args ...interface{}) ([]*models.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		reg, scanErr := scanRegistration(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY created_at DESC`
	return r.listQuery(ctx, query, userID)
}

func (r *postgresRegistrationRepository) ListByNews(ctx context.Context, newsID int) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE news_id = $1 ORDER BY created_at ASC`
	return r.listQuery(ctx, query, newsID)
}

func (r *postgresRegistrationRepository) ListEligible(ctx context.Context, newsID int) ([]*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE news_id = $1 AND status = 'pending' AND room_id IS NULL
		ORDER BY created_at ASC`
	return r.listQuery(ctx, query, newsID)
}

func (r *postgresRegistrationRepository) Claim(ctx context.Context, id int) (bool, error) {
	// Условие повторяет предикат выборки: проигравший гонку просто не пройдёт.
	query := `
		UPDATE registrations
		SET status = 'assigned'
		WHERE id = $1 AND status = 'pending' AND room_id IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *postgresRegistrationRepository) Release(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE registrations
		SET status = 'pending'
		WHERE id = ANY($1) AND status = 'assigned' AND room_id IS NULL`

	_, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	return err
}

func (r *postgresRegistrationRepository) AssignRoom(ctx context.Context, ids []int, roomID int) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE registrations SET room_id = $1 WHERE id = ANY($2)`

	_, err := r.db.ExecContext(ctx, query, roomID, pq.Array(ids))
	return err
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) ResetAssignments(ctx context.Context, newsID int) (int, error) {
	query := `
		UPDATE registrations
		SET status = 'pending', room_id = NULL
		WHERE news_id = $1 AND status = 'assigned'`

	result, err := r.db.ExecContext(ctx, query, newsID)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}
