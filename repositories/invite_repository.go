package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/lib/pq"
)

var (
	ErrInviteNotFound = errors.New("invite not found")
	ErrInviteConflict = errors.New("pending invite already exists")
)

type InviteRepository interface {
	Create(ctx context.Context, invite *models.RoomInvite) error
	GetByID(ctx context.Context, id int) (*models.RoomInvite, error)
	FindPending(ctx context.Context, roomID, userID int) (*models.RoomInvite, error)
	ListPendingByRoom(ctx context.Context, roomID int) ([]*models.RoomInvite, error)
	ListPendingByUser(ctx context.Context, userID int) ([]*models.RoomInvite, error)
	UpdateStatus(ctx context.Context, id int, status models.InviteStatus) error
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

const inviteColumns = `id, room_id, user_id, invited_by, status, created_at`

func scanInvite(row interface{ Scan(...interface{}) error }) (*models.RoomInvite, error) {
	invite := &models.RoomInvite{}
	err := row.Scan(
		&invite.ID,
		&invite.RoomID,
		&invite.UserID,
		&invite.InvitedBy,
		&invite.Status,
		&invite.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return invite, nil
}

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.RoomInvite) error {
	query := `
		INSERT INTO room_invites (room_id, user_id, invited_by, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.RoomID,
		invite.UserID,
		invite.InvitedBy,
		invite.Status,
	).Scan(&invite.ID, &invite.CreatedAt)

	// Частичный уникальный индекс на (room_id, user_id) WHERE status = 'pending'.
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrInviteConflict
	}
	return err
}

func (r *postgresInviteRepository) GetByID(ctx context.Context, id int) (*models.RoomInvite, error) {
	query := `SELECT ` + inviteColumns + ` FROM room_invites WHERE id = $1`

	invite, err := scanInvite(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return invite, nil
}

func (r *postgresInviteRepository) FindPending(ctx context.Context, roomID, userID int) (*models.RoomInvite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM room_invites
		WHERE room_id = $1 AND user_id = $2 AND status = 'pending'`

	invite, err := scanInvite(r.db.QueryRowContext(ctx, query, roomID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return invite, nil
}

func (r *postgresInviteRepository) listQuery(ctx context.Context, query string, args ...interface{}) ([]*models.RoomInvite, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*models.RoomInvite, 0)
	for rows.Next() {
		invite, scanErr := scanInvite(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *postgresInviteRepository) ListPendingByRoom(ctx context.Context, roomID int) ([]*models.RoomInvite, error) {
	query := `SELECT ` + inviteColumns + ` FROM room_invites WHERE room_id = $1 AND status = 'pending' ORDER BY created_at ASC`
	return r.listQuery(ctx, query, roomID)
}

func (r *postgresInviteRepository) ListPendingByUser(ctx context.Context, userID int) ([]*models.RoomInvite, error) {
	query := `SELECT ` + inviteColumns + ` FROM room_invites WHERE user_id = $1 AND status = 'pending' ORDER BY created_at DESC`
	return r.listQuery(ctx, query, userID)
}

func (r *postgresInviteRepository) UpdateStatus(ctx context.Context, id int, status models.InviteStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE room_invites SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInviteNotFound)
}
