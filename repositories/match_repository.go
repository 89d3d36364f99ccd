package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchConflict = errors.New("match already exists for this pair")
)

type MatchFilter struct {
	Round  *int
	Status *models.MatchStatus
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, filter MatchFilter) ([]*models.Match, error)

	// FindByPair ищет матч пары команд в раунде независимо от порядка сторон.
	FindByPair(ctx context.Context, tournamentID, round, teamAID, teamBID int) (*models.Match, error)

	// AttachRoom привязывает матч к комнате и отмечает его начало.
	AttachRoom(ctx context.Context, matchID, roomID int) error

	// Complete закрывает матч: счёт, победитель, проигравший, время окончания.
	Complete(ctx context.Context, match *models.Match) error

	CountByRound(ctx context.Context, tournamentID, round int) (completed, total int, err error)
	DeleteByTournament(ctx context.Context, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, round, match_number, team1_id, team2_id,
	team1_score, team2_score, best_of, status, winner_id, loser_id,
	room_id, started_at, ended_at, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Round,
		&match.MatchNumber,
		&match.Team1ID,
		&match.Team2ID,
		&match.Team1Score,
		&match.Team2Score,
		&match.BestOf,
		&match.Status,
		&match.WinnerID,
		&match.LoserID,
		&match.RoomID,
		&match.StartedAt,
		&match.EndedAt,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (
			tournament_id, round, match_number, team1_id, team2_id,
			best_of, status, room_id, started_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Round,
		match.MatchNumber,
		match.Team1ID,
		match.Team2ID,
		match.BestOf,
		match.Status,
		match.RoomID,
		match.StartedAt,
	).Scan(&match.ID, &match.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrMatchConflict
	}
	return err
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, filter MatchFilter) ([]*models.Match, error) {
	args := []interface{}{tournamentID}
	conditions := []string{"tournament_id = $1"}

	if filter.Round != nil {
		args = append(args, *filter.Round)
		conditions = append(conditions, "round = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + matchColumns + ` FROM matches WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY round ASC, match_number ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) FindByPair(ctx context.Context, tournamentID, round, teamAID, teamBID int) (*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND round = $2
			AND ((team1_id = $3 AND team2_id = $4) OR (team1_id = $4 AND team2_id = $3))`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, tournamentID, round, teamAID, teamBID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) AttachRoom(ctx context.Context, matchID, roomID int) error {
	query := `
		UPDATE matches
		SET room_id = $1, started_at = COALESCE(started_at, now())
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, roomID, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Complete(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET team1_score = $1, team2_score = $2, status = $3,
			winner_id = $4, loser_id = $5, ended_at = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		match.Team1Score,
		match.Team2Score,
		match.Status,
		match.WinnerID,
		match.LoserID,
		match.EndedAt,
		match.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountByRound(ctx context.Context, tournamentID, round int) (int, int, error) {
	// Отменённые матчи раунд не держат.
	query := `
		SELECT
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status <> 'cancelled')
		FROM matches
		WHERE tournament_id = $1 AND round = $2`

	var completed, total int
	err := r.db.QueryRowContext(ctx, query, tournamentID, round).Scan(&completed, &total)
	if err != nil {
		return 0, 0, err
	}
	return completed, total, nil
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, tournamentID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	return err
}
