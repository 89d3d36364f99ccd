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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already taken")
)

type TournamentFilter struct {
	Search string
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error)
	Count(ctx context.Context, filter TournamentFilter) (int, error)
	Update(ctx context.Context, t *models.Tournament) error
	Delete(ctx context.Context, id int) error

	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	SetCurrentRound(ctx context.Context, id, round int) error
	SetChampion(ctx context.Context, id, championID int) error

	// UpsertRoundWinners перезаписывает список победителей раунда целиком,
	// поэтому повторный вызов для того же раунда безопасен.
	UpsertRoundWinners(ctx context.Context, tournamentID, round int, teamIDs []int) error
	GetRoundWinners(ctx context.Context, tournamentID int) ([]models.RoundWinners, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, description, game_type, game_mode, default_best_of, max_teams, team_size,
	status, current_round, champion_id, created_by, news_id, start_date, end_date, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.GameType,
		&t.GameMode,
		&t.DefaultBestOf,
		&t.MaxTeams,
		&t.TeamSize,
		&t.Status,
		&t.CurrentRound,
		&t.ChampionID,
		&t.CreatedBy,
		&t.NewsID,
		&t.StartDate,
		&t.EndDate,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, description, game_type, game_mode, default_best_of, max_teams, team_size,
			status, current_round, created_by, news_id, start_date, end_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name,
		t.Description,
		t.GameType,
		t.GameMode,
		t.DefaultBestOf,
		t.MaxTeams,
		t.TeamSize,
		t.Status,
		t.CurrentRound,
		t.CreatedBy,
		t.NewsID,
		t.StartDate,
		t.EndDate,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func buildTournamentWhere(filter TournamentFilter, args *[]interface{}) string {
	var conditions []string
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		conditions = append(conditions, "name ILIKE $"+strconv.Itoa(len(*args)))
	}
	if filter.Status != nil {
		*args = append(*args, *filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(*args)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error) {
	args := make([]interface{}, 0, 4)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments` +
		buildTournamentWhere(filter, &args) +
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

	items := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *postgresTournamentRepository) Count(ctx context.Context, filter TournamentFilter) (int, error) {
	args := make([]interface{}, 0, 2)
	query := `SELECT count(*) FROM tournaments` + buildTournamentWhere(filter, &args)

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $1, description = $2, game_type = $3, game_mode = $4,
			default_best_of = $5, max_teams = $6, team_size = $7,
			status = $8, news_id = $9, start_date = $10, end_date = $11
		WHERE id = $12`

	result, err := r.db.ExecContext(ctx, query,
		t.Name,
		t.Description,
		t.GameType,
		t.GameMode,
		t.DefaultBestOf,
		t.MaxTeams,
		t.TeamSize,
		t.Status,
		t.NewsID,
		t.StartDate,
		t.EndDate,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetCurrentRound(ctx context.Context, id, round int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET current_round = $1 WHERE id = $2`, round, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetChampion(ctx context.Context, id, championID int) error {
	query := `
		UPDATE tournaments
		SET champion_id = $1, status = 'completed', end_date = now()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, championID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpsertRoundWinners(ctx context.Context, tournamentID, round int, teamIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM tournament_round_winners WHERE tournament_id = $1 AND round = $2`,
		tournamentID, round)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tournament_round_winners (tournament_id, round, team_id)
		SELECT $1, $2, unnest($3::int[])`,
		tournamentID, round, pq.Array(teamIDs))
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresTournamentRepository) GetRoundWinners(ctx context.Context, tournamentID int) ([]models.RoundWinners, error) {
	query := `
		SELECT round, team_id
		FROM tournament_round_winners
		WHERE tournament_id = $1
		ORDER BY round ASC, team_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := make([]models.RoundWinners, 0)
	for rows.Next() {
		var round, teamID int
		if scanErr := rows.Scan(&round, &teamID); scanErr != nil {
			return nil, scanErr
		}
		if n := len(winners); n > 0 && winners[n-1].Round == round {
			winners[n-1].TeamIDs = append(winners[n-1].TeamIDs, teamID)
		} else {
			winners = append(winners, models.RoundWinners{Round: round, TeamIDs: []int{teamID}})
		}
	}
	return winners, rows.Err()
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		if pqErr.Constraint == "tournaments_name_key" {
			return ErrTournamentNameConflict
		}
	}
	return err
}
