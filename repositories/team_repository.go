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
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name already taken")
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrTeamMemberConflict = errors.New("user already in team")
)

type TeamFilter struct {
	Search       string
	TournamentID *int
	Limit        int
	Offset       int
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context, filter TeamFilter) ([]*models.Team, error)
	Count(ctx context.Context, filter TeamFilter) (int, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id int) error

	AddMember(ctx context.Context, teamID int, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID int) error
	GetMembers(ctx context.Context, teamID int) ([]models.TeamMember, error)
	CountMembers(ctx context.Context, teamID int) (int, error)

	// RecordWin/RecordLoss атомарно инкрементят счётчики и выставляют турнирный статус.
	RecordWin(ctx context.Context, teamID int, status models.TeamTournamentStatus) error
	RecordLoss(ctx context.Context, teamID int, status models.TeamTournamentStatus) error

	SetTournament(ctx context.Context, teamID int, tournamentID *int, status models.TeamTournamentStatus) error
	SetTournamentStatus(ctx context.Context, teamID int, status models.TeamTournamentStatus) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	UpdateLogoKey(ctx context.Context, teamID int, logoKey string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `
	id, name, tag, description, captain_id, created_by,
	tournament_id, tournament_status, matches_won, matches_lost, logo_key, created_at`

func scanTeam(row interface{ Scan(...interface{}) error }) (*models.Team, error) {
	team := &models.Team{}
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Tag,
		&team.Description,
		&team.CaptainID,
		&team.CreatedBy,
		&team.TournamentID,
		&team.TournamentStatus,
		&team.MatchesWon,
		&team.MatchesLost,
		&team.LogoKey,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO teams (name, tag, description, captain_id, created_by, tournament_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		team.Name,
		team.Tag,
		team.Description,
		team.CaptainID,
		team.CreatedBy,
		team.TournamentStatus,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return r.handleTeamError(err)
	}

	// Капитан сразу попадает в состав.
	memberQuery := `
		INSERT INTO team_members (team_id, user_id, role, position)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at`

	captain := models.TeamMember{UserID: team.CaptainID, Role: models.MemberCaptain}
	err = tx.QueryRowContext(ctx, memberQuery,
		team.ID, captain.UserID, captain.Role, captain.Position,
	).Scan(&captain.JoinedAt)
	if err != nil {
		return r.handleTeamError(err)
	}
	team.Members = []models.TeamMember{captain}

	return tx.Commit()
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	members, err := r.GetMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	team.Members = members
	return team, nil
}

func buildTeamWhere(filter TeamFilter, args *[]interface{}) string {
	var conditions []string
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		conditions = append(conditions, "name ILIKE $"+strconv.Itoa(len(*args)))
	}
	if filter.TournamentID != nil {
		*args = append(*args, *filter.TournamentID)
		conditions = append(conditions, "tournament_id = $"+strconv.Itoa(len(*args)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func (r *postgresTeamRepository) queryTeams(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) List(ctx context.Context, filter TeamFilter) ([]*models.Team, error) {
	args := make([]interface{}, 0, 4)
	query := `SELECT ` + teamColumns + ` FROM teams` +
		buildTeamWhere(filter, &args) +
		` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}
	return r.queryTeams(ctx, query, args...)
}

func (r *postgresTeamRepository) Count(ctx context.Context, filter TeamFilter) (int, error) {
	args := make([]interface{}, 0, 2)
	query := `SELECT count(*) FROM teams` + buildTeamWhere(filter, &args)

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams
		SET name = $1, tag = $2, description = $3, captain_id = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		team.Name,
		team.Tag,
		team.Description,
		team.CaptainID,
		team.ID,
	)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID int, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role, position)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at`

	err := r.db.QueryRowContext(ctx, query,
		teamID, member.UserID, member.Role, member.Position,
	).Scan(&member.JoinedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, teamID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamMemberNotFound)
}

func (r *postgresTeamRepository) GetMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT user_id, role, position, joined_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if scanErr := rows.Scan(&m.UserID, &m.Role, &m.Position, &m.JoinedAt); scanErr != nil {
			return nil, scanErr
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) CountMembers(ctx context.Context, teamID int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM team_members WHERE team_id = $1`, teamID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresTeamRepository) RecordWin(ctx context.Context, teamID int, status models.TeamTournamentStatus) error {
	query := `
		UPDATE teams
		SET matches_won = matches_won + 1, tournament_status = $1
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) RecordLoss(ctx context.Context, teamID int, status models.TeamTournamentStatus) error {
	query := `
		UPDATE teams
		SET matches_lost = matches_lost + 1, tournament_status = $1
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) SetTournament(ctx context.Context, teamID int, tournamentID *int, status models.TeamTournamentStatus) error {
	query := `
		UPDATE teams
		SET tournament_id = $1, tournament_status = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, tournamentID, status, teamID)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) SetTournamentStatus(ctx context.Context, teamID int, status models.TeamTournamentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET tournament_status = $1 WHERE id = $2`, status, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY created_at ASC`
	return r.queryTeams(ctx, query, tournamentID)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, teamID int, logoKey string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET logo_key = $1 WHERE id = $2`, logoKey, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			switch pqErr.Constraint {
			case "teams_name_key":
				return ErrTeamNameConflict
			case "team_members_pkey":
				return ErrTeamMemberConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "team_members_team_id_fkey" {
				return ErrTeamNotFound
			}
		}
	}
	return err
}
