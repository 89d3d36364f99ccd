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
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomNewsInvalid    = errors.New("room news reference invalid")
	ErrRoomCreatorInvalid = errors.New("room creator reference invalid")
)

type RoomFilter struct {
	Search string
	Status *models.RoomStatus
	Limit  int
	Offset int
}

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id int) (*models.Room, error)
	List(ctx context.Context, filter RoomFilter) ([]*models.Room, error)
	Count(ctx context.Context, filter RoomFilter) (int, error)
	ListByNews(ctx context.Context, newsID int) ([]*models.Room, error)
	CountByNews(ctx context.Context, newsID int) (int, error)
	Update(ctx context.Context, room *models.Room) error
	UpdateSides(ctx context.Context, id int, side1, side2 []int64) error
	Delete(ctx context.Context, id int) error
}

type postgresRoomRepository struct {
	db *sql.DB
}

func NewPostgresRoomRepository(db *sql.DB) RoomRepository {
	return &postgresRoomRepository{db: db}
}

const roomColumns = `
	id, title, description, created_by, news_id, schedule_time, max_players,
	game_mode, kind, status, team1, team2, team1_score, team2_score, best_of,
	tournament_id, match_id, round, tournament_team1_id, tournament_team2_id, winner_team_id,
	tournament_name, simple_team1_name, simple_team2_name, winner_name, created_at`

func scanRoom(row interface{ Scan(...interface{}) error }) (*models.Room, error) {
	room := &models.Room{}
	var side1, side2 pq.Int64Array
	var tournamentID, matchID, round, team1ID, team2ID, winnerTeamID *int
	var tournamentName, simpleTeam1, simpleTeam2, winnerName *string

	err := row.Scan(
		&room.ID,
		&room.Title,
		&room.Description,
		&room.CreatedBy,
		&room.NewsID,
		&room.ScheduleTime,
		&room.MaxPlayers,
		&room.GameMode,
		&room.Kind,
		&room.Status,
		&side1,
		&side2,
		&room.Team1Score,
		&room.Team2Score,
		&room.BestOf,
		&tournamentID,
		&matchID,
		&round,
		&team1ID,
		&team2ID,
		&winnerTeamID,
		&tournamentName,
		&simpleTeam1,
		&simpleTeam2,
		&winnerName,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	room.Side1 = side1
	room.Side2 = side2

	// Вариант восстанавливается по kind; лишние колонки других вариантов игнорируются.
	switch room.Kind {
	case models.RoomTeamTournament:
		if tournamentID != nil && team1ID != nil && team2ID != nil {
			info := &models.TournamentRoomInfo{
				TournamentID: *tournamentID,
				MatchID:      matchID,
				Team1ID:      *team1ID,
				Team2ID:      *team2ID,
				WinnerTeamID: winnerTeamID,
			}
			if round != nil {
				info.Round = *round
			}
			room.Tournament = info
		}
	case models.RoomSimpleTournament:
		info := &models.SimpleTournamentInfo{WinnerName: winnerName}
		if tournamentName != nil {
			info.TournamentName = *tournamentName
		}
		if simpleTeam1 != nil {
			info.Team1Name = *simpleTeam1
		}
		if simpleTeam2 != nil {
			info.Team2Name = *simpleTeam2
		}
		room.Simple = info
	}

	return room, nil
}

func roomVariantArgs(room *models.Room) (args []interface{}) {
	var tournamentID, matchID, round, team1ID, team2ID, winnerTeamID *int
	var tournamentName, simpleTeam1, simpleTeam2, winnerName *string

	switch room.Kind {
	case models.RoomTeamTournament:
		if t := room.Tournament; t != nil {
			tournamentID = &t.TournamentID
			matchID = t.MatchID
			round = &t.Round
			team1ID = &t.Team1ID
			team2ID = &t.Team2ID
			winnerTeamID = t.WinnerTeamID
		}
	case models.RoomSimpleTournament:
		if s := room.Simple; s != nil {
			tournamentName = &s.TournamentName
			simpleTeam1 = &s.Team1Name
			simpleTeam2 = &s.Team2Name
			winnerName = s.WinnerName
		}
	}

	return []interface{}{
		tournamentID, matchID, round, team1ID, team2ID, winnerTeamID,
		tournamentName, simpleTeam1, simpleTeam2, winnerName,
	}
}

func (r *postgresRoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (
			title, description, created_by, news_id, schedule_time, max_players,
			game_mode, kind, status, team1, team2, team1_score, team2_score, best_of,
			tournament_id, match_id, round, tournament_team1_id, tournament_team2_id, winner_team_id,
			tournament_name, simple_team1_name, simple_team2_name, winner_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id, created_at`

	args := []interface{}{
		room.Title,
		room.Description,
		room.CreatedBy,
		room.NewsID,
		room.ScheduleTime,
		room.MaxPlayers,
		room.GameMode,
		room.Kind,
		room.Status,
		pq.Array(room.Side1),
		pq.Array(room.Side2),
		room.Team1Score,
		room.Team2Score,
		room.BestOf,
	}
	args = append(args, roomVariantArgs(room)...)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&room.ID, &room.CreatedAt)
	return r.handleRoomError(err)
}

func (r *postgresRoomRepository) GetByID(ctx context.Context, id int) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func buildRoomWhere(filter RoomFilter, args *[]interface{}) string {
	var conditions []string
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		conditions = append(conditions, "title ILIKE $"+strconv.Itoa(len(*args)))
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

func (r *postgresRoomRepository) queryRooms(ctx context.Context, query string, args ...interface{}) ([]*models.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*models.Room, 0)
	for rows.Next() {
		room, scanErr := scanRoom(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *postgresRoomRepository) List(ctx context.Context, filter RoomFilter) ([]*models.Room, error) {
	args := make([]interface{}, 0, 4)
	query := `SELECT ` + roomColumns + ` FROM rooms` +
		buildRoomWhere(filter, &args) +
		` ORDER BY schedule_time DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}
	return r.queryRooms(ctx, query, args...)
}

func (r *postgresRoomRepository) Count(ctx context.Context, filter RoomFilter) (int, error) {
	args := make([]interface{}, 0, 2)
	query := `SELECT count(*) FROM rooms` + buildRoomWhere(filter, &args)

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresRoomRepository) ListByNews(ctx context.Context, newsID int) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE news_id = $1 ORDER BY created_at ASC`
	return r.queryRooms(ctx, query, newsID)
}

func (r *postgresRoomRepository) CountByNews(ctx context.Context, newsID int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM rooms WHERE news_id = $1`, newsID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postgresRoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET title = $1, description = $2, schedule_time = $3, max_players = $4,
			game_mode = $5, status = $6, team1 = $7, team2 = $8,
			team1_score = $9, team2_score = $10, best_of = $11,
			tournament_id = $12, match_id = $13, round = $14,
			tournament_team1_id = $15, tournament_team2_id = $16, winner_team_id = $17,
			tournament_name = $18, simple_team1_name = $19, simple_team2_name = $20, winner_name = $21
		WHERE id = $22`

	args := []interface{}{
		room.Title,
		room.Description,
		room.ScheduleTime,
		room.MaxPlayers,
		room.GameMode,
		room.Status,
		pq.Array(room.Side1),
		pq.Array(room.Side2),
		room.Team1Score,
		room.Team2Score,
		room.BestOf,
	}
	variant := roomVariantArgs(room)
	args = append(args, variant...)
	args = append(args, room.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r.handleRoomError(err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) UpdateSides(ctx context.Context, id int, side1, side2 []int64) error {
	query := `UPDATE rooms SET team1 = $1, team2 = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, pq.Array(side1), pq.Array(side2), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) handleRoomError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
		switch pqErr.Constraint {
		case "rooms_news_id_fkey":
			return ErrRoomNewsInvalid
		case "rooms_created_by_fkey":
			return ErrRoomCreatorInvalid
		}
	}
	return err
}
