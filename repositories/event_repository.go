package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/pong-tournament/models"
	"github.com/lib/pq"
)

var ErrEventTournamentInvalid = errors.New("event references an unknown tournament")

// EventRepository хранит журнал событий матчей (только добавление).
type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.MatchEvent) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchEvent, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, e *models.MatchEvent) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_events (
			tournament_id, match_id, hit_number, game_time_str, game_time_sec,
			phase, event_type, team_name, player_name, cup_hit, cups_left, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		e.TournamentID, e.MatchID, e.HitNumber, e.GameTimeStr, e.GameTimeSec,
		e.Phase, e.EventType, e.TeamName, e.PlayerName, e.CupHit, e.CupsLeft, e.Notes,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrEventTournamentInvalid
		}
		return err
	}
	return nil
}

func (r *postgresEventRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchEvent, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT
			id, tournament_id, match_id, hit_number, game_time_str, game_time_sec,
			phase, event_type, team_name, player_name, cup_hit, cups_left, notes, created_at
		FROM match_events
		WHERE tournament_id = $1
		ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.MatchEvent, 0)
	for rows.Next() {
		var e models.MatchEvent
		if scanErr := rows.Scan(
			&e.ID, &e.TournamentID, &e.MatchID, &e.HitNumber, &e.GameTimeStr, &e.GameTimeSec,
			&e.Phase, &e.EventType, &e.TeamName, &e.PlayerName, &e.CupHit, &e.CupsLeft, &e.Notes, &e.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
