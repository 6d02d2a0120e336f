package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/pong-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentStateInvalid = errors.New("stored tournament state is not valid json")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit int) ([]models.Tournament, error)
	Latest(ctx context.Context) (*models.Tournament, error)
	SaveState(ctx context.Context, exec SQLExecutor, id int, config *models.TournamentConfig, state json.RawMessage) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, config, app_state, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	executor := r.getExecutor(nil)
	cfg, err := jsonbArg(t.Config)
	if err != nil {
		return err
	}
	state, err := jsonbArg(t.AppState)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournaments (name, config, app_state)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err = executor.QueryRowContext(ctx, query, t.Name, cfg, state).Scan(&t.ID, &t.CreatedAt)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	executor := r.getExecutor(nil)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, limit int) ([]models.Tournament, error) {
	executor := r.getExecutor(nil)
	query := `SELECT id, name, config, NULL::jsonb, created_at FROM tournaments ORDER BY created_at DESC, id DESC`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Latest(ctx context.Context) (*models.Tournament, error) {
	executor := r.getExecutor(nil)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY created_at DESC, id DESC LIMIT 1`

	t, err := scanTournament(executor.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) SaveState(ctx context.Context, exec SQLExecutor, id int, config *models.TournamentConfig, state json.RawMessage) error {
	executor := r.getExecutor(exec)
	cfg, err := jsonbArg(config)
	if err != nil {
		return err
	}
	st, err := jsonbArg(state)
	if err != nil {
		return err
	}

	query := `UPDATE tournaments SET config = COALESCE($1, config), app_state = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, cfg, st, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var (
		t     models.Tournament
		cfg   []byte
		state []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &cfg, &state, &t.CreatedAt); err != nil {
		return nil, err
	}
	if len(cfg) > 0 {
		t.Config = &models.TournamentConfig{}
		if err := json.Unmarshal(cfg, t.Config); err != nil {
			return nil, fmt.Errorf("%w: config of tournament %d: %v", ErrTournamentStateInvalid, t.ID, err)
		}
	}
	if len(state) > 0 {
		t.AppState = json.RawMessage(state)
	}
	return &t, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "22P02", "22032":
			return fmt.Errorf("%w: %s", ErrTournamentStateInvalid, pqErr.Message)
		}
	}
	return err
}
