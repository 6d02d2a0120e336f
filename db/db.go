package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("failed to close database handle after ping error: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id         SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		name       TEXT,
		config     JSONB,
		app_state  JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS match_events (
		id            SERIAL PRIMARY KEY,
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		match_id      TEXT NOT NULL,
		hit_number    INTEGER NOT NULL,
		game_time_str TEXT NOT NULL,
		game_time_sec INTEGER NOT NULL,
		phase         TEXT NOT NULL,
		event_type    TEXT NOT NULL,
		team_name     TEXT NOT NULL,
		player_name   TEXT,
		cup_hit       TEXT NOT NULL DEFAULT '',
		cups_left     TEXT NOT NULL,
		notes         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_match_events_tournament ON match_events (tournament_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_tournaments_created_at ON tournaments (created_at DESC)`,
}

// Migrate создает схему БД. Можно вызывать при каждом запуске.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}
