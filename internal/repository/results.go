package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// PlayerResult is one seat's final score.
type PlayerResult struct {
	Name  string
	Score int
	Rank  int
}

// GameResult is the outcome of a finished game.
type GameResult struct {
	GameID     string
	Kingdom    []string
	Turns      int
	Players    []PlayerResult
	FinishedAt time.Time
}

// ResultRepository stores finished games.
type ResultRepository struct {
	db Querier
}

// NewResultRepository creates a result repository.
func NewResultRepository(db Querier) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveResult writes the game row and one row per player in a single batch.
func (r *ResultRepository) SaveResult(ctx context.Context, result GameResult) error {
	if result.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}

	b := &pgx.Batch{}
	b.Queue(
		`INSERT INTO game_results (game_id, kingdom, turns, finished_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id) DO NOTHING`,
		result.GameID, result.Kingdom, result.Turns, result.FinishedAt,
	)
	for _, p := range result.Players {
		b.Queue(
			`INSERT INTO game_players (game_id, player_name, score, rank) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (game_id, player_name) DO NOTHING`,
			result.GameID, p.Name, p.Score, p.Rank,
		)
	}

	if err := execBatch(ctx, r.db, b); err != nil {
		return fmt.Errorf("failed to save result for game %s: %w", result.GameID, err)
	}
	return nil
}

// WinCount returns how many games a player finished in first place.
func (r *ResultRepository) WinCount(ctx context.Context, name string) (int, error) {
	var wins int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM game_players WHERE player_name = $1 AND rank = 1`,
		name,
	).Scan(&wins)
	if err != nil {
		return 0, fmt.Errorf("failed to count wins for %q: %w", name, err)
	}
	return wins, nil
}
