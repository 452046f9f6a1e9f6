package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CardRecord is one catalog row.
type CardRecord struct {
	Name   string
	Set    string
	Type   string
	Cost   int
	Text   string
	VP     int
	Supply string
}

// CardRepository stores the card catalog.
type CardRepository struct {
	db        Querier
	batchSize int
}

// NewCardRepository creates a card repository.
func NewCardRepository(db Querier) *CardRepository {
	return &CardRepository{db: db, batchSize: 500}
}

// Upsert inserts or updates every record, batchSize rows per round trip.
func (r *CardRepository) Upsert(ctx context.Context, cards []CardRecord) (int, error) {
	written := 0
	for start := 0; start < len(cards); start += r.batchSize {
		end := start + r.batchSize
		if end > len(cards) {
			end = len(cards)
		}

		b := &pgx.Batch{}
		for _, c := range cards[start:end] {
			b.Queue(`
				INSERT INTO cards (name, card_set, card_type, cost, rules_text, victory_points, supply)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (name) DO UPDATE SET
					card_set = EXCLUDED.card_set,
					card_type = EXCLUDED.card_type,
					cost = EXCLUDED.cost,
					rules_text = EXCLUDED.rules_text,
					victory_points = EXCLUDED.victory_points,
					supply = EXCLUDED.supply
			`, c.Name, c.Set, c.Type, c.Cost, c.Text, c.VP, c.Supply)
		}
		if err := execBatch(ctx, r.db, b); err != nil {
			return written, fmt.Errorf("failed to upsert cards %d-%d: %w", start, end-1, err)
		}
		written = end
	}
	return written, nil
}

// Count returns the number of stored cards.
func (r *CardRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}
