package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d values, got %d", len(dest), len(r.values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeBatchResults struct {
	remaining int
	failAt    int
	err       error
	closed    bool
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	b.remaining--
	if b.err != nil && b.remaining == b.failAt {
		return pgconn.CommandTag{}, b.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (b *fakeBatchResults) QueryRow() pgx.Row        { return fakeRow{err: errors.New("not supported")} }
func (b *fakeBatchResults) Close() error             { b.closed = true; return nil }

type fakeQuerier struct {
	execs    []string
	execErr  error
	row      fakeRow
	queries  []string
	args     [][]any
	batches  []*pgx.Batch
	batchErr error
	results  []*fakeBatchResults
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), q.execErr
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.queries = append(q.queries, sql)
	q.args = append(q.args, args)
	return q.row
}

func (q *fakeQuerier) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	q.batches = append(q.batches, b)
	res := &fakeBatchResults{remaining: b.Len(), failAt: 0, err: q.batchErr}
	q.results = append(q.results, res)
	return res
}

func TestMigrate(t *testing.T) {
	q := &fakeQuerier{}
	require.NoError(t, migrate(context.Background(), q, zaptest.NewLogger(t)))
	assert.Len(t, q.execs, len(schema))
	assert.Contains(t, q.execs[0], "CREATE TABLE IF NOT EXISTS users")

	q = &fakeQuerier{execErr: errors.New("permission denied")}
	err := migrate(context.Background(), q, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 0 failed")
}

func TestUserRepositoryGetByName(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{values: []any{int64(7), "alice", "hash", created}}}
	repo := NewUserRepository(q)

	u, err := repo.GetByName(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, created, u.CreatedAt)
	assert.Equal(t, []any{"alice"}, q.args[0])
}

func TestUserRepositoryNotFound(t *testing.T) {
	repo := NewUserRepository(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})
	_, err := repo.GetByName(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	repo = NewUserRepository(&fakeQuerier{row: fakeRow{err: errors.New("conn reset")}})
	_, err = repo.GetByName(context.Background(), "nobody")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepositoryCreate(t *testing.T) {
	now := time.Now()
	q := &fakeQuerier{row: fakeRow{values: []any{int64(3), now}}}
	u, err := NewUserRepository(q).Create(context.Background(), "bob", "h")
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, "bob", u.Name)
	assert.Equal(t, now, u.CreatedAt)

	dup := &fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: uniqueViolation}}}
	_, err = NewUserRepository(dup).Create(context.Background(), "bob", "h")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestResultRepositorySaveResult(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewResultRepository(q)

	err := repo.SaveResult(context.Background(), GameResult{
		GameID:  "g1",
		Kingdom: []string{"Village", "Smithy"},
		Turns:   18,
		Players: []PlayerResult{
			{Name: "alice", Score: 30, Rank: 1},
			{Name: "bob", Score: 21, Rank: 2},
		},
	})
	require.NoError(t, err)

	require.Len(t, q.batches, 1)
	b := q.batches[0]
	assert.Equal(t, 3, b.Len())
	assert.Contains(t, b.QueuedQueries[0].SQL, "game_results")
	assert.Equal(t, "g1", b.QueuedQueries[0].Arguments[0])
	assert.Equal(t, "bob", b.QueuedQueries[2].Arguments[1])
	assert.True(t, q.results[0].closed)
}

func TestResultRepositorySaveResultErrors(t *testing.T) {
	repo := NewResultRepository(&fakeQuerier{})
	assert.Error(t, repo.SaveResult(context.Background(), GameResult{}))

	q := &fakeQuerier{batchErr: errors.New("deadlock")}
	err := NewResultRepository(q).SaveResult(context.Background(), GameResult{GameID: "g2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "g2")
	assert.True(t, q.results[0].closed)
}

func TestResultRepositoryWinCount(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{4}}}
	wins, err := NewResultRepository(q).WinCount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, wins)
}

func TestCardRepositoryUpsertBatches(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewCardRepository(q)
	repo.batchSize = 2

	cards := []CardRecord{
		{Name: "Copper", Set: "base", Type: "Treasure", Cost: 0, Supply: "base"},
		{Name: "Village", Set: "base", Type: "Action", Cost: 3, Supply: "kingdom"},
		{Name: "Smithy", Set: "base", Type: "Action", Cost: 4},
	}
	n, err := repo.Upsert(context.Background(), cards)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, q.batches, 2)
	assert.Equal(t, 2, q.batches[0].Len())
	assert.Equal(t, 1, q.batches[1].Len())
	assert.Equal(t, "Smithy", q.batches[1].QueuedQueries[0].Arguments[0])
}

func TestCardRepositoryCount(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{int64(42)}}}
	n, err := NewCardRepository(q).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
