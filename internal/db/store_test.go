package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "screener.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func strPtr(s string) *string { return &s }

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and get candidate", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.CreateCandidate(ctx, id, strPtr("a@example.com")))

		c, err := store.GetCandidate(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, id, c.ID)
		assert.Equal(t, StatusInProgress, c.Status)
		assert.Equal(t, 0.0, c.AvgScore)
		require.NotNil(t, c.Email)
		assert.Equal(t, "a@example.com", *c.Email)
		assert.Nil(t, c.FinishedAt)
		assert.False(t, c.Finished())
	})

	t.Run("missing candidate returns nil", func(t *testing.T) {
		c, err := store.GetCandidate(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("duplicate candidate id fails", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.CreateCandidate(ctx, id, nil))
		assert.Error(t, store.CreateCandidate(ctx, id, nil))
	})

	t.Run("answers keep insertion order and aggregate is their mean", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.CreateCandidate(ctx, id, nil))

		scores := []float64{7.5, 0, 6.7}
		for i, s := range scores {
			var explanation *string
			if s == 0 {
				explanation = strPtr("Coaching text")
			}
			a, err := store.SaveAnswer(ctx, AnswerInput{
				CandidateID: id,
				Question:    []string{"Q1", "Q2", "Q3"}[i],
				Transcript:  "answer",
				Score:       s,
				Explanation: explanation,
			})
			require.NoError(t, err)
			assert.NotZero(t, a.ID)
		}

		n, err := store.CountAnswers(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		answers, err := store.GetAnswers(ctx, id)
		require.NoError(t, err)
		require.Len(t, answers, 3)
		assert.Equal(t, "Q1", answers[0].Question)
		assert.Equal(t, "Q3", answers[2].Question)
		require.NotNil(t, answers[1].Explanation)
		assert.Equal(t, "Coaching text", *answers[1].Explanation)
		assert.Nil(t, answers[0].Explanation)

		avg, err := store.UpdateAggregateScore(ctx, id)
		require.NoError(t, err)
		assert.InDelta(t, (7.5+0+6.7)/3, avg, 1e-9)

		c, err := store.GetCandidate(ctx, id)
		require.NoError(t, err)
		assert.InDelta(t, avg, c.AvgScore, 1e-9)
	})

	t.Run("aggregate with no answers is zero", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.CreateCandidate(ctx, id, nil))
		avg, err := store.UpdateAggregateScore(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0.0, avg)
	})

	t.Run("unknown candidate writes report not found", func(t *testing.T) {
		_, err := store.UpdateAggregateScore(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrCandidateNotFound)
		assert.ErrorIs(t, store.FinishCandidate(ctx, uuid.NewString()), ErrCandidateNotFound)
	})

	t.Run("finish is idempotent", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.CreateCandidate(ctx, id, nil))
		require.NoError(t, store.FinishCandidate(ctx, id))

		first, err := store.GetCandidate(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, first.FinishedAt)
		assert.True(t, first.Finished())

		require.NoError(t, store.FinishCandidate(ctx, id))
		second, err := store.GetCandidate(ctx, id)
		require.NoError(t, err)
		assert.True(t, first.FinishedAt.Equal(*second.FinishedAt))
	})

	t.Run("concurrent answers for one candidate are all persisted", func(t *testing.T) {
		id := uuid.NewString()
		require.NoError(t, store.CreateCandidate(ctx, id, nil))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.SaveAnswer(ctx, AnswerInput{CandidateID: id, Question: "Q", Transcript: "t", Score: 5})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		n, err := store.CountAnswers(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 8, n)
	})
}

func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, newTestSQLite(t))
}

func TestSQLiteLeaderboard(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	seed := []struct {
		id     string
		score  float64
		finish bool
	}{
		{"low", 3, true},
		{"high", 9, true},
		{"pending", 10, false},
		{"mid", 6, true},
	}
	for _, s := range seed {
		require.NoError(t, store.CreateCandidate(ctx, s.id, nil))
		_, err := store.SaveAnswer(ctx, AnswerInput{CandidateID: s.id, Question: "Q", Transcript: "t", Score: s.score})
		require.NoError(t, err)
		_, err = store.UpdateAggregateScore(ctx, s.id)
		require.NoError(t, err)
		if s.finish {
			require.NoError(t, store.FinishCandidate(ctx, s.id))
		}
	}

	entries, err := store.GetLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "high", entries[0].CandidateID)
	assert.Equal(t, "mid", entries[1].CandidateID)
	assert.Equal(t, "low", entries[2].CandidateID)

	all, err := store.ListCandidates(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMigrateSQLiteIsRepeatable(t *testing.T) {
	store := newTestSQLite(t)
	require.NoError(t, MigrateSQLite(context.Background(), store.db))

	var version int
	require.NoError(t, store.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, SQLiteSchemaVersion, version)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestMigrateSQLiteNilDB(t *testing.T) {
	assert.Error(t, MigrateSQLite(context.Background(), nil))
}
