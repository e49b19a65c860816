package glossary

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/glosshover/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	// Use in-memory SQLite database for testing
	dbName := fmt.Sprintf("file:memdb_terms_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	store, err := NewStoreWithDB(db)
	require.NoError(t, err, "Failed to run migrations")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, model.Term{Term: " Cat ", Definition: "A feline"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "Id should be assigned")
	assert.Equal(t, "Cat", created.Term, "Term should be trimmed")

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrTermNotFound), "Missing id should be ErrTermNotFound")
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Create(context.Background(), model.Term{Term: "   "})
	assert.True(t, errors.Is(err, ErrInvalidGlossary))

	_, err = store.Create(context.Background(), model.Term{Term: "x", Permalink: "not a url"})
	assert.True(t, errors.Is(err, ErrInvalidGlossary))
}

func TestStore_ListKeepsInsertionOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, word := range []string{"zebra", "apple", "mango"} {
		_, err := store.Create(ctx, model.Term{ID: word, Term: word})
		require.NoError(t, err)
	}

	// Updating an early term must not move it
	_, err := store.Upsert(ctx, model.Term{ID: "zebra", Term: "zebra", Definition: "striped"})
	require.NoError(t, err)

	terms, err := store.Terms(ctx)
	require.NoError(t, err)
	require.Len(t, terms, 3)
	assert.Equal(t, "zebra", terms[0].Term)
	assert.Equal(t, "striped", terms[0].Definition)
	assert.Equal(t, "apple", terms[1].Term)
	assert.Equal(t, "mango", terms[2].Term)
}

func TestStore_Import(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	n, err := store.Import(ctx, []model.Term{
		{ID: "1", Term: "alpha", Definition: "first"},
		{ID: "2", Term: "beta", Definition: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-import updates in place and appends new entries
	n, err = store.Import(ctx, []model.Term{
		{ID: "2", Term: "beta", Definition: "changed"},
		{ID: "3", Term: "gamma"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	terms, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, terms, 3)
	assert.Equal(t, "changed", terms[1].Definition)
	assert.Equal(t, "gamma", terms[2].Term)
}

func TestStore_ImportIsAllOrNothing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Import(ctx, []model.Term{
		{ID: "1", Term: "alpha"},
		{ID: "2", Term: ""},
	})
	assert.True(t, errors.Is(err, ErrInvalidGlossary))

	terms, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, terms, "No terms should be written when validation fails")
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, model.Term{ID: "x", Term: "x"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "x"))
	assert.True(t, errors.Is(store.Delete(ctx, "x"), ErrTermNotFound))
}
