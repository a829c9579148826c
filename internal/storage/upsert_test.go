package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUpsertSymbol_UniqueConstraint verifies that the UPSERT operation
// works correctly with the UNIQUE constraint on symbols table
func TestUpsertSymbol_UniqueConstraint(t *testing.T) {
	// Create in-memory database
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	project := createTestProject(t, store)

	// First insert - should succeed
	symbol1 := &Symbol{
		ProjectID:   project.ID,
		Key:         "example.com/test/pkg.Server.Start",
		Name:        "Start",
		Kind:        "method",
		PackagePath: "example.com/test/pkg",
		Exported:    true,
	}
	err = store.UpsertSymbol(ctx, symbol1)
	require.NoError(t, err, "First insert should succeed")
	assert.NotZero(t, symbol1.ID, "Symbol ID should be set")
	firstID := symbol1.ID

	// Second insert with same key - should update, not fail
	symbol2 := &Symbol{
		ProjectID:   project.ID,
		Key:         "example.com/test/pkg.Server.Start",
		Name:        "Start",
		Kind:        "function",
		PackagePath: "example.com/test/pkg",
		Exported:    true,
	}
	err = store.UpsertSymbol(ctx, symbol2)
	require.NoError(t, err, "Upsert with same key should succeed")
	assert.Equal(t, firstID, symbol2.ID, "Upsert should keep the existing row")

	got, err := store.GetSymbolByKey(ctx, project.ID, symbol1.Key)
	require.NoError(t, err)
	assert.Equal(t, "function", got.Kind, "Kind should be updated")

	// Same key in another project creates a separate row
	other := &Project{RootPath: "/other", IndexVersion: CurrentSchemaVersion}
	require.NoError(t, store.CreateProject(ctx, other))
	symbol3 := *symbol1
	symbol3.ID = 0
	symbol3.ProjectID = other.ID
	require.NoError(t, store.UpsertSymbol(ctx, &symbol3))
	assert.NotEqual(t, firstID, symbol3.ID)
}

// TestUpsertFile_SequentialTransactions checks that upserts inside separate
// transactions on the same path resolve to one row
func TestUpsertFile_SequentialTransactions(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	project := createTestProject(t, store)

	var ids []int64
	for i := 0; i < 3; i++ {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		f := createTestFile(t, tx, project.ID, "same.go")
		ids = append(ids, f.ID)
		require.NoError(t, tx.Commit())
	}
	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, ids[1], ids[2])

	files, err := store.ListFiles(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
