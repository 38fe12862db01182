package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.Record(Entry{
		Action:       "Archive",
		NamespaceID:  "ns-1",
		RegistryName: "patients",
		Outcome:      OutcomeSuccess,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestRecentNewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"Archive", "Restore", "Revoke"} {
		_, err := store.Record(Entry{
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			Action:       action,
			NamespaceID:  "ns-1",
			RegistryName: "patients",
			Outcome:      OutcomeSuccess,
		})
		require.NoError(t, err)
	}

	entries, err := store.Recent(Query{NamespaceID: "ns-1"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Revoke", entries[0].Action)
	assert.Equal(t, "Restore", entries[1].Action)
	assert.Equal(t, "Archive", entries[2].Action)
}

func TestRecentFilters(t *testing.T) {
	store := newTestStore(t)

	seed := []Entry{
		{Action: "Archive", NamespaceID: "ns-1", RegistryName: "patients", Outcome: OutcomeSuccess},
		{Action: "Revoke", NamespaceID: "ns-1", RegistryName: "clinics", Outcome: OutcomeFailure},
		{Action: "Restore", NamespaceID: "ns-2", RegistryName: "patients", Outcome: OutcomeSuccess},
	}
	for _, e := range seed {
		_, err := store.Record(e)
		require.NoError(t, err)
	}

	entries, err := store.Recent(Query{NamespaceID: "ns-1", RegistryName: "patients"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Archive", entries[0].Action)

	entries, err = store.Recent(Query{RegistryName: "patients"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = store.Recent(Query{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecentLimit(t *testing.T) {
	store := newTestStore(t)

	for range 5 {
		_, err := store.Record(Entry{Action: "Archive", Outcome: OutcomeSuccess})
		require.NoError(t, err)
	}

	entries, err := store.Recent(Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Record(Entry{Timestamp: old, Action: "Archive", Outcome: OutcomeSuccess})
	require.NoError(t, err)
	_, err = store.Record(Entry{Action: "Restore", Outcome: OutcomeSuccess})
	require.NoError(t, err)

	n, err := store.Prune(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := store.Recent(Query{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Restore", entries[0].Action)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Record(Entry{Action: "Archive", Outcome: OutcomeSuccess})
	require.NoError(t, err)

	entries, err := store.Recent(Query{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
