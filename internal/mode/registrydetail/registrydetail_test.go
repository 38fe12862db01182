package registrydetail

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dedi/internal/api"
	"dedi/internal/flags"
	"dedi/internal/journal"
	"dedi/internal/keys"
	"dedi/internal/mode"
	"dedi/internal/mode/shared"
	"dedi/internal/testutil"
)

func newServices(client *testutil.FakeClient, flagValues map[string]bool) mode.Services {
	return mode.Services{
		Client:    client,
		Keys:      keys.DefaultKeyMap(),
		Flags:     flags.New(flagValues),
		Clipboard: &shared.MockClipboard{},
		Clock:     shared.MockClock{Time: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)},
	}
}

// collect executes cmd and flattens any batches into a message slice.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(t, c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newModel(svc mode.Services, opts ...testutil.RegistryOption) Model {
	reg := testutil.BuildRegistry("r1", "patients",
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), opts...)
	m := New(svc, testutil.BuildNamespace("ns-1", "health-data"), reg)
	return m.SetSize(100, 40).(Model)
}

func TestOverviewShowsMetadata(t *testing.T) {
	m := newModel(newServices(&testutil.FakeClient{}, nil),
		testutil.WithVersion("2", 3), testutil.WithRegistryDescription("Patient registry"))

	view := m.View()
	assert.Contains(t, view, "patients")
	assert.Contains(t, view, "v2")
	assert.Contains(t, view, "3 versions")
	assert.Contains(t, view, "sha256:abc")
}

func TestPageCycleSkipsRecordsWithoutFlag(t *testing.T) {
	m := newModel(newServices(&testutil.FakeClient{}, nil))

	pages := m.pages()
	assert.Equal(t, []Page{PageOverview, PageSchema, PageActivity}, pages)

	c, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	assert.Equal(t, PageSchema, c.(Model).page)
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	assert.Equal(t, PageActivity, c.(Model).page)
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	assert.Equal(t, PageOverview, c.(Model).page, "cycle wraps")
}

func TestRecordsPageBehindFlag(t *testing.T) {
	m := newModel(newServices(&testutil.FakeClient{}, map[string]bool{
		flags.FlagRecordsPreview: true,
	}), testutil.WithSchema(`{"properties":{"name":{"type":"string"},"age":{"type":"number"}}}`))

	assert.Contains(t, m.pages(), PageRecords)
	m.page = PageRecords
	view := m.View()
	assert.Contains(t, view, "Sample data")
	assert.Contains(t, view, "name")
	assert.Contains(t, view, "age")
}

func TestSchemaDiffBehindFlag(t *testing.T) {
	m := newModel(newServices(&testutil.FakeClient{}, nil))
	m.page = PageSchema

	c, cmd := m.Update(keyRune('d'))
	assert.False(t, c.(Model).diffShown, "diff is inert without the flag")
	assert.Nil(t, cmd)
}

func TestSchemaDiffComparesLatestTwoVersions(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	client := &testutil.FakeClient{
		QueryNamespaceFunc: func(ctx context.Context, namespaceID string, status api.RegistryStatus) (*api.NamespaceQuery, error) {
			assert.Equal(t, api.StatusAll, status, "the diff needs every version")
			return &api.NamespaceQuery{Registries: []api.Registry{
				testutil.BuildRegistry("r1", "patients", jan,
					testutil.WithSchema(`{"properties":{"name":{"type":"string"}}}`)),
				testutil.BuildRegistry("r2", "clinics", jan),
				testutil.BuildRegistry("r1", "patients", feb,
					testutil.WithSchema(`{"properties":{"name":{"type":"string"},"age":{"type":"number"}}}`)),
			}}, nil
		},
	}
	m := newModel(newServices(client, map[string]bool{flags.FlagSchemaDiff: true}))
	m.page = PageSchema

	c, cmd := m.Update(keyRune('d'))
	require.True(t, c.(Model).diffShown)

	var snaps snapshotsMsg
	found := false
	for _, msg := range collect(t, cmd) {
		if s, ok := msg.(snapshotsMsg); ok {
			snaps = s
			found = true
		}
	}
	require.True(t, found)
	require.NoError(t, snaps.err)
	require.Len(t, snaps.snapshots, 2, "other registries are excluded")

	c, _ = c.Update(snaps)
	cm := c.(Model)
	require.NoError(t, cm.diffErr)
	require.NotEmpty(t, cm.diffLines, "added property shows as a diff")
	assert.Contains(t, c.View(), "age")
}

func TestDiffWithSingleVersionReportsNothingToCompare(t *testing.T) {
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	client := &testutil.FakeClient{
		QueryNamespaceFunc: func(ctx context.Context, namespaceID string, status api.RegistryStatus) (*api.NamespaceQuery, error) {
			return &api.NamespaceQuery{Registries: []api.Registry{
				testutil.BuildRegistry("r1", "patients", feb),
			}}, nil
		},
	}
	m := newModel(newServices(client, map[string]bool{flags.FlagSchemaDiff: true}))
	m.page = PageSchema
	m.diffShown = true
	m.diffLoading = true
	m.fetchSeq = 1

	c, _ := m.Update(snapshotsMsg{seq: 1, snapshots: []api.Registry{
		testutil.BuildRegistry("r1", "patients", feb),
	}})
	assert.Error(t, c.(Model).diffErr)
	assert.Contains(t, c.View(), "Diff unavailable")
}

func TestActivityTimeline(t *testing.T) {
	store, err := journal.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Record(journal.Entry{
		Action:       "archive-registry",
		NamespaceID:  "ns-1",
		RegistryName: "patients",
		Outcome:      journal.OutcomeSuccess,
	})
	require.NoError(t, err)
	_, err = store.Record(journal.Entry{
		Action:       "revoke-registry",
		NamespaceID:  "ns-1",
		RegistryName: "clinics",
		Outcome:      journal.OutcomeFailure,
	})
	require.NoError(t, err)

	svc := newServices(&testutil.FakeClient{}, nil)
	svc.Journal = store
	m := newModel(svc)

	msgs := collect(t, m.Init())
	require.Len(t, msgs, 1)
	activity, ok := msgs[0].(activityMsg)
	require.True(t, ok)
	require.NoError(t, activity.err)
	require.Len(t, activity.entries, 1, "only entries for this registry appear")
	assert.Equal(t, "archive-registry", activity.entries[0].Action)

	c, _ := m.Update(activity)
	cm := c.(Model)
	cm.page = PageActivity
	assert.Contains(t, cm.View(), "archive-registry")
	assert.NotContains(t, cm.View(), "revoke-registry")
}

func TestYankCopiesRegistryID(t *testing.T) {
	svc := newServices(&testutil.FakeClient{}, nil)
	clip := svc.Clipboard.(*shared.MockClipboard)
	m := newModel(svc)

	_, cmd := m.Update(keyRune('y'))
	msgs := collect(t, cmd)
	require.Len(t, msgs, 1)
	toast, ok := msgs[0].(mode.ShowToastMsg)
	require.True(t, ok)
	assert.Equal(t, "Copied: r1", toast.Message)
	assert.Equal(t, []string{"r1"}, clip.Copied)
}

func TestBackLeavesDetail(t *testing.T) {
	m := newModel(newServices(&testutil.FakeClient{}, nil))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	msgs := collect(t, cmd)
	require.Len(t, msgs, 1)
	_, ok := msgs[0].(mode.BackMsg)
	assert.True(t, ok)

	// Esc on a shown diff collapses the diff instead of leaving.
	m.page = PageSchema
	m.diffShown = true
	c, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	assert.Nil(t, cmd)
	assert.False(t, c.(Model).diffShown)
}
