package namespaces

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dedi/internal/api"
	"dedi/internal/cachemanager"
	"dedi/internal/journal"
	"dedi/internal/keys"
	"dedi/internal/mode"
	"dedi/internal/mode/shared"
	"dedi/internal/testutil"
	"dedi/internal/ui/modal"
	"dedi/internal/ui/toaster"
)

func newServices(client *testutil.FakeClient) mode.Services {
	return mode.Services{
		Client:         client,
		Keys:           keys.DefaultKeyMap(),
		NamespaceCache: cachemanager.NewInMemoryCacheManager[[]api.Namespace]("namespaces", time.Minute, time.Minute),
		Clipboard:      &shared.MockClipboard{},
		Clock:          shared.MockClock{Time: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)},
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

func findToast(t *testing.T, msgs []tea.Msg) (mode.ShowToastMsg, bool) {
	t.Helper()
	for _, msg := range msgs {
		if toast, ok := msg.(mode.ShowToastMsg); ok {
			return toast, true
		}
	}
	return mode.ShowToastMsg{}, false
}

func loadedModel(t *testing.T, svc mode.Services, namespaces []api.Namespace) Model {
	t.Helper()
	m := New(svc)
	m = m.SetSize(100, 40).(Model)
	c, _ := m.Update(namespacesMsg{seq: 0, namespaces: namespaces})
	return c.(Model)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestLoadFetchesAndCaches(t *testing.T) {
	client := &testutil.FakeClient{
		NamespacesByProfileFunc: func(ctx context.Context) ([]api.Namespace, error) {
			return []api.Namespace{testutil.BuildNamespace("ns-1", "health-data")}, nil
		},
	}
	svc := newServices(client)
	m := New(svc)
	m = m.SetSize(100, 40).(Model)

	msgs := collect(t, m.load(0, false))
	require.Len(t, msgs, 1)
	loaded, ok := msgs[0].(namespacesMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)
	assert.Equal(t, 1, client.CallCount("NamespacesByProfile"))

	// Second load is served from the cache.
	collect(t, m.load(0, false))
	assert.Equal(t, 1, client.CallCount("NamespacesByProfile"))

	c, _ := m.Update(loaded)
	assert.Contains(t, c.View(), "health-data")
}

func TestRefreshBypassesCache(t *testing.T) {
	client := &testutil.FakeClient{}
	svc := newServices(client)
	svc.NamespaceCache.Set(context.Background(), cacheKey,
		[]api.Namespace{testutil.BuildNamespace("ns-1", "stale")}, time.Minute)

	m := loadedModel(t, svc, []api.Namespace{testutil.BuildNamespace("ns-1", "stale")})
	c, cmd := m.Update(keyRune('r'))
	msgs := collect(t, cmd)

	assert.Equal(t, 1, client.CallCount("NamespacesByProfile"), "refresh must hit the API")

	var loaded namespacesMsg
	for _, msg := range msgs {
		if l, ok := msg.(namespacesMsg); ok {
			loaded = l
		}
	}
	require.NoError(t, loaded.err)
	c, _ = c.Update(loaded)
	assert.NotContains(t, c.View(), "stale")
}

func TestStaleFetchDiscarded(t *testing.T) {
	m := loadedModel(t, newServices(&testutil.FakeClient{}),
		[]api.Namespace{testutil.BuildNamespace("ns-1", "current")})

	c, _ := m.Update(namespacesMsg{seq: 7, namespaces: []api.Namespace{
		testutil.BuildNamespace("ns-9", "intruder"),
	}})

	view := c.View()
	assert.Contains(t, view, "current")
	assert.NotContains(t, view, "intruder")
}

func TestCreateNamespaceFlow(t *testing.T) {
	var gotReq api.CreateNamespaceRequest
	client := &testutil.FakeClient{
		CreateNamespaceFunc: func(ctx context.Context, req api.CreateNamespaceRequest) (*api.Namespace, error) {
			gotReq = req
			ns := testutil.BuildNamespace("ns-new", req.Name)
			return &ns, nil
		},
	}
	svc := newServices(client)
	store, err := journal.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()
	svc.Journal = store

	m := loadedModel(t, svc, nil)
	c, _ := m.Update(keyRune('n'))
	assert.Equal(t, ViewCreateModal, c.(Model).view)

	c, cmd := c.Update(modal.SubmitMsg{Values: map[string]string{
		"name":        "clinical-trials",
		"description": "Trial registries",
	}})
	msgs := collect(t, cmd)
	require.Len(t, msgs, 1)
	created, ok := msgs[0].(createdMsg)
	require.True(t, ok)
	require.NoError(t, created.err)
	assert.Equal(t, "clinical-trials", gotReq.Name)
	assert.Equal(t, "Trial registries", gotReq.Description)

	_, cmd = c.Update(created)
	msgs = collect(t, cmd)
	toast, ok := findToast(t, msgs)
	require.True(t, ok)
	assert.Equal(t, "Namespace created successfully", toast.Message)
	assert.Equal(t, toaster.StyleSuccess, toast.Style)

	entries, err := store.Recent(journal.Query{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "create-namespace", entries[0].Action)
	assert.Equal(t, journal.OutcomeSuccess, entries[0].Outcome)
}

func TestCreateFailureShowsServerMessage(t *testing.T) {
	m := loadedModel(t, newServices(&testutil.FakeClient{}), nil)

	_, cmd := m.Update(createdMsg{name: "dupe", err: &api.APIError{
		Status: 409, Message: "Namespace already exists",
	}})
	toast, ok := findToast(t, collect(t, cmd))
	require.True(t, ok)
	assert.Equal(t, "Namespace already exists", toast.Message)
	assert.Equal(t, toaster.StyleError, toast.Style)
}

func TestEditNamespacePrefillsAndUpdates(t *testing.T) {
	var gotID string
	var gotReq api.UpdateNamespaceRequest
	client := &testutil.FakeClient{
		UpdateNamespaceFunc: func(ctx context.Context, namespaceID string, req api.UpdateNamespaceRequest) error {
			gotID = namespaceID
			gotReq = req
			return nil
		},
	}
	m := loadedModel(t, newServices(client),
		[]api.Namespace{testutil.BuildNamespace("ns-1", "health-data")})

	c, _ := m.Update(keyRune('e'))
	assert.Equal(t, ViewEditModal, c.(Model).view)
	assert.Contains(t, c.View(), "health-data", "edit modal prefills the current name")

	c, cmd := c.Update(modal.SubmitMsg{Values: map[string]string{
		"name":        "health-data-v2",
		"description": "",
	}})
	msgs := collect(t, cmd)
	require.Len(t, msgs, 1)
	updated, ok := msgs[0].(updatedMsg)
	require.True(t, ok)
	require.NoError(t, updated.err)
	assert.Equal(t, "ns-1", gotID)
	assert.Equal(t, "health-data-v2", gotReq.Name)

	_, cmd = c.Update(updated)
	toast, ok := findToast(t, collect(t, cmd))
	require.True(t, ok)
	assert.Equal(t, "Namespace updated", toast.Message)
}

func TestYankCopiesNamespaceID(t *testing.T) {
	svc := newServices(&testutil.FakeClient{})
	clip := svc.Clipboard.(*shared.MockClipboard)
	m := loadedModel(t, svc, []api.Namespace{testutil.BuildNamespace("ns-1", "health-data")})

	_, cmd := m.Update(keyRune('y'))
	toast, ok := findToast(t, collect(t, cmd))
	require.True(t, ok)
	assert.Equal(t, "Copied: ns-1", toast.Message)
	assert.Equal(t, []string{"ns-1"}, clip.Copied)
}

func TestEnterOpensRegistries(t *testing.T) {
	m := loadedModel(t, newServices(&testutil.FakeClient{}),
		[]api.Namespace{testutil.BuildNamespace("ns-1", "health-data")})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msgs := collect(t, cmd)
	require.Len(t, msgs, 1)
	open, ok := msgs[0].(mode.OpenRegistriesMsg)
	require.True(t, ok)
	assert.Equal(t, "ns-1", open.Namespace.NamespaceID)
}

func TestDomainVerificationFlow(t *testing.T) {
	client := &testutil.FakeClient{
		GenerateDNSTxtFunc: func(ctx context.Context, namespaceID, domain string) (string, error) {
			return "dedi-verify=token-abc", nil
		},
	}
	svc := newServices(client)
	clip := svc.Clipboard.(*shared.MockClipboard)
	m := loadedModel(t, svc, []api.Namespace{testutil.BuildNamespace("ns-1", "health-data")})

	c, _ := m.Update(keyRune('v'))
	assert.Equal(t, ViewDomainModal, c.(Model).view)

	c, cmd := c.Update(modal.SubmitMsg{Values: map[string]string{"domain": "example.org"}})
	msgs := collect(t, cmd)
	var txt dnsTxtMsg
	found := false
	for _, msg := range msgs {
		if d, ok := msg.(dnsTxtMsg); ok {
			txt = d
			found = true
		}
	}
	require.True(t, found)
	require.NoError(t, txt.err)
	assert.Equal(t, 1, client.CallCount("GenerateDNSTxt"))

	c, cmd = c.Update(txt)
	collect(t, cmd)
	assert.Equal(t, []string{"dedi-verify=token-abc"}, clip.Copied, "TXT value is copied for pasting into DNS")
	assert.Contains(t, c.View(), "dedi-verify=token-abc")

	// Enter asks the server to check the record.
	c, cmd = c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msgs = collect(t, cmd)
	var verified domainVerifiedMsg
	found = false
	for _, msg := range msgs {
		if v, ok := msg.(domainVerifiedMsg); ok {
			verified = v
			found = true
		}
	}
	require.True(t, found)
	require.NoError(t, verified.err)

	c, cmd = c.Update(verified)
	toast, ok := findToast(t, collect(t, cmd))
	require.True(t, ok)
	assert.Equal(t, "Domain verified", toast.Message)
	assert.Equal(t, ViewList, c.(Model).view)
	assert.NotContains(t, c.View(), "unverified", "badge flips after verification")
}

func TestVerifyFailureStaysOnRecordPanel(t *testing.T) {
	m := loadedModel(t, newServices(&testutil.FakeClient{}),
		[]api.Namespace{testutil.BuildNamespace("ns-1", "health-data")})
	m.view = ViewDNSRecord
	m.dnsTxt = "dedi-verify=token-abc"
	m.dnsDomain = "example.org"

	c, cmd := m.Update(domainVerifiedMsg{namespaceID: "ns-1", err: &api.APIError{
		Status: 400, Message: "TXT record not found",
	}})
	toast, ok := findToast(t, collect(t, cmd))
	require.True(t, ok)
	assert.Equal(t, "TXT record not found", toast.Message)
	assert.Equal(t, ViewDNSRecord, c.(Model).view, "failure keeps the record visible for retry")
}
