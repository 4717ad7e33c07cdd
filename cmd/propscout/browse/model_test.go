package browse

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"propscout/internal/catalog"
	"propscout/internal/config"
	"propscout/internal/search"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, userID string) Model {
	t.Helper()
	m := NewModel(config.DefaultConfig(), catalog.NewClient(""), userID, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitDispatchesUnconstrainedSearch(t *testing.T) {
	m := newTestModel(t, "")
	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init() returned no command")
	}
	if m.coordinator.State() != search.StateLoading {
		t.Errorf("state = %v, want loading", m.coordinator.State())
	}
}

func TestFilterKeystrokeDispatchesSearch(t *testing.T) {
	m := newTestModel(t, "")
	m.Init()

	next, cmd := m.Update(keyMsg("p"))
	m = next.(Model)

	if cmd == nil {
		t.Fatal("expected a search command after a filter edit")
	}
	if got := m.coordinator.Query().City; got != "p" {
		t.Errorf("City = %q, want %q", got, "p")
	}
	if m.coordinator.State() != search.StateLoading {
		t.Errorf("state = %v, want loading", m.coordinator.State())
	}
}

func TestStaleSearchResultDropped(t *testing.T) {
	m := newTestModel(t, "")
	m.Init() // dispatch 1

	next, _ := m.Update(keyMsg("x")) // dispatch 2
	m = next.(Model)

	// The older search resolves after the newer one was dispatched.
	next, _ = m.Update(searchResultMsg{dispatch: 1, results: []catalog.PropertySummary{{ID: "old"}}})
	m = next.(Model)
	if m.coordinator.State() != search.StateLoading {
		t.Fatalf("stale result changed state to %v", m.coordinator.State())
	}

	next, _ = m.Update(searchResultMsg{dispatch: 2, results: []catalog.PropertySummary{{ID: "new"}}})
	m = next.(Model)
	if m.coordinator.State() != search.StatePopulated {
		t.Fatalf("state = %v, want populated", m.coordinator.State())
	}
	if m.coordinator.Results()[0].ID != "new" {
		t.Errorf("results from the wrong dispatch survived")
	}
}

func TestSearchFailureShowsEmptyState(t *testing.T) {
	m := newTestModel(t, "")
	m.Init()

	next, _ := m.Update(searchResultMsg{dispatch: 1, err: errors.New("boom")})
	m = next.(Model)
	if m.coordinator.State() != search.StateEmpty {
		t.Errorf("state = %v, want empty", m.coordinator.State())
	}
}

func TestSelectionClampedWhenResultsShrink(t *testing.T) {
	m := newTestModel(t, "")
	m.Init()

	next, _ := m.Update(searchResultMsg{dispatch: 1, results: []catalog.PropertySummary{{ID: "a"}, {ID: "b"}, {ID: "c"}}})
	m = next.(Model)
	m.selected = 2

	m.coordinator.Begin()
	next, _ = m.Update(searchResultMsg{dispatch: 2, results: []catalog.PropertySummary{{ID: "a"}}})
	m = next.(Model)
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0", m.selected)
	}
}

func TestChatSubmitWhileAwaitingIsNoOp(t *testing.T) {
	m := newTestModel(t, "")
	m.viewMode = ChatView

	m.chatInput.SetValue("first")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("first submission produced no command")
	}
	if m.chatInput.Value() != "" {
		t.Errorf("input not cleared after accepted submission")
	}

	m.chatInput.SetValue("second")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd != nil {
		t.Error("submission while awaiting a reply produced a command")
	}
	if m.chatInput.Value() != "second" {
		t.Errorf("refused submission cleared the input")
	}
}

func TestPropertyLoadedForSupersededRequestIgnored(t *testing.T) {
	m := newTestModel(t, "")
	m.loadingID = "b"
	m.isLoadingID = true

	next, _ := m.Update(propertyLoadedMsg{id: "a", property: &catalog.Property{ID: "a"}})
	m = next.(Model)
	if m.viewMode == DetailView || m.detail != nil {
		t.Error("superseded property fetch mounted the detail view")
	}
}

func TestPropertyLoadedMountsGalleryAtFirstImage(t *testing.T) {
	m := newTestModel(t, "")
	m.loadingID = "p1"
	m.isLoadingID = true

	p := &catalog.Property{ID: "p1", Files: []catalog.Media{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	next, _ := m.Update(propertyLoadedMsg{id: "p1", property: p})
	m = next.(Model)

	if m.viewMode != DetailView {
		t.Fatalf("viewMode = %v, want DetailView", m.viewMode)
	}
	if m.cursor.Index() != 0 || m.cursor.Count() != 3 {
		t.Errorf("cursor = %d/%d, want 0/3", m.cursor.Index(), m.cursor.Count())
	}
}

func TestChatAttachedPropertyOpensDetail(t *testing.T) {
	m := newTestModel(t, "")
	m.viewMode = ChatView

	m.chatInput.SetValue("2BHK in Pune")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	reply := &catalog.ChatReply{
		Response:   "Found one option",
		Properties: []catalog.PropertyRef{{ID: "p9", Title: "Sunrise Flat"}},
	}
	next, _ = m.Update(chatReplyMsg{token: 1, reply: reply})
	m = next.(Model)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1"), Alt: true})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("alt+1 did not start a detail fetch")
	}
	if m.loadingID != "p9" {
		t.Errorf("loadingID = %q, want %q", m.loadingID, "p9")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("5"), Alt: true})
	if cmd != nil {
		t.Error("alt+digit beyond the attached list should be a no-op")
	}
}

func TestSubmitRequiresStoredIdentity(t *testing.T) {
	m := newTestModel(t, "")
	m.viewMode = SubmitView

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	if cmd != nil {
		t.Error("submission without identity produced a command")
	}
	if m.submitErr == nil {
		t.Error("expected a login-required error")
	}
}

func TestConfigReloadSwapsOnTheEventLoop(t *testing.T) {
	m := newTestModel(t, "")

	next := config.DefaultConfig()
	next.Catalog.Timeout = "2s"
	next.UI.PageSize = 3

	updated, _ := m.Update(ConfigReloadedMsg{Config: next})
	m = updated.(Model)

	if got := m.cfg.GetCatalogTimeout(); got != 2*time.Second {
		t.Errorf("GetCatalogTimeout() = %v, want %v", got, 2*time.Second)
	}
	if m.cfg.UI.PageSize != 3 {
		t.Errorf("PageSize = %d, want 3", m.cfg.UI.PageSize)
	}

	// A nil reload keeps the current config.
	updated, _ = m.Update(ConfigReloadedMsg{})
	m = updated.(Model)
	if m.cfg == nil || m.cfg.UI.PageSize != 3 {
		t.Error("nil reload clobbered the active config")
	}
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	if err := os.WriteFile(a, []byte("aaa"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("bbb"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := LoadImages(a + ", " + b)
	if err != nil {
		t.Fatalf("LoadImages() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].Name != "a.jpg" || string(files[1].Content) != "bbb" {
		t.Errorf("unexpected batch contents: %+v", files)
	}

	if _, err := LoadImages(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}

	files, err = LoadImages("")
	if err != nil || files != nil {
		t.Errorf("empty path list: files=%v err=%v", files, err)
	}
}

func TestFormatINR(t *testing.T) {
	cases := map[float64]string{
		900:      "900",
		50000:    "50,000",
		2500000:  "25,00,000",
		75000000: "7,50,00,000",
	}
	for in, want := range cases {
		if got := formatINR(in); got != want {
			t.Errorf("formatINR(%v) = %q, want %q", in, got, want)
		}
	}
}
