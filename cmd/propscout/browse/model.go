// Package browse provides the interactive TUI for exploring the property
// catalog. The functionality is split across multiple files:
//   - model_types.go: Model struct, view modes, tea messages
//   - model.go: Construction, Init, Update loop (this file)
//   - view.go: Rendering functions
package browse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"propscout/cmd/propscout/ui"
	"propscout/internal/catalog"
	"propscout/internal/config"
	"propscout/internal/conversation"
	"propscout/internal/gallery"
	"propscout/internal/listing"
	"propscout/internal/search"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

const statusLinger = 3 * time.Second

// filterLabels maps filter field names to their display labels, in the same
// order as search.FieldNames.
var filterLabels = []string{"City", "For", "Type", "Min Price", "Max Price", "Bedrooms"}

// submitLabels lists the free-text fields of the listing form in focus order.
var submitLabels = []string{
	"Title", "Description", "Address", "City", "State",
	"Pincode", "Price", "Phone", "Bedrooms", "Area", "Image paths",
}

var propertyTypes = []catalog.PropertyType{
	catalog.TypeHouse, catalog.TypeApartment, catalog.TypeVilla, catalog.TypePlot,
}

var forTypes = []catalog.ForType{catalog.ForSale, catalog.ForRent}

var areaUnits = []catalog.AreaUnit{catalog.UnitSqft, catalog.UnitAcre}

// NewModel creates the browse model. userID may be empty; listing submission
// then reports that a login is required instead of calling the catalog.
func NewModel(cfg *config.Config, client *catalog.Client, userID string, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	styles := ui.DefaultStyles()
	if cfg.UI.DarkMode {
		styles = ui.NewStyles(ui.DarkTheme())
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	filterInputs := make([]textinput.Model, len(search.FieldNames))
	for i, label := range filterLabels {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = label
		in.CharLimit = 64
		filterInputs[i] = in
	}
	filterInputs[0].Focus()

	chatInput := textinput.New()
	chatInput.Prompt = "> "
	chatInput.Placeholder = "Ask about properties, e.g. \"2BHK in Pune under 50 lakh\""
	chatInput.CharLimit = 500

	submitInputs := make([]textinput.Model, len(submitLabels))
	for i, label := range submitLabels {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = label
		in.CharLimit = 500
		submitInputs[i] = in
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(76))
	if err != nil {
		logger.Warn("markdown renderer unavailable", zap.Error(err))
		renderer = nil
	}

	return Model{
		styles:       styles,
		renderer:     renderer,
		spinner:      sp,
		filterInputs: filterInputs,
		chatInput:    chatInput,
		submitInputs: submitInputs,
		viewMode:     SearchView,
		client:       client,
		workflow:     listing.NewWorkflow(client, userID, logger),
		userID:       userID,
		cfg:          cfg,
		logger:       logger,
		coordinator:  search.NewCoordinator(logger),
		engine:       conversation.NewEngine(logger),
		draft:        listing.NewDraft(),
	}
}

// Init dispatches the initial unconstrained search.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.dispatchSearch())
}

// Update is the main event loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-10)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - 10
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case searchResultMsg:
		if m.coordinator.Resolve(msg.dispatch, msg.results, msg.err) {
			if n := len(m.coordinator.Results()); m.selected >= n {
				m.selected = 0
			}
		}
		return m, nil

	case propertyLoadedMsg:
		if msg.id != m.loadingID {
			// A different property was requested after this fetch started.
			return m, nil
		}
		m.isLoadingID = false
		m.detail = msg.property
		m.detailErr = msg.err
		if msg.err == nil && msg.property != nil {
			m.cursor = gallery.NewCursor(len(msg.property.Files))
			m.viewMode = DetailView
		}
		return m, nil

	case chatReplyMsg:
		m.engine.Resolve(msg.token, msg.reply, msg.err)
		m.refreshChatViewport()
		return m, nil

	case submitResultMsg:
		m.isSubmitting = false
		m.lastResult = msg.result
		m.submitErr = msg.err
		if msg.err == nil && msg.result != nil {
			switch msg.result.Status {
			case listing.StatusCreated:
				m.clearSubmitInputs()
				return m.setStatus(fmt.Sprintf("Listing %s published", msg.result.PropertyID))
			case listing.StatusMediaFailed:
				return m.setStatus(fmt.Sprintf("Listing %s created, image upload failed", msg.result.PropertyID))
			}
		}
		return m, nil

	case ConfigReloadedMsg:
		if msg.Config != nil {
			m.cfg = msg.Config
		}
		return m, nil

	case clearStatusMsg:
		if msg.setAt.Equal(m.statusSetAt) {
			m.statusMessage = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case SearchView:
		return m.handleSearchKey(msg)
	case DetailView:
		return m.handleDetailKey(msg)
	case ChatView:
		return m.handleChatKey(msg)
	case SubmitView:
		return m.handleSubmitKey(msg)
	}
	return m, nil
}

// =============================================================================
// SEARCH VIEW
// =============================================================================

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.filterFocus = (m.filterFocus + 1) % len(m.filterInputs)
		m.refocusFilter()
		return m, nil
	case "shift+tab":
		m.filterFocus = (m.filterFocus - 1 + len(m.filterInputs)) % len(m.filterInputs)
		m.refocusFilter()
		return m, nil
	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.selected < len(m.coordinator.Results())-1 {
			m.selected++
		}
		return m, nil
	case "enter":
		results := m.coordinator.Results()
		if m.coordinator.State() == search.StatePopulated && m.selected < len(results) {
			return m.openDetail(results[m.selected].ID)
		}
		return m, nil
	case "ctrl+r":
		for i := range m.filterInputs {
			m.filterInputs[i].SetValue("")
		}
		dispatch := m.coordinator.Reset()
		return m, m.searchCmd(dispatch)
	case "ctrl+g":
		m.viewMode = ChatView
		m.chatInput.Focus()
		m.refreshChatViewport()
		return m, textinput.Blink
	case "ctrl+n":
		m.viewMode = SubmitView
		m.submitFocus = 0
		m.refocusSubmit()
		return m, textinput.Blink
	}

	// Everything else edits the focused filter field. A changed value
	// dispatches a fresh search immediately.
	field := search.FieldNames[m.filterFocus]
	before := m.filterInputs[m.filterFocus].Value()
	var cmd tea.Cmd
	m.filterInputs[m.filterFocus], cmd = m.filterInputs[m.filterFocus].Update(msg)
	after := m.filterInputs[m.filterFocus].Value()
	if after != before {
		m.coordinator.SetField(field, after)
		return m, tea.Batch(cmd, m.dispatchSearch())
	}
	return m, cmd
}

func (m *Model) refocusFilter() {
	for i := range m.filterInputs {
		if i == m.filterFocus {
			m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
}

func (m Model) openDetail(id string) (tea.Model, tea.Cmd) {
	m.loadingID = id
	m.isLoadingID = true
	m.detailErr = nil
	client := m.client
	timeout := m.cfg.GetCatalogTimeout()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p, err := client.GetProperty(ctx, id)
		return propertyLoadedMsg{id: id, property: p, err: err}
	}
}

// dispatchSearch registers a new in-flight search with the coordinator and
// returns the command that performs it.
func (m Model) dispatchSearch() tea.Cmd {
	return m.searchCmd(m.coordinator.Begin())
}

func (m Model) searchCmd(dispatch uint64) tea.Cmd {
	params := m.coordinator.Query().Params()
	client := m.client
	timeout := m.cfg.GetCatalogTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		results, err := client.SearchProperties(ctx, params)
		return searchResultMsg{dispatch: dispatch, results: results, err: err}
	}
}

// =============================================================================
// DETAIL VIEW
// =============================================================================

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc", "q":
		m.viewMode = SearchView
		m.detail = nil
		return m, nil
	case "left", "h":
		m.cursor = m.cursor.Prev()
		return m, nil
	case "right", "l":
		m.cursor = m.cursor.Next()
		return m, nil
	default:
		// Digits jump straight to an image slot.
		if n, err := strconv.Atoi(key); err == nil && n >= 1 {
			m.cursor = m.cursor.Select(n - 1)
		}
		return m, nil
	}
}

// =============================================================================
// CHAT VIEW
// =============================================================================

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = SearchView
		m.chatInput.Blur()
		return m, nil
	case "ctrl+r":
		m.engine.Reset()
		m.refreshChatViewport()
		return m, nil
	case "enter":
		return m.handleChatSubmit()
	}

	// Alt+digit opens the n-th listing attached to the latest assistant
	// reply. Plain digits stay available for typing.
	if key := msg.String(); strings.HasPrefix(key, "alt+") {
		if n, err := strconv.Atoi(strings.TrimPrefix(key, "alt+")); err == nil && n >= 1 {
			if refs := m.latestAttachedProperties(); n <= len(refs) {
				return m.openDetail(refs[n-1].ID)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// latestAttachedProperties returns the property references from the most
// recent assistant turn that carried any.
func (m Model) latestAttachedProperties() []catalog.PropertyRef {
	turns := m.engine.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Kind == conversation.TurnAssistant && len(turns[i].Properties) > 0 {
			return turns[i].Properties
		}
	}
	return nil
}

// handleChatSubmit hands the typed message to the conversation engine. The
// engine refuses the submission while a reply is outstanding or when the
// trimmed text is empty; the input is left untouched in that case.
func (m Model) handleChatSubmit() (tea.Model, tea.Cmd) {
	text := m.chatInput.Value()
	token, ok := m.engine.Submit(text)
	if !ok {
		return m, nil
	}
	m.chatInput.SetValue("")
	m.refreshChatViewport()

	client := m.client
	timeout := m.cfg.GetChatTimeout()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reply, err := client.SendChatMessage(ctx, text)
		return chatReplyMsg{token: token, reply: reply, err: err}
	}
}

func (m *Model) refreshChatViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// =============================================================================
// SUBMIT VIEW
// =============================================================================

func (m Model) handleSubmitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = SearchView
		return m, nil
	case "tab", "enter":
		m.submitFocus = (m.submitFocus + 1) % len(m.submitInputs)
		m.refocusSubmit()
		return m, nil
	case "shift+tab":
		m.submitFocus = (m.submitFocus - 1 + len(m.submitInputs)) % len(m.submitInputs)
		m.refocusSubmit()
		return m, nil
	case "ctrl+t":
		m.draft.PropertyType = cycle(propertyTypes, m.draft.PropertyType)
		return m, nil
	case "ctrl+f":
		m.draft.ForType = cycle(forTypes, m.draft.ForType)
		return m, nil
	case "ctrl+u":
		m.draft.AreaUnit = cycle(areaUnits, m.draft.AreaUnit)
		return m, nil
	case "ctrl+s":
		return m.handleListingSubmit()
	}

	var cmd tea.Cmd
	m.submitInputs[m.submitFocus], cmd = m.submitInputs[m.submitFocus].Update(msg)
	return m, cmd
}

func (m *Model) refocusSubmit() {
	for i := range m.submitInputs {
		if i == m.submitFocus {
			m.submitInputs[i].Focus()
		} else {
			m.submitInputs[i].Blur()
		}
	}
}

func (m Model) handleListingSubmit() (tea.Model, tea.Cmd) {
	if m.isSubmitting {
		return m, nil
	}
	if m.userID == "" {
		m.submitErr = fmt.Errorf("log in first: run `propscout login`")
		return m, nil
	}

	// After a partial failure the listing already exists; only the media
	// upload is retried.
	if m.lastResult != nil && m.lastResult.Status == listing.StatusMediaFailed {
		m.isSubmitting = true
		m.submitErr = nil
		workflow := m.workflow
		draft := m.draft
		propertyID := m.lastResult.PropertyID
		timeout := m.cfg.GetCatalogTimeout()
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			result, err := workflow.RetryMedia(ctx, draft, propertyID)
			return submitResultMsg{result: result, err: err}
		}
	}

	m.draft.Title = m.submitInputs[0].Value()
	m.draft.Description = m.submitInputs[1].Value()
	m.draft.Address = m.submitInputs[2].Value()
	m.draft.City = m.submitInputs[3].Value()
	m.draft.State = m.submitInputs[4].Value()
	m.draft.Pincode = m.submitInputs[5].Value()
	m.draft.Price = m.submitInputs[6].Value()
	m.draft.Phone = m.submitInputs[7].Value()
	m.draft.Bedrooms = m.submitInputs[8].Value()
	m.draft.Area = m.submitInputs[9].Value()

	images, err := LoadImages(m.submitInputs[10].Value())
	if err != nil {
		m.submitErr = err
		return m, nil
	}
	m.draft.Images = images

	m.isSubmitting = true
	m.submitErr = nil
	m.lastResult = nil

	workflow := m.workflow
	draft := m.draft
	timeout := m.cfg.GetCatalogTimeout()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := workflow.Submit(ctx, draft)
		return submitResultMsg{result: result, err: err}
	}
}

func (m *Model) clearSubmitInputs() {
	for i := range m.submitInputs {
		m.submitInputs[i].SetValue("")
	}
	m.submitFocus = 0
	m.refocusSubmit()
}

// =============================================================================
// HELPERS
// =============================================================================

func (m Model) setStatus(text string) (tea.Model, tea.Cmd) {
	m.statusMessage = text
	m.statusSetAt = time.Now()
	setAt := m.statusSetAt
	return m, tea.Tick(statusLinger, func(time.Time) tea.Msg {
		return clearStatusMsg{setAt: setAt}
	})
}

// LoadImages reads a comma-separated list of file paths into media files.
func LoadImages(paths string) ([]catalog.MediaFile, error) {
	var files []catalog.MediaFile
	for _, p := range strings.Split(paths, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", p, err)
		}
		files = append(files, catalog.MediaFile{Name: filepath.Base(p), Content: content})
	}
	return files, nil
}

func cycle[T comparable](values []T, current T) T {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}
