package browse

import (
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
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// ViewMode determines which screen is focused/active
type ViewMode int

const (
	SearchView ViewMode = iota
	DetailView
	ChatView
	SubmitView
)

// String returns the display name for each mode
func (v ViewMode) String() string {
	names := []string{"Browse", "Detail", "Chat", "List Property"}
	if int(v) < len(names) {
		return names[v]
	}
	return "Unknown"
}

// =============================================================================
// CORE TYPES
// =============================================================================

// Model is the main model for the interactive browse interface
type Model struct {
	// UI Components
	styles       ui.Styles
	renderer     *glamour.TermRenderer
	spinner      spinner.Model
	viewport     viewport.Model
	filterInputs []textinput.Model
	chatInput    textinput.Model
	submitInputs []textinput.Model

	viewMode ViewMode

	// Backend
	client   *catalog.Client
	workflow *listing.Workflow
	userID   string
	cfg      *config.Config
	logger   *zap.Logger

	// Search State
	coordinator *search.Coordinator
	filterFocus int // index into search.FieldNames
	selected    int // highlighted row in the result list

	// Detail State
	detail      *catalog.Property
	detailErr   error
	cursor      gallery.Cursor
	loadingID   string
	isLoadingID bool

	// Chat State
	engine *conversation.Engine

	// Submission State
	draft        *listing.Draft
	submitFocus  int
	isSubmitting bool
	lastResult   *listing.Result
	submitErr    error

	// Layout
	width  int
	height int
	ready  bool

	statusMessage string
	statusSetAt   time.Time
}

// ConfigReloadedMsg delivers a reloaded config into the event loop. The
// watcher goroutine never touches the model's config directly; the swap
// happens in Update so reads and the write stay on the loop.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// Messages for tea updates
type (
	// searchResultMsg carries a finished catalog search back to the
	// coordinator, tagged with the dispatch that started it.
	searchResultMsg struct {
		dispatch uint64
		results  []catalog.PropertySummary
		err      error
	}

	// chatReplyMsg carries an assistant reply tagged with the submission
	// token it answers.
	chatReplyMsg struct {
		token uint64
		reply *catalog.ChatReply
		err   error
	}

	// propertyLoadedMsg carries a full property record for the detail view.
	propertyLoadedMsg struct {
		id       string
		property *catalog.Property
		err      error
	}

	// submitResultMsg carries the outcome of a listing submission.
	submitResultMsg struct {
		result *listing.Result
		err    error
	}

	// clearStatusMsg expires a transient status line.
	clearStatusMsg struct {
		setAt time.Time
	}
)
