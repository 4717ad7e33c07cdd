// Package conversation owns the chat transcript and the turn-taking protocol
// with the catalog's assistant. The transcript is an append-only log: turns
// are never edited or removed once appended, and it is the sole source of
// truth for what the chat surface renders.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"propscout/internal/catalog"
)

// FallbackMessage is shown in place of a raw error when the assistant round
// trip fails.
const FallbackMessage = "Sorry, I encountered an error. Please try again later."

// TurnKind tags a transcript entry.
type TurnKind int

const (
	TurnUser TurnKind = iota
	TurnAssistant
	TurnAssistantError
)

// Turn is one message unit in the transcript. Properties is populated only
// for assistant turns that arrived with attached property references.
type Turn struct {
	Kind       TurnKind
	Text       string
	Properties []catalog.PropertyRef
	Time       time.Time
}

// Engine is the per-session conversation state machine. A turn cycle has two
// states, idle and awaiting-reply: submission is gated while a reply is
// outstanding, so overlapping round trips cannot occur and a USER turn always
// precedes its ASSISTANT turn.
//
// Each accepted submission is tagged with a token; a reply resolving with a
// stale token (after the engine was reset, or not the awaited round trip) is
// discarded as a safe no-op. The engine is driven from a single event loop
// and is not safe for concurrent use.
type Engine struct {
	sessionID string
	turns     []Turn
	awaiting  bool
	token     uint64
	logger    *zap.Logger
}

// NewEngine creates an engine with an empty transcript. Transcripts do not
// persist across sessions.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		sessionID: uuid.NewString(),
		logger:    logger,
	}
}

// SessionID returns the identifier of this chat session.
func (e *Engine) SessionID() string { return e.sessionID }

// Turns returns the transcript in order.
func (e *Engine) Turns() []Turn { return e.turns }

// Awaiting reports whether a reply is outstanding.
func (e *Engine) Awaiting() bool { return e.awaiting }

// Submit starts a round trip for one user message. The USER turn is appended
// immediately (optimistically, before any network activity) and the engine
// transitions to awaiting-reply. Returns the round-trip token and true.
//
// A submission while awaiting a reply, or whose text trims to empty, is a
// no-op: the transcript is unchanged and Submit returns false.
func (e *Engine) Submit(text string) (uint64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || e.awaiting {
		return 0, false
	}

	e.turns = append(e.turns, Turn{
		Kind: TurnUser,
		Text: trimmed,
		Time: time.Now(),
	})
	e.awaiting = true
	e.token++
	e.logger.Debug("chat turn submitted",
		zap.String("session", e.sessionID),
		zap.Uint64("token", e.token))
	return e.token, true
}

// Resolve completes the round trip identified by token. On success one
// ASSISTANT turn is appended from the reply; on failure one ASSISTANT_ERROR
// turn with the fixed fallback message. Either way the engine returns to
// idle.
//
// A token that does not match the awaited round trip is discarded and
// Resolve returns false; this makes late replies after teardown or reset
// harmless.
func (e *Engine) Resolve(token uint64, reply *catalog.ChatReply, err error) bool {
	if !e.awaiting || token != e.token {
		e.logger.Debug("stale chat reply dropped",
			zap.Uint64("token", token),
			zap.Uint64("current", e.token))
		return false
	}
	e.awaiting = false

	if err != nil {
		e.logger.Warn("chat round trip failed",
			zap.String("session", e.sessionID), zap.Error(err))
		e.turns = append(e.turns, Turn{
			Kind: TurnAssistantError,
			Text: FallbackMessage,
			Time: time.Now(),
		})
		return true
	}

	e.turns = append(e.turns, Turn{
		Kind:       TurnAssistant,
		Text:       reply.Response,
		Properties: reply.Properties,
		Time:       time.Now(),
	})
	return true
}

// Reset discards the transcript and starts a fresh session. Any outstanding
// round trip becomes stale and its eventual resolution is dropped.
func (e *Engine) Reset() {
	e.sessionID = uuid.NewString()
	e.turns = nil
	e.awaiting = false
	e.token++
}
