// Package conversation implements the intake and generation workflow of a
// diagram chat: collect a project context, collect a diagram type, ask the
// language model for markup, then accept modification requests.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/logging"
	"github.com/ziadkadry99/umlgen/internal/markup"
)

// Option configures a Controller.
type Option func(*Controller)

// WithCredential sets the initial credential.
func WithCredential(credential string) Option {
	return func(c *Controller) { c.state.Credential = strings.TrimSpace(credential) }
}

// WithClock overrides time.Now for message timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger used for turn diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithObserver registers an observer for resolved generation turns.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithGenerationTimeout bounds each gateway call. Zero disables the deadline.
func WithGenerationTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.state.SessionID = id }
}

// Controller owns one conversation. All methods are safe for concurrent use.
// Listeners must not call mutating Controller methods synchronously.
type Controller struct {
	gateway  Gateway
	clock    func() time.Time
	logger   *slog.Logger
	observer Observer
	timeout  time.Duration

	mu     sync.Mutex
	state  State
	token  uint64
	cancel context.CancelFunc

	notifyMu     sync.Mutex
	listeners    map[int]func(Event)
	nextListener int
	published    uint64

	inflight sync.WaitGroup
}

// New creates a Controller in the AWAITING_CONTEXT phase.
func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway:   gw,
		clock:     time.Now,
		logger:    slog.Default(),
		listeners: make(map[int]func(Event)),
	}
	c.state.SessionID = uuid.NewString()
	for _, opt := range opts {
		opt(c)
	}
	c.state = c.initialStateLocked()
	return c
}

// Submit feeds one user message into the workflow.
func (c *Controller) Submit(text string) (Effect, error) {
	c.mu.Lock()

	if c.state.Phase == PhaseGenerating {
		sessionID := c.state.SessionID
		c.mu.Unlock()
		c.logger.Debug("ignoring submit while generating", "session_id", sessionID)
		return EffectNone, nil
	}

	if c.state.Credential == "" {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(Event{Type: EventCredentialRequired, State: snap})
		return EffectCredentialRequired, apperr.ErrMissingCredential
	}

	if strings.TrimSpace(text) == "" {
		phase := c.state.Phase
		c.mu.Unlock()
		if phase == PhaseAwaitingContext {
			return EffectNone, apperr.ErrMissingContext
		}
		return EffectNone, apperr.ErrMissingInstruction
	}

	var effect Effect
	switch c.state.Phase {
	case PhaseAwaitingContext:
		c.state.ProjectContext = text
		c.appendLocked(text, true)
		c.state.Phase = PhaseAwaitingCategory
		c.appendLocked(menuText(), false)
		effect = EffectPromptCategory
	default:
		// AWAITING_CATEGORY picks the first diagram; READY and ERROR treat the
		// text as a modification of the existing project.
		c.state.DiagramCategory = text
		c.appendLocked(text, true)
		c.state.Phase = PhaseGenerating
		c.startTurnLocked(text)
		effect = EffectGenerate
	}
	c.state.Version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventStateChanged, State: snap})
	return effect, nil
}

// Reset returns the conversation to its initial state. A generation still in
// flight is cancelled and its result discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = c.initialStateLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventStateChanged, State: snap})
}

// SetMarkup replaces the current markup with a manual edit. The phase is
// left untouched.
func (c *Controller) SetMarkup(text string) {
	c.mu.Lock()
	c.state.Markup = text
	c.state.Version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventStateChanged, State: snap})
}

// SetCredential replaces the credential used for future generation turns.
func (c *Controller) SetCredential(credential string) {
	c.mu.Lock()
	c.state.Credential = strings.TrimSpace(credential)
	c.state.Version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(Event{Type: EventStateChanged, State: snap})
}

// State returns a snapshot of the conversation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.notifyMu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.listeners, id)
		c.notifyMu.Unlock()
	}
}

// Wait blocks until no generation turn is outstanding.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) initialStateLocked() State {
	return State{
		SessionID:  c.state.SessionID,
		Credential: c.state.Credential,
		Phase:      PhaseAwaitingContext,
		History: []Message{{
			ID:        greetingID,
			Text:      greetingText,
			Timestamp: c.clock(),
		}},
		Version: c.state.Version + 1,
	}
}

func (c *Controller) appendLocked(text string, fromUser bool) {
	c.state.History = append(c.state.History, Message{
		ID:        uuid.NewString(),
		Text:      text,
		FromUser:  fromUser,
		Timestamp: c.clock(),
	})
}

func (c *Controller) snapshotLocked() State {
	snap := c.state
	snap.HasCredential = snap.Credential != ""
	snap.History = make([]Message, len(c.state.History))
	copy(snap.History, c.state.History)
	return snap
}

func (c *Controller) startTurnLocked(instruction string) {
	c.token++
	token := c.token

	base := logging.WithSession(context.Background(), c.state.SessionID)
	ctx, cancel := context.WithCancel(base)
	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.timeout)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}
	c.cancel = cancel

	credential := c.state.Credential
	projectContext := c.state.ProjectContext

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancel()

		started := c.clock()
		raw, err := c.gateway.Generate(ctx, credential, projectContext, instruction)
		c.resolve(ctx, token, projectContext, instruction, raw, err, started)
	}()
}

func (c *Controller) resolve(ctx context.Context, token uint64, projectContext, instruction, raw string, genErr error, started time.Time) {
	var (
		result  string
		turnErr *apperr.Error
	)
	switch {
	case genErr != nil:
		turnErr = classifyGatewayError(ctx, genErr)
	default:
		m, err := markup.Normalize(raw)
		if err != nil {
			turnErr = apperr.As(err)
		} else {
			result = m
		}
	}

	logger := c.logger
	if id, ok := logging.SessionID(ctx); ok {
		logger = logger.With("session_id", id)
	}

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		logger.Debug("discarding superseded generation result", "token", token)
		return
	}
	c.cancel = nil
	if turnErr == nil {
		c.state.Markup = result
		c.state.Phase = PhaseReady
		c.state.LastError = nil
		c.appendLocked(successText, false)
	} else {
		c.state.Phase = PhaseError
		c.state.LastError = turnErr
		c.appendLocked(failureText(turnErr), false)
	}
	c.state.Version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	elapsed := c.clock().Sub(started)
	if turnErr != nil {
		logger.Warn("generation turn failed", "kind", turnErr.Kind, "error", turnErr, "elapsed", elapsed)
	} else {
		logger.Info("generation turn completed", "markup_bytes", len(result), "elapsed", elapsed)
	}

	c.publish(Event{Type: EventStateChanged, State: snap})

	if c.observer != nil {
		c.observer.TurnCompleted(context.WithoutCancel(ctx), TurnResult{
			SessionID:      snap.SessionID,
			ProjectContext: projectContext,
			Instruction:    instruction,
			Markup:         result,
			Err:            turnErr,
			Duration:       elapsed,
		})
	}
}

func classifyGatewayError(ctx context.Context, err error) *apperr.Error {
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Wrap(err, apperr.KindGenerationFailure, "the diagram service did not answer in time")
	}
	return apperr.Wrap(err, apperr.KindGenerationFailure, err.Error())
}

// publish delivers ev to listeners. State events older than the last
// delivered version are dropped so that listeners never go backwards.
func (c *Controller) publish(ev Event) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if ev.Type == EventStateChanged {
		if ev.State.Version <= c.published {
			return
		}
		c.published = ev.State.Version
	}
	for _, fn := range c.listeners {
		fn(ev)
	}
}
