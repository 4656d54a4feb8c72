package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/logging"
)

const libraryContext = "A library system with books and members"

type call struct {
	credential, projectContext, instruction string
}

type reply struct {
	text string
	err  error
}

// fakeGateway records calls and answers from a queue. When block is set,
// each call waits for a value on release before answering.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []call
	replies []reply
	block   bool
	release chan reply
	entered chan struct{}
}

func newFakeGateway(replies ...reply) *fakeGateway {
	return &fakeGateway{replies: replies}
}

func newBlockingGateway() *fakeGateway {
	return &fakeGateway{
		block:   true,
		release: make(chan reply),
		entered: make(chan struct{}, 8),
	}
}

func (g *fakeGateway) Generate(ctx context.Context, credential, projectContext, instruction string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, call{credential, projectContext, instruction})
	g.mu.Unlock()

	if g.block {
		g.entered <- struct{}{}
		r := <-g.release
		return r.text, r.err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r.text, r.err
}

func (g *fakeGateway) Calls() []call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]call(nil), g.calls...)
}

type recordingObserver struct {
	mu      sync.Mutex
	results []TurnResult
}

func (o *recordingObserver) TurnCompleted(_ context.Context, r TurnResult) {
	o.mu.Lock()
	o.results = append(o.results, r)
	o.mu.Unlock()
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newTestController(gw Gateway, opts ...Option) *Controller {
	base := []Option{
		WithCredential("test-key"),
		WithClock(fixedClock),
		WithLogger(logging.Discard()),
		WithSessionID("sess-test"),
	}
	return New(gw, append(base, opts...)...)
}

func TestNewStartsAwaitingContext(t *testing.T) {
	c := newTestController(newFakeGateway())
	st := c.State()

	assert.Equal(t, PhaseAwaitingContext, st.Phase)
	assert.True(t, st.HasCredential)
	assert.Equal(t, "sess-test", st.SessionID)
	require.Len(t, st.History, 1)
	assert.Equal(t, greetingID, st.History[0].ID)
	assert.False(t, st.History[0].FromUser)
}

func TestSubmitContextPromptsForCategory(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(gw)

	effect, err := c.Submit(libraryContext)
	require.NoError(t, err)
	assert.Equal(t, EffectPromptCategory, effect)

	st := c.State()
	assert.Equal(t, PhaseAwaitingCategory, st.Phase)
	assert.Equal(t, libraryContext, st.ProjectContext)
	require.Len(t, st.History, 3)
	assert.True(t, st.History[1].FromUser)
	assert.Equal(t, libraryContext, st.History[1].Text)
	assert.False(t, st.History[2].FromUser)
	for _, cat := range Categories {
		assert.Contains(t, st.History[2].Text, string(cat))
	}
	assert.Empty(t, gw.Calls(), "intake must not call the gateway")
}

func TestSubmitWithoutCredential(t *testing.T) {
	gw := newFakeGateway()
	c := New(gw, WithClock(fixedClock), WithLogger(logging.Discard()))

	var events []Event
	c.Subscribe(func(ev Event) { events = append(events, ev) })

	effect, err := c.Submit(libraryContext)
	assert.Equal(t, EffectCredentialRequired, effect)
	assert.ErrorIs(t, err, apperr.ErrMissingCredential)

	st := c.State()
	assert.Equal(t, PhaseAwaitingContext, st.Phase)
	assert.Empty(t, st.ProjectContext)
	assert.Len(t, st.History, 1)
	require.Len(t, events, 1)
	assert.Equal(t, EventCredentialRequired, events[0].Type)

	// The check repeats on every submit, not only the first.
	c.SetCredential("k")
	_, err = c.Submit(libraryContext)
	require.NoError(t, err)
	c.SetCredential("  ")
	effect, err = c.Submit("Class Diagram")
	assert.Equal(t, EffectCredentialRequired, effect)
	assert.ErrorIs(t, err, apperr.ErrMissingCredential)
	assert.Equal(t, PhaseAwaitingCategory, c.State().Phase)
	assert.Empty(t, gw.Calls())
}

func TestSubmitBlankText(t *testing.T) {
	c := newTestController(newFakeGateway())

	_, err := c.Submit("   \n\t")
	assert.ErrorIs(t, err, apperr.ErrMissingContext)
	assert.Equal(t, PhaseAwaitingContext, c.State().Phase)

	_, err = c.Submit(libraryContext)
	require.NoError(t, err)

	_, err = c.Submit("")
	assert.ErrorIs(t, err, apperr.ErrMissingInstruction)
	assert.Equal(t, PhaseAwaitingCategory, c.State().Phase)
	assert.Len(t, c.State().History, 3)
}

func TestLibraryScenario(t *testing.T) {
	gw := newFakeGateway(
		reply{text: "blah @startuml\nclass Book\nclass Member\n@enduml blah"},
		reply{text: "```plantuml\n@startuml\nclass Book\nclass Member\nclass Librarian\n@enduml\n```"},
	)
	obs := &recordingObserver{}
	c := newTestController(gw, WithObserver(obs))

	_, err := c.Submit(libraryContext)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingCategory, c.State().Phase)

	effect, err := c.Submit("Class Diagram")
	require.NoError(t, err)
	assert.Equal(t, EffectGenerate, effect)
	c.Wait()

	st := c.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, "@startuml\nclass Book\nclass Member\n@enduml", st.Markup)
	assert.Nil(t, st.LastError)
	require.Equal(t, []call{{"test-key", libraryContext, "Class Diagram"}}, gw.Calls())

	// A modification does not re-enter intake.
	effect, err = c.Submit("add a Librarian class")
	require.NoError(t, err)
	assert.Equal(t, EffectGenerate, effect)
	c.Wait()

	st = c.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, "@startuml\nclass Book\nclass Member\nclass Librarian\n@enduml", st.Markup)
	assert.Equal(t, libraryContext, st.ProjectContext)
	assert.Equal(t, "add a Librarian class", st.DiagramCategory)

	calls := gw.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, call{"test-key", libraryContext, "add a Librarian class"}, calls[1])

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.results, 2)
	assert.Equal(t, "Class Diagram", obs.results[0].Instruction)
	assert.Nil(t, obs.results[1].Err)
}

func TestHistoryOrdering(t *testing.T) {
	gw := newFakeGateway(reply{text: "@startuml\nA -> B\n@enduml"})
	c := newTestController(gw)

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Sequence Diagram")
	c.Wait()

	h := c.State().History
	require.Len(t, h, 5)
	wantFromUser := []bool{false, true, false, true, false}
	for i, m := range h {
		assert.Equal(t, wantFromUser[i], m.FromUser, "history[%d]", i)
	}
	assert.Equal(t, "Sequence Diagram", h[3].Text)
	assert.Equal(t, successText, h[4].Text)
}

func TestAuthFailurePreservesFields(t *testing.T) {
	gw := newFakeGateway(reply{err: apperr.Wrap(errors.New("401"), apperr.KindAuthFailure, "API key authentication failed")})
	c := newTestController(gw)

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	c.Wait()

	st := c.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, libraryContext, st.ProjectContext)
	assert.Equal(t, "Class Diagram", st.DiagramCategory)
	require.NotNil(t, st.LastError)
	assert.Equal(t, apperr.KindAuthFailure, st.LastError.Kind)

	last := st.History[len(st.History)-1]
	assert.False(t, last.FromUser)
	assert.Contains(t, last.Text, "API key authentication failed")
}

func TestGenerationFailures(t *testing.T) {
	tests := []struct {
		name string
		rep  reply
		want apperr.Kind
	}{
		{"untyped error", reply{err: errors.New("connection refused")}, apperr.KindGenerationFailure},
		{"prose answer", reply{text: "I cannot generate that diagram."}, apperr.KindEmptyMarkup},
		{"blank answer", reply{text: "   "}, apperr.KindEmptyMarkup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(newFakeGateway(tt.rep))
			_, _ = c.Submit(libraryContext)
			_, _ = c.Submit("ER Diagram")
			c.Wait()

			st := c.State()
			assert.Equal(t, PhaseError, st.Phase)
			require.NotNil(t, st.LastError)
			assert.Equal(t, tt.want, st.LastError.Kind)
			assert.Empty(t, st.Markup)
		})
	}
}

func TestErrorThenRetrySucceeds(t *testing.T) {
	gw := newFakeGateway(
		reply{err: errors.New("quota exceeded")},
		reply{text: "@startuml\nA -> B\n@enduml"},
	)
	c := newTestController(gw)

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	c.Wait()
	require.Equal(t, PhaseError, c.State().Phase)

	_, err := c.Submit("try again please")
	require.NoError(t, err)
	c.Wait()

	st := c.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Nil(t, st.LastError)
	assert.Equal(t, "@startuml\nA -> B\n@enduml", st.Markup)
}

func TestSubmitWhileGeneratingIsNoop(t *testing.T) {
	gw := newBlockingGateway()
	c := newTestController(gw)

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	<-gw.entered

	before := c.State()
	effect, err := c.Submit("another instruction")
	assert.NoError(t, err)
	assert.Equal(t, EffectNone, effect)
	assert.Equal(t, before, c.State())

	gw.release <- reply{text: "@startuml\nA -> B\n@enduml"}
	c.Wait()
	assert.Len(t, gw.Calls(), 1)
	assert.Equal(t, PhaseReady, c.State().Phase)
}

func TestResetIsIdempotent(t *testing.T) {
	gw := newFakeGateway(reply{text: "@startuml\nA -> B\n@enduml"})
	c := newTestController(gw)

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	c.Wait()

	c.Reset()
	once := c.State()
	c.Reset()
	twice := c.State()

	assert.Greater(t, twice.Version, once.Version)
	once.Version, twice.Version = 0, 0
	assert.Equal(t, once, twice)

	assert.Equal(t, PhaseAwaitingContext, twice.Phase)
	assert.Empty(t, twice.ProjectContext)
	assert.Empty(t, twice.DiagramCategory)
	assert.Empty(t, twice.Markup)
	assert.Nil(t, twice.LastError)
	require.Len(t, twice.History, 1)
	assert.Equal(t, greetingID, twice.History[0].ID)
	assert.True(t, twice.HasCredential, "reset keeps the credential")
}

func TestStaleResponseAfterReset(t *testing.T) {
	for _, tt := range []struct {
		name string
		rep  reply
	}{
		{"success", reply{text: "@startuml\nA -> B\n@enduml"}},
		{"failure", reply{err: errors.New("boom")}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			gw := newBlockingGateway()
			obs := &recordingObserver{}
			c := newTestController(gw, WithObserver(obs))

			_, _ = c.Submit(libraryContext)
			_, _ = c.Submit("Class Diagram")
			<-gw.entered

			c.Reset()
			afterReset := c.State()

			gw.release <- tt.rep
			c.Wait()

			assert.Equal(t, afterReset, c.State())
			assert.Empty(t, obs.results)
		})
	}
}

func TestStaleResponseDoesNotClobberNewTurn(t *testing.T) {
	gw := newBlockingGateway()
	c := newTestController(gw)

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	<-gw.entered
	c.Reset()

	_, _ = c.Submit("A parking garage")
	_, _ = c.Submit("State Diagram")
	<-gw.entered

	// Either pending call may take either reply; only the live turn applies.
	gw.release <- reply{text: "@startuml\n[*] --> Open\n@enduml"}
	gw.release <- reply{text: "@startuml\n[*] --> Open\n@enduml"}
	c.Wait()

	st := c.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, "A parking garage", st.ProjectContext)
	assert.Equal(t, "State Diagram", st.DiagramCategory)
	assert.Equal(t, "@startuml\n[*] --> Open\n@enduml", st.Markup)
	// greeting, context, menu, category, success
	assert.Len(t, st.History, 5)
}

func TestSetMarkupKeepsPhase(t *testing.T) {
	gw := newFakeGateway(reply{text: "@startuml\nA -> B\n@enduml"})
	c := newTestController(gw)

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	c.Wait()

	edited := "@startuml\nA -> C\n@enduml"
	c.SetMarkup(edited)
	st := c.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, edited, st.Markup)
}

func TestGenerationTimeout(t *testing.T) {
	gw := GatewayFunc(func(ctx context.Context, _, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := newTestController(gw, WithGenerationTimeout(10*time.Millisecond))

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	c.Wait()

	st := c.State()
	assert.Equal(t, PhaseError, st.Phase)
	require.NotNil(t, st.LastError)
	assert.Equal(t, apperr.KindGenerationFailure, st.LastError.Kind)
}

func TestSubscribeReceivesMonotonicVersions(t *testing.T) {
	gw := newFakeGateway(reply{text: "@startuml\nA -> B\n@enduml"})
	c := newTestController(gw)

	var (
		mu       sync.Mutex
		versions []uint64
		phases   []Phase
	)
	unsubscribe := c.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, ev.State.Version)
		phases = append(phases, ev.State.Phase)
	})

	_, _ = c.Submit(libraryContext)
	_, _ = c.Submit("Class Diagram")
	c.Wait()
	unsubscribe()
	c.Reset()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 3)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Equal(t, []Phase{PhaseAwaitingCategory, PhaseGenerating, PhaseReady}, phases)
}

func TestSnapshotsAreCopies(t *testing.T) {
	c := newTestController(newFakeGateway())
	st := c.State()
	st.History[0].Text = "mutated"
	assert.Equal(t, greetingText, c.State().History[0].Text)
}
