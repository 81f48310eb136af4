// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningvoice/orchestrator/internal/session"
)

type stubAgent struct{ name string }

func (a stubAgent) Name() string { return a.name }

type recordingRecorder struct {
	mu          sync.Mutex
	decisions   []Decision
	escalations []Escalation
}

func (r *recordingRecorder) RoutingDecision(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
}

func (r *recordingRecorder) TeacherEscalation(e Escalation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escalations = append(r.escalations, e)
}

func (r *recordingRecorder) count() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.decisions), len(r.escalations)
}

type stubDispatcher struct {
	err   error
	calls []string
}

func (d *stubDispatcher) Dispatch(ctx context.Context, workerName, room, metadata string) error {
	d.calls = append(d.calls, workerName+"|"+room+"|"+metadata)
	return d.err
}

type stubCloser struct {
	mu     sync.Mutex
	closed bool
}

func (c *stubCloser) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubCloser) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type stubStore struct {
	mu    sync.Mutex
	calls int
}

func (s *stubStore) CreateEscalation(ctx context.Context, e Escalation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return "join-token", nil
}

func (s *stubStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestController(t *testing.T, opts Options) (*Controller, *session.State) {
	t.Helper()
	state := session.New("student-1", "room-1")
	opts.State = state
	if opts.Factory == nil {
		opts.Factory = func(subject session.Subject, pendingQuestion string) Agent {
			return stubAgent{name: string(subject)}
		}
	}
	return NewController(opts), state
}

func TestRouteToMath_SetsStateAndReturnsTransition(t *testing.T) {
	recorder := &recordingRecorder{}
	c, state := newTestController(t, Options{Recorder: recorder})

	agent, transition := c.RouteToMath(context.Background(), "seven times eight")

	assert.Equal(t, session.SubjectMath, state.CurrentSubject())
	assert.Equal(t, session.SubjectMath, state.SpeakingAgent())
	assert.Equal(t, 1, state.SkipNextUserTurns())
	assert.Equal(t, "math", agent.Name())
	assert.Equal(t, mathTransitionSentence, transition)

	decisions, _ := recorder.count()
	assert.Equal(t, 1, decisions)
	assert.Equal(t, session.SubjectMath, recorder.decisions[0].To)
}

func TestRouteToMath_ArmsPendingTransitionSpeakerWithOutgoingAgent(t *testing.T) {
	c, state := newTestController(t, Options{})
	require.Equal(t, session.SubjectClassifier, state.SpeakingAgent())

	c.RouteToMath(context.Background(), "seven times eight")

	// speaking_agent has already advanced to the incoming subject...
	assert.Equal(t, session.SubjectMath, state.SpeakingAgent())
	// ...but the transition sentence is still armed to speak as the
	// outgoing agent, exactly once.
	speaker, ok := state.ConsumePendingTransitionSpeaker()
	require.True(t, ok, "a transition sentence handoff must arm the pending-transition-speaker override")
	assert.Equal(t, session.SubjectClassifier, speaker)

	_, ok = state.ConsumePendingTransitionSpeaker()
	assert.False(t, ok, "the override is consumed exactly once")
}

func TestRouteToMath_SameSubjectIsIdempotent(t *testing.T) {
	c, state := newTestController(t, Options{})
	c.RouteToMath(context.Background(), "first question")
	require.Equal(t, session.SubjectMath, state.CurrentSubject())
	require.Len(t, state.PreviousSubjects(), 1)

	c.RouteToMath(context.Background(), "second question, still math")
	assert.Equal(t, session.SubjectMath, state.CurrentSubject())
	assert.Len(t, state.PreviousSubjects(), 1, "routing to the same subject must not push a duplicate history entry")
}

func TestRouteToMath_SameSubjectLeavesStateAndTransitionUntouched(t *testing.T) {
	recorder := &recordingRecorder{}
	c, state := newTestController(t, Options{Recorder: recorder})

	c.RouteToMath(context.Background(), "first question")
	state.ConsumeSkipUserTurn()
	require.Equal(t, 0, state.SkipNextUserTurns())

	_, transition := c.RouteToMath(context.Background(), "second question, still math")
	assert.Equal(t, session.SubjectMath, state.SpeakingAgent())
	assert.Equal(t, 0, state.SkipNextUserTurns(), "self-route must not re-arm phantom-turn suppression")
	assert.Empty(t, transition, "self-route speaks no transition sentence")

	decisions, _ := recorder.count()
	assert.Equal(t, 2, decisions, "the decision span still fires on a no-op self-route")
}

func TestRouteToHistory_CrossRouteFromMath(t *testing.T) {
	recorder := &recordingRecorder{}
	c, state := newTestController(t, Options{Recorder: recorder})
	c.RouteToMath(context.Background(), "seven times eight")
	c.RouteToHistory(context.Background(), "Napoleon")

	assert.Equal(t, session.SubjectHistory, state.CurrentSubject())
	decisions, _ := recorder.count()
	assert.Equal(t, 2, decisions)
	last := recorder.decisions[1]
	assert.Equal(t, session.SubjectMath, last.From)
	assert.Equal(t, session.SubjectHistory, last.To)
}

func TestRouteToEnglish_SuccessSchedulesDrainAndClose(t *testing.T) {
	dispatcher := &stubDispatcher{}
	closer := &stubCloser{}
	c, state := newTestController(t, Options{
		Dispatcher:        dispatcher,
		Closer:            closer,
		EnglishWorkerName: "learning-english",
		Room:              "room-1",
		DrainDelay:        10 * time.Millisecond,
		CloseWatchdog:     time.Second,
	})

	route := c.RouteToEnglish(context.Background(), "what is an adjective")
	assert.True(t, route.Dispatched)
	assert.Nil(t, route.Agent)
	assert.Equal(t, session.SubjectEnglish, state.CurrentSubject())
	require.Len(t, dispatcher.calls, 1)

	speaker, ok := state.ConsumePendingTransitionSpeaker()
	require.True(t, ok, "a successful english dispatch must also arm the pending-transition-speaker override")
	assert.Equal(t, session.SubjectClassifier, speaker)

	require.Eventually(t, closer.wasClosed, time.Second, time.Millisecond)
}

func TestRouteToEnglish_DispatchFailureFallsBackInSession(t *testing.T) {
	dispatcher := &stubDispatcher{err: errors.New("control service unreachable")}
	closer := &stubCloser{}
	c, state := newTestController(t, Options{
		Dispatcher:        dispatcher,
		Closer:            closer,
		EnglishWorkerName: "learning-english",
	})

	route := c.RouteToEnglish(context.Background(), "what is an adjective")
	assert.False(t, route.Dispatched)
	require.NotNil(t, route.Agent)
	assert.Equal(t, "english", route.Agent.Name())
	assert.Equal(t, session.SubjectEnglish, state.CurrentSubject())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, closer.wasClosed(), "failed dispatch must not schedule a pipeline close")
}

func TestDispatchBackToOrchestrator_SendsReturnMetadata(t *testing.T) {
	dispatcher := &stubDispatcher{}
	closer := &stubCloser{}
	c, _ := newTestController(t, Options{
		Dispatcher:         dispatcher,
		Closer:             closer,
		PipelineWorkerName: "learning-orchestrator",
		Room:               "room-1",
		DrainDelay:         5 * time.Millisecond,
	})

	err := c.DispatchBackToOrchestrator(context.Background(), "adjectives lesson complete")
	require.NoError(t, err)
	require.Len(t, dispatcher.calls, 1)
	assert.Contains(t, dispatcher.calls[0], "return_from_english:")
	assert.Contains(t, dispatcher.calls[0], "question:adjectives lesson complete")

	require.Eventually(t, closer.wasClosed, time.Second, time.Millisecond)
}

func TestEscalateToTeacher_LatchesAndStoresOnce(t *testing.T) {
	recorder := &recordingRecorder{}
	store := &stubStore{}
	c, state := newTestController(t, Options{Recorder: recorder, Store: store})

	ack1 := c.EscalateToTeacher(context.Background(), "classifier", "student expressing distress", 4)
	assert.Equal(t, escalationAcknowledgement, ack1)
	assert.True(t, state.Escalated())

	c.EscalateToTeacher(context.Background(), "classifier", "a different reason", 5)

	require.Eventually(t, func() bool { return store.callCount() == 1 }, time.Second, time.Millisecond)

	_, escalations := recorder.count()
	assert.Equal(t, 2, escalations, "the span fires on every call")
	assert.Equal(t, "student expressing distress", state.EscalationReason(), "first reason wins")
}
