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
	"log/slog"
	"sync"
	"time"

	"github.com/learningvoice/orchestrator/internal/session"
)

// Agent is the minimal shape the Routing Controller needs from a
// specialist agent instance; the full agent contract lives in
// internal/agent and satisfies this trivially.
type Agent interface {
	Name() string
}

// AgentFactory builds a new agent instance seeded with the running chat
// context and a pending question (spec §4.4 route_to_math/route_to_history).
type AgentFactory func(subject session.Subject, pendingQuestion string) Agent

// Dispatcher issues an out-of-process job dispatch against the media-plane
// control service (spec §6), naming a registered worker and a room.
type Dispatcher interface {
	Dispatch(ctx context.Context, workerName, room, metadata string) error
}

// PipelineCloser gracefully drains and closes a worker session. Close must
// never be implemented as an interrupt: it must let in-flight synthesis
// finish (spec §4.4 route_to_english).
type PipelineCloser interface {
	Close(ctx context.Context) error
}

// EscalationStore persists an escalation event and mints a teacher-side
// join token (spec §4.4 escalate_to_teacher).
type EscalationStore interface {
	CreateEscalation(ctx context.Context, e Escalation) (joinToken string, err error)
}

// Transition sentences spoken by the outgoing agent before a handoff.
const (
	mathTransitionSentence    = "Let me connect you with our Mathematics tutor!"
	historyTransitionSentence = "Let me connect you with our History tutor!"
	englishTransitionSentence = "One moment, I'm bringing in our English conversation tutor."
	escalationAcknowledgement = "I'm getting a teacher to join us right now. Stay with me."
)

// Controller implements the five routing operations of spec §4.4 against a
// single room's Session State.
type Controller struct {
	state   *session.State
	factory AgentFactory

	dispatcher Dispatcher
	closer     PipelineCloser
	store      EscalationStore
	recorder   Recorder
	logger     *slog.Logger

	room               string
	englishWorkerName  string
	pipelineWorkerName string

	drainDelay    time.Duration
	closeWatchdog time.Duration

	now func() time.Time
}

// Options configures a Controller. Dispatcher, Closer and Store are
// optional: a controller built without them can still perform in-session
// routing and escalation-latch bookkeeping, useful on whichever worker
// side doesn't own that responsibility.
type Options struct {
	State              *session.State
	Factory            AgentFactory
	Dispatcher         Dispatcher
	Closer             PipelineCloser
	Store              EscalationStore
	Recorder           Recorder
	Logger             *slog.Logger
	Room               string
	EnglishWorkerName  string
	PipelineWorkerName string
	DrainDelay         time.Duration
	CloseWatchdog      time.Duration
	Now                func() time.Time
}

// NewController builds a Controller from opts, applying spec-mandated
// defaults (3.5s drain, 30s watchdog) when left zero.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DrainDelay == 0 {
		opts.DrainDelay = 3500 * time.Millisecond
	}
	if opts.CloseWatchdog == 0 {
		opts.CloseWatchdog = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		state:              opts.State,
		factory:            opts.Factory,
		dispatcher:         opts.Dispatcher,
		closer:             opts.Closer,
		store:              opts.Store,
		recorder:           opts.Recorder,
		logger:             opts.Logger,
		room:               opts.Room,
		englishWorkerName:  opts.EnglishWorkerName,
		pipelineWorkerName: opts.PipelineWorkerName,
		drainDelay:         opts.DrainDelay,
		closeWatchdog:      opts.CloseWatchdog,
		now:                opts.Now,
	}
}

// RouteToMath implements route_to_math (spec §4.4).
func (c *Controller) RouteToMath(ctx context.Context, questionSummary string) (Agent, string) {
	return c.routeInSession(ctx, session.SubjectMath, questionSummary, mathTransitionSentence)
}

// RouteToHistory implements route_to_history (spec §4.4).
func (c *Controller) RouteToHistory(ctx context.Context, questionSummary string) (Agent, string) {
	return c.routeInSession(ctx, session.SubjectHistory, questionSummary, historyTransitionSentence)
}

// RouteBackToOrchestrator implements the classifier-return half of
// route_back_to_orchestrator when invoked in-session (e.g. a specialist
// handing back after answering). The out-of-worker variant used by the
// English specialist is DispatchBackToOrchestrator.
func (c *Controller) RouteBackToOrchestrator(ctx context.Context, questionSummary string) (Agent, string) {
	return c.routeInSession(ctx, session.SubjectClassifier, questionSummary, "")
}

// routeInSession performs the shared tuple-returning handoff: capture the
// outgoing speaker for transition-sentence attribution, mutate state,
// pre-set the incoming speaker, arm phantom-turn suppression, build the new
// agent, and record the decision span. Same-subject routing is a no-op on
// Session State (spec §4.4 edge cases, §8 idempotence): the factory call
// itself is a cheap lookup of the already-live agent instance (see
// cmd/worker's Factory, which indexes a pre-built agent map rather than
// constructing anything new), but the skip counter, pending question and
// previous_subjects history are left untouched and no transition sentence
// is spoken, since no real handoff occurred — only the decision span still
// fires.
//
// speaking_agent is advanced to the incoming subject synchronously, here,
// before the transition sentence is even returned to the caller — so by
// the time that sentence's conversation item is committed and processed
// (asynchronously, off the media-plane event stream), speaking_agent no
// longer names who actually spoke it. Session State's one-shot
// pending-transition-speaker override exists precisely to carry the
// outgoing speaker across that gap (spec §3 invariants, §4.4 design notes,
// §8 "speaking_agent at the moment a transition sentence is emitted is the
// outgoing agent, never the incoming one").
func (c *Controller) routeInSession(ctx context.Context, target session.Subject, questionSummary, transitionSentence string) (Agent, string) {
	from := c.state.CurrentSubject()
	previous := from
	outgoingSpeaker := c.state.SpeakingAgent()

	alreadyThere := from == target
	if !alreadyThere {
		if transitionSentence != "" {
			c.state.SetPendingTransitionSpeaker(outgoingSpeaker)
		}
		c.state.RouteTo(target)
		c.state.SetSpeakingAgent(target)
		c.state.SetSkipNextUserTurns(1)
		c.state.SetPendingQuestion(questionSummary)
	} else {
		transitionSentence = ""
	}

	start := c.now()
	agent := c.factory(target, questionSummary)
	latency := c.now().Sub(start)

	if c.recorder != nil {
		c.recorder.RoutingDecision(Decision{
			SessionID:       c.state.SessionID(),
			From:            from,
			To:              target,
			PreviousSubject: previous,
			QuestionSummary: truncateSummary(questionSummary),
			LastUserMessage: truncateSummary(questionSummary),
			HistoryLength:   len(c.state.PreviousSubjects()) + 1,
			Latency:         latency,
		})
	}

	return agent, transitionSentence
}

// EnglishRoute is the outcome of RouteToEnglish: either a successful
// out-of-process dispatch (Dispatched=true, no Agent) or a degraded
// in-session fallback agent (spec §4.4 Failure semantics).
type EnglishRoute struct {
	Dispatched bool
	Transition string
	Agent      Agent
}

// RouteToEnglish implements route_to_english (spec §4.4). On dispatch
// success it schedules the drain-and-close sequence and returns a plain
// transition string; on dispatch failure it falls back to an in-session
// degraded English agent via the same tuple-returning path as
// RouteToMath/RouteToHistory.
func (c *Controller) RouteToEnglish(ctx context.Context, questionSummary string) EnglishRoute {
	from := c.state.CurrentSubject()
	outgoingSpeaker := c.state.SpeakingAgent()

	metadata := Metadata{
		Session:  c.state.SessionID(),
		Question: questionSummary,
		Subject:  string(from),
	}.Format()

	err := c.dispatcher.Dispatch(ctx, c.englishWorkerName, c.room, metadata)
	if err != nil {
		c.logger.Warn("english dispatch failed, falling back to in-session english agent",
			"error", err, "session_id", c.state.SessionID())
		agent, transition := c.routeInSession(ctx, session.SubjectEnglish, questionSummary, englishTransitionSentence)
		return EnglishRoute{Dispatched: false, Agent: agent, Transition: transition}
	}

	previous := from
	c.state.SetPendingTransitionSpeaker(outgoingSpeaker)
	c.state.RouteTo(session.SubjectEnglish)
	c.state.SetSpeakingAgent(session.SubjectEnglish)
	c.state.SetSkipNextUserTurns(1)

	if c.recorder != nil {
		c.recorder.RoutingDecision(Decision{
			SessionID:       c.state.SessionID(),
			From:            from,
			To:              session.SubjectEnglish,
			PreviousSubject: previous,
			QuestionSummary: truncateSummary(questionSummary),
			LastUserMessage: truncateSummary(questionSummary),
			HistoryLength:   len(c.state.PreviousSubjects()) + 1,
		})
	}

	c.scheduleDrainAndClose(ctx)
	return EnglishRoute{Dispatched: true, Transition: englishTransitionSentence}
}

// scheduleDrainAndClose sleeps drainDelay then closes the pipeline session
// gracefully, guarded by a closeWatchdog fallback in case the drain
// goroutine is lost. Never interrupts: an interrupt would silence
// in-flight synthesis mid-word (spec §4.4).
func (c *Controller) scheduleDrainAndClose(ctx context.Context) {
	if c.closer == nil {
		return
	}
	closer := c.closer
	logger := c.logger
	drainDelay := c.drainDelay
	watchdog := c.closeWatchdog

	var once sync.Once
	closeOnce := func() {
		once.Do(func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), watchdog)
			defer cancel()
			if err := closer.Close(closeCtx); err != nil {
				logger.Warn("pipeline session close failed after english dispatch drain", "error", err)
			}
		})
	}
	watchdogTimer := time.AfterFunc(drainDelay+watchdog, closeOnce)

	go func() {
		timer := time.NewTimer(drainDelay)
		defer timer.Stop()
		<-timer.C

		watchdogTimer.Stop()
		closeOnce()
	}()
}

// DispatchBackToOrchestrator implements the realtime-worker half of
// route_back_to_orchestrator: dispatch a job back to the pipeline worker
// carrying return_from_english metadata, then schedule this worker's own
// graceful close so its farewell utterance completes.
func (c *Controller) DispatchBackToOrchestrator(ctx context.Context, reason string) error {
	metadata := Metadata{
		ReturnFromEnglish: c.state.SessionID(),
		Question:          reason,
		Subject:           string(c.state.CurrentSubject()),
	}.Format()

	if err := c.dispatcher.Dispatch(ctx, c.pipelineWorkerName, c.room, metadata); err != nil {
		return err
	}
	c.scheduleDrainAndClose(ctx)
	return nil
}

// EscalateToTeacher implements escalate_to_teacher (spec §4.4). Idempotent
// with respect to the escalated latch: a second call never re-opens a
// teacher session, but the span still fires every time it's called.
func (c *Controller) EscalateToTeacher(ctx context.Context, fromAgent, reason string, turnNumber int) string {
	alreadyEscalated := c.state.Escalate(reason)

	escalation := Escalation{
		SessionID:  c.state.SessionID(),
		UserID:     c.state.StudentIdentity(),
		FromAgent:  fromAgent,
		Reason:     truncateSummary(reason),
		RoomName:   c.room,
		TurnNumber: turnNumber,
	}
	if c.recorder != nil {
		c.recorder.TeacherEscalation(escalation)
	}

	if !alreadyEscalated && c.store != nil {
		store := c.store
		logger := c.logger
		go func() {
			if _, err := store.CreateEscalation(context.Background(), escalation); err != nil {
				logger.Warn("escalation store write failed", "error", err, "session_id", escalation.SessionID)
			}
		}()
	}

	return escalationAcknowledgement
}
