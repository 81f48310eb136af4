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

// Package worker hosts the two room-join loops (spec §4.5): the pipeline
// worker (speech-to-text/LLM/text-to-speech, starting on the classifier)
// and the realtime worker (audio-native English specialist).
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/learningvoice/orchestrator/internal/agent"
	"github.com/learningvoice/orchestrator/internal/mediaplane"
	"github.com/learningvoice/orchestrator/internal/routing"
	"github.com/learningvoice/orchestrator/internal/session"
	"github.com/learningvoice/orchestrator/internal/store"
	"github.com/learningvoice/orchestrator/internal/transcript"
)

// Tracer is the subset of telemetry.Tracer the dual-worker runtime needs:
// lifecycle and conversation-item spans (spec §4.6). *telemetry.Tracer
// satisfies this by structural typing alongside routing.Recorder,
// agent.SpanRecorder and safety.SpanRecorder.
type Tracer interface {
	SessionStart(sessionID, userID, roomName, sessionType string, recovered bool)
	SessionEnd(sessionID, userID, sessionType string, totalTurns int, escalated bool, subjectsCovered []string)
	ConversationItem(sessionID, userID, subject, role, sessionType string, turnNumber int, e2eResponseMs *int64)
}

// RoomJoinJob is one room-join assignment delivered to the pipeline worker
// by the media-plane control service. RoomToken is the student's JWT,
// present on a fresh join; Metadata is the dispatch metadata string,
// present (carrying return_from_english) when the realtime worker has
// handed control back (spec §4.5 step 1).
type RoomJoinJob struct {
	RoomToken string
	RoomName  string
	Metadata  string
}

// PipelineDeps are the pipeline worker's collaborators. Agents holds every
// specialist the pipeline worker can activate in-session, keyed by the
// subject it answers for session.SubjectClassifier must always be present;
// session.SubjectMath/SubjectHistory/SubjectEnglish are present whenever
// that specialist can run in-session (the degraded English fallback, or
// math/history after a routing handoff).
type PipelineDeps struct {
	MediaPlane mediaplane.Controller
	Store      store.Store
	Tracer     Tracer
	Agents     map[session.Subject]*agent.Base
	Logger     *slog.Logger
}

// PipelineWorker implements the `learning-orchestrator` session loop.
type PipelineWorker struct {
	mediaPlane mediaplane.Controller
	store      store.Store
	tracer     Tracer
	agents     map[session.Subject]*agent.Base
	logger     *slog.Logger
}

// NewPipelineWorker builds a PipelineWorker from deps, defaulting Logger.
func NewPipelineWorker(deps PipelineDeps) *PipelineWorker {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &PipelineWorker{
		mediaPlane: deps.MediaPlane,
		store:      deps.Store,
		tracer:     deps.Tracer,
		agents:     deps.Agents,
		logger:     deps.Logger,
	}
}

// RunRoomJoin drives one pipeline session end to end: recover or create
// Session State, join the room, activate the classifier, process
// conversation events until the session closes, and emit session.end
// (spec §4.5 "Session construction (pipeline worker)").
func (w *PipelineWorker) RunRoomJoin(ctx context.Context, job RoomJoinJob) error {
	meta := routing.ParseMetadata(job.Metadata)

	studentIdentity := ""
	if job.RoomToken != "" {
		if claims, err := mediaplane.ParseDispatchDirective(job.RoomToken); err == nil {
			studentIdentity = claims.StudentIdentity
		} else {
			w.logger.Warn("dispatch directive parse failed", "error", err)
		}
	}

	recovered := meta.ReturnFromEnglish != ""

	var state *session.State
	if recovered {
		state = session.Recover(meta.ReturnFromEnglish, studentIdentity, job.RoomName, session.Subject(meta.Subject))
		if meta.Question != "" {
			state.SetPendingQuestion(meta.Question)
			state.SetSkipNextUserTurns(1)
		}
		state.SetSpeakingAgent(session.SubjectClassifier)
	} else {
		state = session.New(studentIdentity, job.RoomName)
	}

	if err := w.mediaPlane.Join(ctx, job.RoomToken); err != nil {
		return fmt.Errorf("worker: pipeline join: %w", err)
	}

	go func(row store.LearningSession) {
		if err := w.store.UpsertSession(context.Background(), row); err != nil {
			w.logger.Warn("session upsert failed", "error", err, "session_id", row.SessionID)
		}
	}(store.LearningSession{
		SessionID:       state.SessionID(),
		StudentIdentity: state.StudentIdentity(),
		RoomName:        state.RoomName(),
		SessionType:     "pipeline",
		Recovered:       recovered,
	})

	w.tracer.SessionStart(state.SessionID(), state.StudentIdentity(), state.RoomName(), "pipeline", recovered)

	w.activateAgent(ctx, state.SpeakingAgent(), state)

	w.processEvents(ctx, state)

	w.tracer.SessionEnd(state.SessionID(), state.StudentIdentity(), "pipeline",
		state.TurnNumber(), state.Escalated(), subjectStrings(state.SubjectsCovered()))
	return nil
}

// processEvents subscribes to the joined room's signal stream and runs
// until a close event or ctx cancellation (spec §4.5 steps 4-5).
func (w *PipelineWorker) processEvents(ctx context.Context, state *session.State) {
	events := w.mediaPlane.Events()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			switch ev.Kind {
			case mediaplane.EventUserInputTranscribed:
				state.MarkUserInput(time.Now())
			case mediaplane.EventConversationItemAdded:
				w.handleItem(ctx, state, ev.Item)
			case mediaplane.EventClose:
				break loop
			}
		}
	}
}

// handleItem is the synchronous dispatcher: it performs the phantom-turn
// suppression check, turn accounting, and speaker attribution inline (the
// host runtime forbids an awaiting handler), then schedules the actual I/O
// as an independent worker (spec §4.5 step 4, §5 "Scheduling").
//
// Speaker attribution is resolved here, synchronously, rather than in the
// later goroutine: a routing handoff arms a one-shot pending-transition-
// speaker override on Session State the moment it advances speaking_agent,
// precisely so the very next assistant item — the transition sentence the
// outgoing agent spoke — is still attributed to that outgoing agent even
// though speaking_agent itself has already moved on by the time this event
// arrives (spec §3 invariants, §8 testable properties). Consuming it here,
// in item-arrival order, keeps that attribution tied to the correct item
// even if multiple conversation items are in flight concurrently.
func (w *PipelineWorker) handleItem(ctx context.Context, state *session.State, item mediaplane.ConversationItem) {
	if item.Role == "user" && state.ConsumeSkipUserTurn() {
		return
	}
	turn := state.AdvanceTurn()

	var speaker transcript.Speaker
	if item.Role == "user" {
		speaker = transcript.SpeakerStudent
	} else if outgoing, ok := state.ConsumePendingTransitionSpeaker(); ok {
		speaker = transcript.Speaker(outgoing)
	} else {
		speaker = transcript.Speaker(state.SpeakingAgent())
	}

	go w.recordItem(ctx, state, item, turn, speaker)
}

func (w *PipelineWorker) recordItem(ctx context.Context, state *session.State, item mediaplane.ConversationItem, turn int, speaker transcript.Speaker) {
	role := transcript.Role(item.Role)
	subject := string(state.CurrentSubject())

	var evt transcript.Event
	if subject == "" || session.Subject(subject) == session.SubjectClassifier {
		evt = transcript.WithoutSubject(speaker, role, item.Content, turn, state.SessionID())
	} else {
		evt = transcript.WithSubject(speaker, role, item.Content, subject, turn, state.SessionID())
	}

	if payload, err := transcript.Marshal(evt); err != nil {
		w.logger.Warn("transcript marshal failed", "error", err)
	} else if err := w.mediaPlane.PublishData(ctx, transcript.Topic, payload); err != nil {
		w.logger.Warn("transcript publish failed", "error", err)
	}

	if err := w.store.RecordTurn(ctx, store.TranscriptTurn{
		SessionID: state.SessionID(),
		Speaker:   string(speaker),
		Role:      item.Role,
		Content:   item.Content,
		Subject:   subject,
		Turn:      turn,
	}); err != nil {
		w.logger.Warn("transcript turn persist failed", "error", err)
	}

	var e2eMs *int64
	if item.Role == "assistant" {
		if d, ok := state.ConsumeLatency(time.Now()); ok {
			ms := d.Milliseconds()
			e2eMs = &ms
		}
	}
	w.tracer.ConversationItem(state.SessionID(), state.StudentIdentity(), subject, item.Role, "pipeline", turn, e2eMs)
}

// activateAgent drives the activation hook for whichever agent answers
// subject and drains the resulting audio frames. Audio transport itself is
// the out-of-scope media-plane boundary (spec §1); this worker only needs
// to exhaust the channel so Speak's goroutine can complete its per-sentence
// guardrail/telemetry work. A routing tool invoked mid-reply moves
// SpeakingAgent to the handed-off specialist before Speak's channel
// closes; once drained, activateAgent notices the change and recurses so
// the newly active specialist gets its own first turn (spec §4.4 handoff
// edge cases, worked example: math consumes pending_question and answers
// in the same session activation as the classifier's transition sentence).
func (w *PipelineWorker) activateAgent(ctx context.Context, subject session.Subject, state *session.State) {
	a, ok := w.agents[subject]
	if !ok {
		w.logger.Warn("no agent registered for subject", "subject", subject)
		return
	}

	chunks, err := a.Activate(ctx, state)
	if err != nil {
		w.logger.Warn("agent activation failed", "agent", a.Name(), "error", err)
		return
	}
	frames := a.Speak(ctx, state.SessionID(), chunks)
	for range frames {
	}

	if next := state.SpeakingAgent(); next != subject {
		w.activateAgent(ctx, next, state)
	}
}

func subjectStrings(subjects []session.Subject) []string {
	out := make([]string, len(subjects))
	for i, s := range subjects {
		out[i] = string(s)
	}
	return out
}
