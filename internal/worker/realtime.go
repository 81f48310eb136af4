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

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/learningvoice/orchestrator/internal/mediaplane"
	"github.com/learningvoice/orchestrator/internal/routing"
	"github.com/learningvoice/orchestrator/internal/safety"
	"github.com/learningvoice/orchestrator/internal/session"
	"github.com/learningvoice/orchestrator/internal/store"
	"github.com/learningvoice/orchestrator/internal/transcript"
)

// RealtimeJoinJob is the assignment the control service delivers to the
// realtime worker when the pipeline worker dispatches into it (spec §4.4
// route_to_english, §4.5). Unlike the pipeline worker's job this never
// carries a student JWT: the control service has already authenticated
// the room for this internally-dispatched agent.
type RealtimeJoinJob struct {
	RoomName string
	Metadata string
}

// RealtimeModel is the audio-native inference boundary (spec §1 "out of
// scope: ... large-language-model inference endpoints"). Prompt drives the
// model to produce a spoken reply conditioned on question; the resulting
// audio is played directly by the boundary implementation, outside this
// runtime's control.
type RealtimeModel interface {
	Prompt(ctx context.Context, question string) error
}

// PostHocChecker is the narrow safety.Filter surface the realtime worker
// needs: a plain moderation check with no rewrite, since by the time an
// audio-native reply's text mirrors on the data channel the audio has
// already played (spec §4.5 step 4(c), §9).
type PostHocChecker interface {
	Check(ctx context.Context, text string) safety.CheckResult
}

// RealtimeDeps are the realtime worker's collaborators.
type RealtimeDeps struct {
	MediaPlane  mediaplane.Controller
	Store       store.Store
	Tracer      Tracer
	Model       RealtimeModel
	Checker     PostHocChecker
	ReplyDelay  time.Duration
	Logger      *slog.Logger
}

// RealtimeWorker implements the `learning-english` session loop.
type RealtimeWorker struct {
	mediaPlane mediaplane.Controller
	store      store.Store
	tracer     Tracer
	model      RealtimeModel
	checker    PostHocChecker
	replyDelay time.Duration
	logger     *slog.Logger
}

// NewRealtimeWorker builds a RealtimeWorker from deps, defaulting
// ReplyDelay to the spec-mandated 3.0s and Logger to slog.Default.
func NewRealtimeWorker(deps RealtimeDeps) *RealtimeWorker {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ReplyDelay == 0 {
		deps.ReplyDelay = 3000 * time.Millisecond
	}
	return &RealtimeWorker{
		mediaPlane: deps.MediaPlane,
		store:      deps.Store,
		tracer:     deps.Tracer,
		model:      deps.Model,
		checker:    deps.Checker,
		replyDelay: deps.ReplyDelay,
		logger:     deps.Logger,
	}
}

// RunRoomJoin drives one realtime session (spec §4.5 "Session construction
// (realtime worker)"): recover Session State from dispatch metadata, join
// the room, wait out the WebRTC establishment delay before replaying any
// pending question, process events with a post-hoc safety pass, and emit
// session.end on close.
func (w *RealtimeWorker) RunRoomJoin(ctx context.Context, job RealtimeJoinJob) error {
	meta := routing.ParseMetadata(job.Metadata)
	if meta.Session == "" {
		return fmt.Errorf("worker: realtime join: dispatch metadata missing session id")
	}

	state := session.Recover(meta.Session, "", job.RoomName, session.Subject(meta.Subject))
	state.RouteTo(session.SubjectEnglish)
	state.SetSpeakingAgent(session.SubjectEnglish)

	if err := w.mediaPlane.Join(ctx, ""); err != nil {
		return fmt.Errorf("worker: realtime join: %w", err)
	}

	w.tracer.SessionStart(state.SessionID(), state.StudentIdentity(), state.RoomName(), "realtime_english", true)

	if meta.Question != "" {
		question := meta.Question
		go func() {
			timer := time.NewTimer(w.replyDelay)
			defer timer.Stop()
			<-timer.C
			if err := w.model.Prompt(ctx, question); err != nil {
				w.logger.Warn("realtime prompt failed", "error", err, "session_id", state.SessionID())
			}
		}()
	}

	w.processEvents(ctx, state)

	w.tracer.SessionEnd(state.SessionID(), state.StudentIdentity(), "realtime_english",
		state.TurnNumber(), state.Escalated(), subjectStrings(state.SubjectsCovered()))
	return nil
}

func (w *RealtimeWorker) processEvents(ctx context.Context, state *session.State) {
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
			case mediaplane.EventConversationItemAdded:
				w.handleItem(ctx, state, ev.Item)
			case mediaplane.EventClose:
				break loop
			}
		}
	}
}

// handleItem is the synchronous dispatcher required by the host runtime's
// signal contract (spec §5): it schedules an independent worker for every
// suspension point (span emission, publish, post-hoc check) rather than
// awaiting inline.
func (w *RealtimeWorker) handleItem(ctx context.Context, state *session.State, item mediaplane.ConversationItem) {
	turn := state.AdvanceTurn()
	go w.recordItem(ctx, state, item, turn)
}

func (w *RealtimeWorker) recordItem(ctx context.Context, state *session.State, item mediaplane.ConversationItem, turn int) {
	speaker := transcript.SpeakerStudent
	if item.Role == "assistant" {
		speaker = transcript.SpeakerEnglish
	}
	evt := transcript.WithSubject(speaker, transcript.Role(item.Role), item.Content, string(session.SubjectEnglish), turn, state.SessionID())

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
		Subject:   string(session.SubjectEnglish),
		Turn:      turn,
	}); err != nil {
		w.logger.Warn("transcript turn persist failed", "error", err)
	}

	w.tracer.ConversationItem(state.SessionID(), state.StudentIdentity(), string(session.SubjectEnglish),
		item.Role, "realtime", turn, nil)

	if item.Role != "assistant" {
		return
	}
	result := w.checker.Check(ctx, item.Content)
	if !result.Flagged {
		return
	}
	w.logger.Warn("post-hoc safety flag on realtime audio reply, already played",
		"session_id", state.SessionID(), "peak_score", result.PeakScore)
	if err := w.store.RecordGuardrailEvent(ctx, store.GuardrailEventRow{
		SessionID:         state.SessionID(),
		AgentName:         "english",
		OriginalText:      item.Content,
		RewrittenText:     "",
		CategoriesFlagged: flaggedCategoryList(result),
		PeakScore:         result.PeakScore,
	}); err != nil {
		w.logger.Warn("guardrail event persist failed", "error", err)
	}
}

func flaggedCategoryList(result safety.CheckResult) string {
	names := ""
	for cat, flagged := range result.Categories {
		if !flagged {
			continue
		}
		if names != "" {
			names += ","
		}
		names += cat
	}
	return names
}
