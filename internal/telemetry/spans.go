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

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/learningvoice/orchestrator/internal/routing"
)

// Tracer emits the fixed span taxonomy of spec §4.6 table. A single Tracer
// satisfies routing.Recorder, agent.SpanRecorder and safety.SpanRecorder by
// structural typing, so one instance wires into all three components.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer builds a Tracer against the given provider, named for the
// worker process emitting spans (e.g. "learning-orchestrator").
func NewTracer(provider trace.TracerProvider, instrumentationName string) *Tracer {
	return &Tracer{tracer: provider.Tracer(instrumentationName)}
}

func (t *Tracer) emit(name string, attrs ...attribute.KeyValue) {
	_, span := t.tracer.Start(context.Background(), name, trace.WithAttributes(attrs...))
	span.End()
}

// SessionStart emits session.start. recovered is only meaningful on the
// pipeline worker (spec §4.6 table).
func (t *Tracer) SessionStart(sessionID, userID, roomName, sessionType string, recovered bool) {
	t.emit("session.start",
		attribute.String("session_id", sessionID),
		attribute.String("user_id", userID),
		attribute.String("room_name", roomName),
		attribute.String("session_type", sessionType),
		attribute.Bool("recovered", recovered),
	)
}

// SessionEnd emits session.end with aggregated session stats.
func (t *Tracer) SessionEnd(sessionID, userID, sessionType string, totalTurns int, escalated bool, subjectsCovered []string) {
	t.emit("session.end",
		attribute.String("session_id", sessionID),
		attribute.String("user_id", userID),
		attribute.String("session_type", sessionType),
		attribute.Int("total_turns", totalTurns),
		attribute.Bool("escalated", escalated),
		attribute.StringSlice("subjects_covered", subjectsCovered),
	)
}

// AgentActivated implements agent.SpanRecorder.
func (t *Tracer) AgentActivated(sessionID, userID, agentName string) {
	t.emit("agent.activated",
		attribute.String("agent_name", agentName),
		attribute.String("session_id", sessionID),
		attribute.String("user_id", userID),
	)
}

// ConversationItem emits conversation.item. e2eResponseMs is nil unless a
// last_user_input_at timestamp was pending for this assistant item.
func (t *Tracer) ConversationItem(sessionID, userID, subject, role, sessionType string, turnNumber int, e2eResponseMs *int64) {
	attrs := []attribute.KeyValue{
		attribute.String("session_id", sessionID),
		attribute.String("user_id", userID),
		attribute.String("subject", subject),
		attribute.String("role", role),
		attribute.String("session_type", sessionType),
		attribute.Int("turn", turnNumber),
	}
	if e2eResponseMs != nil {
		attrs = append(attrs, attribute.Int64("e2e_response_ms", *e2eResponseMs))
	}
	t.emit("conversation.item", attrs...)
}

// TTSSentence implements agent.SpanRecorder.
func (t *Tracer) TTSSentence(sessionID, agentName string, sentenceLength int, guardrailLatency, synthesisLatency time.Duration, rewritten bool) {
	t.emit("tts.sentence",
		attribute.String("session_id", sessionID),
		attribute.String("agent_name", agentName),
		attribute.Int("sentence_length", sentenceLength),
		attribute.Int64("guardrail_ms", guardrailLatency.Milliseconds()),
		attribute.Int64("synthesis_ms", synthesisLatency.Milliseconds()),
		attribute.Bool("rewritten", rewritten),
	)
}

// GuardrailCheck implements safety.SpanRecorder.
func (t *Tracer) GuardrailCheck(textLength int, flagged bool, peakScore float64, checkLatency time.Duration) {
	t.emit("guardrail.check",
		attribute.Int("text_length", textLength),
		attribute.Bool("flagged", flagged),
		attribute.Float64("peak_score", peakScore),
		attribute.Int64("check_ms", checkLatency.Milliseconds()),
	)
}

// GuardrailRewrite implements safety.SpanRecorder.
func (t *Tracer) GuardrailRewrite(originalLength, rewrittenLength int, rewriteLatency time.Duration) {
	t.emit("guardrail.rewrite",
		attribute.Int("original_length", originalLength),
		attribute.Int("rewritten_length", rewrittenLength),
		attribute.Int64("rewrite_ms", rewriteLatency.Milliseconds()),
	)
}

// RoutingDecision implements routing.Recorder.
func (t *Tracer) RoutingDecision(d routing.Decision) {
	t.emit("routing.decision",
		attribute.String("session_id", d.SessionID),
		attribute.String("from_agent", string(d.From)),
		attribute.String("to_agent", string(d.To)),
		attribute.String("previous_subject", string(d.PreviousSubject)),
		attribute.String("question_summary", d.QuestionSummary),
		attribute.String("last_user_message", d.LastUserMessage),
		attribute.Int("history_length", d.HistoryLength),
		attribute.Int64("decision_ms", d.Latency.Milliseconds()),
	)
}

// TeacherEscalation implements routing.Recorder.
func (t *Tracer) TeacherEscalation(e routing.Escalation) {
	t.emit("teacher.escalation",
		attribute.String("from_agent", e.FromAgent),
		attribute.String("reason", e.Reason),
		attribute.String("room_name", e.RoomName),
		attribute.Int("turn_number", e.TurnNumber),
		attribute.String("session_id", e.SessionID),
		attribute.String("user_id", e.UserID),
	)
}
