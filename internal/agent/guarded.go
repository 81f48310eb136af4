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

package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/learningvoice/orchestrator/internal/session"
)

// AudioFrame is a single synthesized audio frame handed to the media plane.
type AudioFrame []byte

// SynthesisSettings carries the voice and optional synthesis-engine
// override attached to an agent (spec §4.3 public contract).
type SynthesisSettings struct {
	Voice  string
	Engine string
}

// Synthesizer turns safe text into audio frames. The concrete
// implementation lives behind the media-plane boundary (spec §6); Base
// only depends on this narrow interface.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, settings SynthesisSettings) (<-chan AudioFrame, error)
}

// SafetyFilter is the subset of safety.Filter the Guarded Agent Base
// needs, narrowed here so this package doesn't import internal/safety's
// OpenAI client plumbing.
type SafetyFilter interface {
	CheckAndRewrite(ctx context.Context, text, sessionID, agentName string) string
}

// SpanRecorder receives the two spans the Guarded Agent Base is
// responsible for (spec §4.3, §4.6): agent.activated and tts.sentence.
type SpanRecorder interface {
	AgentActivated(sessionID, userID, agentName string)
	TTSSentence(sessionID, agentName string, sentenceLength int, guardrailLatency, synthesisLatency time.Duration, rewritten bool)
}

// ReplyDriver drives the underlying language model to produce a streamed
// reply, either conditioned on a pending question or a default opening
// line when there is none (spec §4.3 activation hook).
type ReplyDriver interface {
	Reply(ctx context.Context, state *session.State, question string) (<-chan string, error)
}

// Config is the fixed per-agent-type configuration (spec §4.3 public
// contract: agent_name, instructions, model, voice, optional synthesis
// engine override).
type Config struct {
	Name         string
	Instructions string
	Model        string
	Settings     SynthesisSettings
}

// Base is the Guarded Agent Base: every pipeline-path agent (classifier,
// math, history, the degraded in-session English fallback) embeds one.
type Base struct {
	cfg Config

	filter   SafetyFilter
	synth    Synthesizer
	recorder SpanRecorder
	reply    ReplyDriver
	logger   *slog.Logger
}

// NewBase wires a Guarded Agent Base from its fixed configuration and
// collaborators.
func NewBase(cfg Config, filter SafetyFilter, synth Synthesizer, recorder SpanRecorder, reply ReplyDriver, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{cfg: cfg, filter: filter, synth: synth, recorder: recorder, reply: reply, logger: logger}
}

// Name satisfies routing.Agent.
func (b *Base) Name() string { return b.cfg.Name }

// Activate implements the activation hook (spec §4.3): emit agent.activated,
// then consume a pending question if one was attached to this instance or
// drive a default opening reply otherwise.
func (b *Base) Activate(ctx context.Context, state *session.State) (<-chan string, error) {
	b.recorder.AgentActivated(state.SessionID(), state.StudentIdentity(), b.cfg.Name)
	question, _ := state.ConsumePendingQuestion()
	return b.reply.Reply(ctx, state, question)
}

// Speak implements the synthesis interception (spec §4.3): buffer text at
// sentence boundaries, route each completed sentence through the Safety
// Filter, and forward the resulting audio. The returned channel is closed
// once textChunks closes and any trailing partial sentence has drained.
func (b *Base) Speak(ctx context.Context, sessionID string, textChunks <-chan string) <-chan AudioFrame {
	out := make(chan AudioFrame)
	go func() {
		defer close(out)
		buf := &SentenceBuffer{}
		for chunk := range textChunks {
			if sentence, ok := buf.Push(chunk); ok {
				b.synthesizeSentence(ctx, sessionID, sentence, out)
			}
		}
		if sentence, ok := buf.Flush(); ok {
			b.synthesizeSentence(ctx, sessionID, sentence, out)
		}
	}()
	return out
}

func (b *Base) synthesizeSentence(ctx context.Context, sessionID, sentence string, out chan<- AudioFrame) {
	guardrailStart := time.Now()
	safe := b.filter.CheckAndRewrite(ctx, sentence, sessionID, b.cfg.Name)
	guardrailLatency := time.Since(guardrailStart)
	rewritten := safe != sentence

	synthStart := time.Now()
	frames, err := b.synth.Synthesize(ctx, safe, b.cfg.Settings)
	if err != nil {
		b.logger.Warn("synthesis failed", "error", err, "agent", b.cfg.Name)
		return
	}
	for frame := range frames {
		out <- frame
	}
	synthesisLatency := time.Since(synthStart)

	if b.recorder != nil {
		b.recorder.TTSSentence(sessionID, b.cfg.Name, len(sentence), guardrailLatency, synthesisLatency, rewritten)
	}
}
