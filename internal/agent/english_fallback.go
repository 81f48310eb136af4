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

import "log/slog"

// EnglishFallbackName is the fixed agent_name for the degraded in-session
// English agent used when dispatch to the audio-native realtime worker
// fails (spec §4.4 Failure semantics). It is a text-only agent and so
// inherits the full Guarded Agent Base contract like any other specialist;
// it does not get a lighter safety pass just because it's a fallback.
const EnglishFallbackName = "english"

const EnglishFallbackInstructions = "You are an English language and grammar tutor for school-aged " +
	"students, filling in while our dedicated conversation tutor is unavailable. Keep answers short " +
	"and simple. If the student asks about math or history, route them with route_to_math or " +
	"route_to_history. If they ask something off-topic, call route_back_to_orchestrator."

// NewEnglishFallback builds the degraded in-session English agent.
func NewEnglishFallback(filter SafetyFilter, synth Synthesizer, recorder SpanRecorder, reply ReplyDriver, voice string, logger *slog.Logger) *Base {
	return NewBase(Config{
		Name:         EnglishFallbackName,
		Instructions: EnglishFallbackInstructions,
		Model:        "gpt-4o-mini",
		Settings:     SynthesisSettings{Voice: voice},
	}, filter, synth, recorder, reply, logger)
}
