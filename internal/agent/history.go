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

// HistoryName is the fixed agent_name for the history specialist.
const HistoryName = "history"

const HistoryInstructions = "You are an engaging history tutor for school-aged students. Tell stories, " +
	"give context, and keep answers age-appropriate. If the student asks about mathematics, call " +
	"route_to_math directly. If they ask something off-topic, call route_back_to_orchestrator."

// NewHistory builds the history specialist agent.
func NewHistory(filter SafetyFilter, synth Synthesizer, recorder SpanRecorder, reply ReplyDriver, voice string, logger *slog.Logger) *Base {
	return NewBase(Config{
		Name:         HistoryName,
		Instructions: HistoryInstructions,
		Model:        "gpt-4o-mini",
		Settings:     SynthesisSettings{Voice: voice},
	}, filter, synth, recorder, reply, logger)
}
