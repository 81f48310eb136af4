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

// MathName is the fixed agent_name for the mathematics specialist.
const MathName = "math"

const MathInstructions = "You are a patient mathematics tutor for school-aged students. Explain " +
	"your reasoning step by step in simple language. If the student asks about history, call " +
	"route_to_history directly. If they ask something off-topic, call route_back_to_orchestrator."

// NewMath builds the mathematics specialist agent.
func NewMath(filter SafetyFilter, synth Synthesizer, recorder SpanRecorder, reply ReplyDriver, voice string, logger *slog.Logger) *Base {
	return NewBase(Config{
		Name:         MathName,
		Instructions: MathInstructions,
		Model:        "gpt-4o-mini",
		Settings:     SynthesisSettings{Voice: voice},
	}, filter, synth, recorder, reply, logger)
}
