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

// ClassifierName is the fixed agent_name for the room's entry-point agent.
const ClassifierName = "orchestrator"

const ClassifierInstructions = "You are a friendly classroom assistant greeting a student who just " +
	"joined a tutoring room. Listen to their question and route them to the right specialist: " +
	"route_to_math for arithmetic or mathematics, route_to_history for history, or route_to_english " +
	"for English language and grammar. If the student seems distressed, call escalate_to_teacher."

// NewClassifier builds the classifier agent (spec §1, §4.3): the
// always-present entry point that routes every new question.
func NewClassifier(filter SafetyFilter, synth Synthesizer, recorder SpanRecorder, reply ReplyDriver, voice string, logger *slog.Logger) *Base {
	return NewBase(Config{
		Name:         ClassifierName,
		Instructions: ClassifierInstructions,
		Model:        "gpt-4o-mini",
		Settings:     SynthesisSettings{Voice: voice},
	}, filter, synth, recorder, reply, logger)
}
