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

package safety

import "time"

// SpanRecorder receives the two spans the Safety Filter is responsible for
// (spec §4.6): guardrail.check and guardrail.rewrite.
type SpanRecorder interface {
	GuardrailCheck(textLength int, flagged bool, peakScore float64, checkLatency time.Duration)
	GuardrailRewrite(originalLength, rewrittenLength int, rewriteLatency time.Duration)
}

// NoopSpanRecorder discards span data; the Filter default.
type NoopSpanRecorder struct{}

func (NoopSpanRecorder) GuardrailCheck(int, bool, float64, time.Duration)    {}
func (NoopSpanRecorder) GuardrailRewrite(int, int, time.Duration)            {}
