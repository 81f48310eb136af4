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
	"time"

	"github.com/learningvoice/orchestrator/internal/session"
)

// summaryTruncateLimit matches the 500-char bound on the teacher.escalation
// and routing.decision span attributes (spec §4.6 table).
const summaryTruncateLimit = 500

// Decision is the routing.decision span payload (spec §4.6).
type Decision struct {
	SessionID       string
	From            session.Subject
	To              session.Subject
	PreviousSubject session.Subject
	QuestionSummary string
	LastUserMessage string
	HistoryLength   int
	Latency         time.Duration
}

// Recorder receives routing and escalation telemetry. Implemented by
// internal/telemetry against the OTel SDK; narrowed here so this package
// never imports otel directly.
type Recorder interface {
	RoutingDecision(d Decision)
	TeacherEscalation(e Escalation)
}

// Escalation is the teacher.escalation span payload (spec §4.6).
type Escalation struct {
	SessionID  string
	UserID     string
	FromAgent  string
	Reason     string
	RoomName   string
	TurnNumber int
}

func truncateSummary(s string) string {
	if len(s) <= summaryTruncateLimit {
		return s
	}
	return s[:summaryTruncateLimit]
}
