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

// Event is the audit record emitted whenever check_and_rewrite rewrites a
// sentence (spec §3 "Safety Event").
type Event struct {
	SessionID      string
	AgentName      string
	OriginalText   string
	RewrittenText  string
	FlaggedCategories []string
	PeakScore      float64
	Timestamp      time.Time
}

// AuditSink persists a Safety Event. Implementations must not block the
// speech path; CheckAndRewrite always calls Record from its own goroutine.
type AuditSink interface {
	Record(event Event)
}

// NoopAuditSink discards events; useful as a safe default and in tests that
// don't care about the audit trail.
type NoopAuditSink struct{}

func (NoopAuditSink) Record(Event) {}

// FuncAuditSink adapts a plain function to AuditSink.
type FuncAuditSink func(Event)

func (f FuncAuditSink) Record(event Event) { f(event) }
