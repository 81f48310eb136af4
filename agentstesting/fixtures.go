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

// Package agentstesting collects fixture doubles shared across this
// module's test suites: a scripted moderator/rewriter pair for the Safety
// Filter, and the Session State builders tests reach for most often.
package agentstesting

import (
	"context"
	"sync"

	"github.com/learningvoice/orchestrator/internal/safety"
	"github.com/learningvoice/orchestrator/internal/session"
)

// ScriptedModerator returns a fixed CheckResult (or error) for every call,
// recording the text it was asked to check.
type ScriptedModerator struct {
	mu     sync.Mutex
	Result safety.CheckResult
	Err    error
	Calls  []string
}

// NewScriptedModerator builds a moderator that reports result for every call.
func NewScriptedModerator(result safety.CheckResult) *ScriptedModerator {
	return &ScriptedModerator{Result: result}
}

func (m *ScriptedModerator) Check(ctx context.Context, text string) (safety.CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, text)
	return m.Result, m.Err
}

func (m *ScriptedModerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// ScriptedRewriter returns a fixed rewrite (or error) for every call.
type ScriptedRewriter struct {
	mu       sync.Mutex
	Rewrite_ string
	Err      error
	Calls    []string
}

// NewScriptedRewriter builds a rewriter that reports rewritten for every call.
func NewScriptedRewriter(rewritten string) *ScriptedRewriter {
	return &ScriptedRewriter{Rewrite_: rewritten}
}

func (r *ScriptedRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, text)
	return r.Rewrite_, r.Err
}

// NewFilter builds a safety.Filter wired to moderator and rewriter, useful
// when a test needs a real Filter rather than a narrower double.
func NewFilter(moderator safety.Moderator, rewriter safety.Rewriter) *safety.Filter {
	return safety.NewFilter(
		func() safety.Moderator { return moderator },
		func() safety.Rewriter { return rewriter },
	)
}

// NewClassifierState builds a freshly-created Session State as it exists
// the moment a pipeline worker accepts a student's room-join, before any
// routing decision (spec §4.2).
func NewClassifierState(studentIdentity, roomName string) *session.State {
	return session.New(studentIdentity, roomName)
}

// NewRecoveredState builds Session State as the pipeline worker
// reconstructs it on a return-from-english dispatch (spec §4.5).
func NewRecoveredState(sessionID, studentIdentity, roomName string, priorSubject session.Subject, pendingQuestion string) *session.State {
	state := session.Recover(sessionID, studentIdentity, roomName, priorSubject)
	if pendingQuestion != "" {
		state.SetPendingQuestion(pendingQuestion)
		state.SetSkipNextUserTurns(1)
	}
	return state
}
