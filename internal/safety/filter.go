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

// Package safety implements the per-sentence two-stage content-safety
// pipeline (spec §4.1): check, and on a flag, rewrite and audit.
package safety

import (
	"context"
	"slices"
	"sync/atomic"
	"time"
)

// Filter is the safety pipeline used by every text-path agent. The zero
// value is not usable; build one with NewFilter.
//
// Moderator and Rewriter clients are lazy singletons created on first use
// and resettable for test isolation (spec §4.1 Design notes, §9); Filter
// itself holds no per-request mutable state, matching that design.
type Filter struct {
	moderator atomic.Pointer[Moderator]
	rewriter  atomic.Pointer[Rewriter]
	audit     atomic.Pointer[AuditSink]
	spans     atomic.Pointer[SpanRecorder]

	moderatorFactory func() Moderator
	rewriterFactory  func() Rewriter
}

// NewFilter builds a Filter whose Moderator and Rewriter are constructed
// lazily via the given factories the first time they're needed.
func NewFilter(moderatorFactory func() Moderator, rewriterFactory func() Rewriter) *Filter {
	f := &Filter{
		moderatorFactory: moderatorFactory,
		rewriterFactory:  rewriterFactory,
	}
	var sink AuditSink = NoopAuditSink{}
	f.audit.Store(&sink)
	var recorder SpanRecorder = NoopSpanRecorder{}
	f.spans.Store(&recorder)
	return f
}

// SetAuditSink overrides the audit sink (defaults to a no-op sink).
func (f *Filter) SetAuditSink(sink AuditSink) {
	f.audit.Store(&sink)
}

// SetSpanRecorder overrides the span recorder (defaults to a no-op recorder).
func (f *Filter) SetSpanRecorder(recorder SpanRecorder) {
	f.spans.Store(&recorder)
}

// ResetClients clears the lazily-created moderator/rewriter so the next
// call rebuilds them from the factories. Intended for test teardown.
func (f *Filter) ResetClients() {
	f.moderator.Store(nil)
	f.rewriter.Store(nil)
}

func (f *Filter) getModerator() Moderator {
	if p := f.moderator.Load(); p != nil {
		return *p
	}
	m := f.moderatorFactory()
	f.moderator.CompareAndSwap(nil, &m)
	return *f.moderator.Load()
}

func (f *Filter) getRewriter() Rewriter {
	if p := f.rewriter.Load(); p != nil {
		return *p
	}
	r := f.rewriterFactory()
	f.rewriter.CompareAndSwap(nil, &r)
	return *f.rewriter.Load()
}

// Check delegates to the moderator. Moderation failure is treated as
// not-flagged (fail-open).
func (f *Filter) Check(ctx context.Context, text string) CheckResult {
	start := time.Now()
	result, err := f.getModerator().Check(ctx, text)
	latency := time.Since(start)
	if err != nil {
		result = CheckResult{Flagged: false, Categories: map[string]bool{}}
	}
	(*f.spans.Load()).GuardrailCheck(len(text), result.Flagged, result.PeakScore, latency)
	return result
}

// Rewrite delegates to the rewriter, falling back to the fixed safe
// sentence on any error.
func (f *Filter) Rewrite(ctx context.Context, text string) string {
	start := time.Now()
	rewritten, err := f.getRewriter().Rewrite(ctx, text)
	latency := time.Since(start)
	if err != nil {
		rewritten = FallbackSentence
	}
	(*f.spans.Load()).GuardrailRewrite(len(text), len(rewritten), latency)
	return rewritten
}

// CheckAndRewrite implements the check_and_rewrite contract (spec §4.1):
// pass-through when not flagged, otherwise rewrite and fire an audit
// record asynchronously so the speech path never blocks on it.
func (f *Filter) CheckAndRewrite(ctx context.Context, text, sessionID, agentName string) string {
	result := f.Check(ctx, text)
	if !result.Flagged {
		return text
	}

	rewritten := f.Rewrite(ctx, text)

	sink := *f.audit.Load()
	event := Event{
		SessionID:         sessionID,
		AgentName:         agentName,
		OriginalText:      text,
		RewrittenText:     rewritten,
		FlaggedCategories: flaggedNames(result.Categories),
		PeakScore:         result.PeakScore,
		Timestamp:         time.Now(),
	}
	go sink.Record(event)

	return rewritten
}

func flaggedNames(flags map[string]bool) []string {
	names := make([]string, 0, len(flags))
	for _, cat := range Categories {
		if flags[cat] {
			names = append(names, cat)
		}
	}
	slices.Sort(names)
	return names
}
