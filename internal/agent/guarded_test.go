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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningvoice/orchestrator/internal/session"
)

func TestSentenceBuffer_FlushesOnTerminator(t *testing.T) {
	buf := &SentenceBuffer{}

	_, ok := buf.Push("Hello")
	assert.False(t, ok)

	sentence, ok := buf.Push(" world.")
	assert.True(t, ok)
	assert.Equal(t, "Hello world.", sentence)
}

func TestSentenceBuffer_FlushOnStreamClose(t *testing.T) {
	buf := &SentenceBuffer{}
	buf.Push("no terminator here")

	sentence, ok := buf.Flush()
	assert.True(t, ok)
	assert.Equal(t, "no terminator here", sentence)

	_, ok = buf.Flush()
	assert.False(t, ok, "flushing an empty buffer reports false")
}

type recordingFilter struct {
	mu    sync.Mutex
	calls []string
}

func (f *recordingFilter) CheckAndRewrite(ctx context.Context, text, sessionID, agentName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	return text
}

func (f *recordingFilter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type passthroughSynth struct{}

func (passthroughSynth) Synthesize(ctx context.Context, text string, settings SynthesisSettings) (<-chan AudioFrame, error) {
	out := make(chan AudioFrame, 1)
	out <- AudioFrame(text)
	close(out)
	return out, nil
}

type noopRecorder struct{}

func (noopRecorder) AgentActivated(sessionID, userID, agentName string) {}
func (noopRecorder) TTSSentence(sessionID, agentName string, sentenceLength int, guardrailLatency, synthesisLatency time.Duration, rewritten bool) {
}

type stubReplyDriver struct {
	lastQuestion string
}

func (d *stubReplyDriver) Reply(ctx context.Context, state *session.State, question string) (<-chan string, error) {
	d.lastQuestion = question
	out := make(chan string)
	close(out)
	return out, nil
}

func TestSpeak_MultiTerminatorInputTwoGuardrailCallsInOrder(t *testing.T) {
	filter := &recordingFilter{}
	base := NewBase(Config{Name: "math"}, filter, passthroughSynth{}, noopRecorder{}, &stubReplyDriver{}, nil)

	chunks := make(chan string)
	frames := base.Speak(context.Background(), "sess-1", chunks)

	go func() {
		chunks <- "Hello."
		chunks <- " World."
		close(chunks)
	}()

	for range frames {
	}

	require.Len(t, filter.calls, 2)
	assert.Equal(t, "Hello.", filter.calls[0])
	assert.Equal(t, "World.", filter.calls[1])
}

func TestSpeak_NoTerminatorFlushesOnceAtClose(t *testing.T) {
	filter := &recordingFilter{}
	base := NewBase(Config{Name: "history"}, filter, passthroughSynth{}, noopRecorder{}, &stubReplyDriver{}, nil)

	chunks := make(chan string)
	frames := base.Speak(context.Background(), "sess-1", chunks)

	go func() {
		chunks <- "no terminator"
		close(chunks)
	}()

	for range frames {
	}

	require.Len(t, filter.calls, 1)
	assert.Equal(t, "no terminator", filter.calls[0])
}

func TestActivate_ConsumesPendingQuestion(t *testing.T) {
	state := session.New("student-1", "room-1")
	state.SetPendingQuestion("seven times eight")

	driver := &stubReplyDriver{}
	base := NewBase(Config{Name: "math"}, &recordingFilter{}, passthroughSynth{}, noopRecorder{}, driver, nil)

	_, err := base.Activate(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "seven times eight", driver.lastQuestion)

	_, hasQuestion := state.ConsumePendingQuestion()
	assert.False(t, hasQuestion, "the question must be consumed exactly once")
}

func TestActivate_NoPendingQuestionDrivesDefaultReply(t *testing.T) {
	state := session.New("student-1", "room-1")
	driver := &stubReplyDriver{}
	base := NewBase(Config{Name: "orchestrator"}, &recordingFilter{}, passthroughSynth{}, noopRecorder{}, driver, nil)

	_, err := base.Activate(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "", driver.lastQuestion)
}
