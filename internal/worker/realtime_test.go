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

package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningvoice/orchestrator/internal/mediaplane"
	"github.com/learningvoice/orchestrator/internal/safety"
)

type recordingModel struct {
	mu        sync.Mutex
	prompts   []string
}

func (m *recordingModel) Prompt(ctx context.Context, question string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, question)
	return nil
}

func (m *recordingModel) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type scriptedChecker struct{ result safety.CheckResult }

func (s scriptedChecker) Check(ctx context.Context, text string) safety.CheckResult { return s.result }

func TestRealtimeWorker_RejectsMissingSessionID(t *testing.T) {
	mp := mediaplane.NewMock()
	w := NewRealtimeWorker(RealtimeDeps{
		MediaPlane: mp,
		Store:      &fakeStore{},
		Tracer:     &recordingTracer{},
		Model:      &recordingModel{},
		Checker:    scriptedChecker{},
	})

	err := w.RunRoomJoin(context.Background(), RealtimeJoinJob{RoomName: "room-3", Metadata: "question:hi"})
	require.Error(t, err)
}

func TestRealtimeWorker_PromptsAfterReplyDelay(t *testing.T) {
	mp := mediaplane.NewMock()
	model := &recordingModel{}
	tr := &recordingTracer{}

	w := NewRealtimeWorker(RealtimeDeps{
		MediaPlane: mp,
		Store:      &fakeStore{},
		Tracer:     tr,
		Model:      model,
		Checker:    scriptedChecker{},
		ReplyDelay: 10 * time.Millisecond,
	})

	meta := "session:sess-1|question:adjectives|subject:classifier"
	done := make(chan error, 1)
	go func() {
		done <- w.RunRoomJoin(context.Background(), RealtimeJoinJob{RoomName: "room-3", Metadata: meta})
	}()

	require.Eventually(t, func() bool { return model.promptCount() == 1 }, time.Second, 5*time.Millisecond)
	mp.PushEvent(mediaplane.Event{Kind: mediaplane.EventClose})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunRoomJoin did not return")
	}
	assert.Equal(t, 1, tr.starts)
	assert.Equal(t, 1, tr.ends)
	assert.Equal(t, []string{"adjectives"}, model.prompts)
}

func TestRealtimeWorker_PostHocFlagPersistsGuardrailEventWithoutRewrite(t *testing.T) {
	mp := mediaplane.NewMock()
	st := &fakeStore{}

	w := NewRealtimeWorker(RealtimeDeps{
		MediaPlane: mp,
		Store:      st,
		Tracer:     &recordingTracer{},
		Model:      &recordingModel{},
		Checker:    scriptedChecker{result: safety.CheckResult{Flagged: true, PeakScore: 0.9, Categories: map[string]bool{"violence": true}}},
	})

	done := make(chan error, 1)
	go func() {
		done <- w.RunRoomJoin(context.Background(), RealtimeJoinJob{RoomName: "room-4", Metadata: "session:sess-2"})
	}()

	mp.PushEvent(mediaplane.Event{
		Kind: mediaplane.EventConversationItemAdded,
		Item: mediaplane.ConversationItem{Role: "assistant", Content: "something flagged"},
	})
	mp.PushEvent(mediaplane.Event{Kind: mediaplane.EventClose})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunRoomJoin did not return")
	}

	require.Eventually(t, func() bool { return st.turnCount() >= 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(st.guardrailsSnapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Empty(t, st.guardrailsSnapshot()[0].RewrittenText, "the realtime path never rewrites")
}
