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

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningvoice/orchestrator/internal/routing"
	"github.com/learningvoice/orchestrator/internal/session"
)

type stubAgent struct{ name string }

func (a stubAgent) Name() string { return a.name }

func newTestController(state *session.State) *routing.Controller {
	return routing.NewController(routing.Options{
		State:   state,
		Factory: func(subject session.Subject, pendingQuestion string) routing.Agent { return stubAgent{name: string(subject)} },
		Room:    "room-1",
	})
}

func chatCompletionServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestReply_NoToolCallReturnsModelText(t *testing.T) {
	srv := chatCompletionServer(t, `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hi there, how can I help?"}}]
	}`)
	defer srv.Close()

	state := session.New("student-1", "room-1")
	driver := NewChatReplyDriver("test-key", srv.URL, "gpt-4o-mini", "You are the classifier.", "classifier",
		func(s *session.State) *routing.Controller { return newTestController(s) }, nil)

	chunks, err := driver.Reply(context.Background(), state, "")
	require.NoError(t, err)
	require.NotNil(t, chunks)
	assert.Equal(t, "Hi there, how can I help?", <-chunks)
}

func TestReply_ToolCallRoutesToMathAndReturnsTransition(t *testing.T) {
	srv := chatCompletionServer(t, `{
		"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
			"role": "assistant", "content": "",
			"tool_calls": [{"id": "call-1", "type": "function", "function": {"name": "route_to_math", "arguments": "{\"question_summary\":\"seven times eight\"}"}}]
		}}]
	}`)
	defer srv.Close()

	state := session.New("student-1", "room-1")
	driver := NewChatReplyDriver("test-key", srv.URL, "gpt-4o-mini", "You are the classifier.", "classifier",
		func(s *session.State) *routing.Controller { return newTestController(s) }, nil)

	chunks, err := driver.Reply(context.Background(), state, "")
	require.NoError(t, err)
	assert.Equal(t, "Let me connect you with our Mathematics tutor!", <-chunks)
	assert.Equal(t, session.SubjectMath, state.CurrentSubject())
	assert.Equal(t, session.SubjectMath, state.SpeakingAgent())

	question, ok := state.ConsumePendingQuestion()
	require.True(t, ok)
	assert.Equal(t, "seven times eight", question)
}

func TestReply_MalformedToolArgumentsSkipsRoutingAndReturnsEmpty(t *testing.T) {
	srv := chatCompletionServer(t, `{
		"id": "chatcmpl-3", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
			"role": "assistant", "content": "",
			"tool_calls": [{"id": "call-1", "type": "function", "function": {"name": "route_to_math", "arguments": "not valid json"}}]
		}}]
	}`)
	defer srv.Close()

	state := session.New("student-1", "room-1")
	driver := NewChatReplyDriver("test-key", srv.URL, "gpt-4o-mini", "You are the classifier.", "classifier",
		func(s *session.State) *routing.Controller { return newTestController(s) }, nil)

	chunks, err := driver.Reply(context.Background(), state, "")
	require.NoError(t, err)
	assert.Equal(t, "", <-chunks, "a malformed tool-call payload must not be silently routed as a blank argument")
	assert.Equal(t, session.SubjectClassifier, state.CurrentSubject(), "no routing must occur on malformed arguments")
}

func TestToolParams_CoverAllFiveOperations(t *testing.T) {
	state := session.New("student-1", "room-1")
	ctrl := newTestController(state)
	params := toolParams(ctrl.ToolSet("classifier"))
	assert.Len(t, params, 5)

	names := map[string]bool{}
	for _, p := range params {
		var decoded map[string]any
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &decoded))
		fn, ok := decoded["function"].(map[string]any)
		require.True(t, ok)
		names[fn["name"].(string)] = true
	}
	for _, want := range []string{"route_to_math", "route_to_history", "route_back_to_orchestrator", "route_to_english", "escalate_to_teacher"} {
		assert.True(t, names[want], "missing tool %q", want)
	}
}
