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

// Package llm binds the Guarded Agent Base's ReplyDriver contract to a
// chat-completions model, exposing the Routing Controller's sealed tool
// set as OpenAI function tools (spec §4.4). The language-model endpoint
// itself is an out-of-scope boundary (spec §1); this package is the one
// piece of "the core" that has to speak its function-calling wire format.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/learningvoice/orchestrator/internal/routing"
	"github.com/learningvoice/orchestrator/internal/session"
)

// ControllerFactory builds the per-session Routing Controller backing an
// agent's tool set. Only Session State varies call to call; the
// dispatcher, closer, store and recorder are fixed at worker start.
type ControllerFactory func(state *session.State) *routing.Controller

// ChatReplyDriver implements agent.ReplyDriver against an OpenAI-compatible
// chat-completions endpoint, with the five routing operations registered
// as callable tools.
type ChatReplyDriver struct {
	client       *openai.Client
	model        string
	instructions string
	fromAgent    string
	controllers  ControllerFactory
	logger       *slog.Logger
}

// NewChatReplyDriver builds a ChatReplyDriver against baseURL/apiKey.
// fromAgent identifies the agent whose tool set is exposed (only relevant
// for escalate_to_teacher's FromAgent attribute).
func NewChatReplyDriver(apiKey, baseURL, model, instructions, fromAgent string, controllers ControllerFactory, logger *slog.Logger) *ChatReplyDriver {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatReplyDriver{
		client:       &client,
		model:        model,
		instructions: instructions,
		fromAgent:    fromAgent,
		controllers:  controllers,
		logger:       logger,
	}
}

// Reply implements agent.ReplyDriver. It issues one chat-completion call;
// a tool call in the response is dispatched to the matching routing.Tool
// and its transition sentence becomes the sole output chunk (the newly
// routed agent's own reply is driven separately by whichever caller
// re-activates it, per the handoff contract in spec §4.4 edge cases).
func (d *ChatReplyDriver) Reply(ctx context.Context, state *session.State, question string) (<-chan string, error) {
	ctrl := d.controllers(state)
	tools := ctrl.ToolSet(d.fromAgent)

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(d.instructions)}
	if question != "" {
		messages = append(messages, openai.UserMessage(question))
	} else {
		messages = append(messages, openai.UserMessage("Greet the student and ask how you can help today."))
	}

	resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    d.model,
		Messages: messages,
		Tools:    toolParams(tools),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: chat completion returned no choices")
	}

	out := make(chan string, 1)
	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		out <- d.invoke(ctx, tools, msg.ToolCalls[0])
	} else {
		out <- msg.Content
	}
	close(out)
	return out, nil
}

// toolSchemas are the fixed JSON-schema argument shapes for the sealed
// routing.Tool variants (spec §4.4).
var toolSchemas = map[string]map[string]any{
	"route_to_math": {
		"type":       "object",
		"properties": map[string]any{"question_summary": map[string]any{"type": "string"}},
		"required":   []string{"question_summary"},
	},
	"route_to_history": {
		"type":       "object",
		"properties": map[string]any{"question_summary": map[string]any{"type": "string"}},
		"required":   []string{"question_summary"},
	},
	"route_back_to_orchestrator": {
		"type":       "object",
		"properties": map[string]any{"reason": map[string]any{"type": "string"}},
		"required":   []string{"reason"},
	},
	"route_to_english": {
		"type":       "object",
		"properties": map[string]any{"question_summary": map[string]any{"type": "string"}},
		"required":   []string{"question_summary"},
	},
	"escalate_to_teacher": {
		"type": "object",
		"properties": map[string]any{
			"reason":      map[string]any{"type": "string"},
			"turn_number": map[string]any{"type": "integer"},
		},
		"required": []string{"reason", "turn_number"},
	},
}

func toolParams(tools []routing.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:       t.Name(),
			Parameters: toolSchemas[t.Name()],
		}))
	}
	return out
}

func (d *ChatReplyDriver) invoke(ctx context.Context, tools []routing.Tool, call openai.ChatCompletionMessageToolCallUnion) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		d.logger.Warn("model returned malformed tool-call arguments", "tool", call.Function.Name, "error", err)
		return ""
	}

	for _, tool := range tools {
		if tool.Name() != call.Function.Name {
			continue
		}
		switch t := tool.(type) {
		case routing.RouteToMathTool:
			_, transition := t.Invoke(ctx, stringArg(args, "question_summary"))
			return transition
		case routing.RouteToHistoryTool:
			_, transition := t.Invoke(ctx, stringArg(args, "question_summary"))
			return transition
		case routing.RouteBackToOrchestratorTool:
			_, transition := t.Invoke(ctx, stringArg(args, "reason"))
			return transition
		case routing.RouteToEnglishTool:
			route := t.Invoke(ctx, stringArg(args, "question_summary"))
			return route.Transition
		case routing.EscalateToTeacherTool:
			return t.Invoke(ctx, stringArg(args, "reason"), intArg(args, "turn_number"))
		}
	}
	d.logger.Warn("model called an unrecognized tool", "tool", call.Function.Name)
	return ""
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) int {
	v, ok := args[key].(float64)
	if !ok {
		return 0
	}
	return int(v)
}
