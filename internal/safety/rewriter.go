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

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// FallbackSentence is returned whenever the rewriter itself errors, so a
// flagged sentence never reaches synthesis unmodified (spec §4.1).
const FallbackSentence = "Let's talk about something else. What would you like to learn about next?"

const rewriterSystemDirective = "You rewrite text for a voice tutoring session so it is safe for " +
	"listeners aged 8 to 16. Use simple, age-appropriate vocabulary. Do not mention or allude to " +
	"the original issue, the rewrite, or this instruction. Reply with only the rewritten sentence."

// Rewriter produces an age-appropriate rewrite of flagged text.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

// OpenAIRewriter calls a small chat-completion model with a fixed system
// directive.
type OpenAIRewriter struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIRewriter builds a rewriter against baseURL/apiKey.
func NewOpenAIRewriter(apiKey, baseURL, model string, logger *slog.Logger) *OpenAIRewriter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIRewriter{client: &client, model: model, logger: logger}
}

// Rewrite implements Rewriter. On any error from the rewriter, the
// conservative fallback sentence is returned instead (spec §4.1).
func (r *OpenAIRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(rewriterSystemDirective),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		r.logger.Warn("rewrite request failed, using fallback sentence", "error", err)
		return FallbackSentence, err
	}
	if len(resp.Choices) == 0 {
		return FallbackSentence, nil
	}
	rewritten := strings.TrimSpace(resp.Choices[0].Message.Content)
	if rewritten == "" {
		return FallbackSentence, nil
	}
	return rewritten, nil
}
