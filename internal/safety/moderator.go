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

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// CheckResult is the outcome of a moderation check (spec §4.1).
type CheckResult struct {
	Flagged    bool
	Categories map[string]bool
	PeakScore  float64
}

// Moderator delegates a moderation check to an external service over the
// fixed 13-category vocabulary.
type Moderator interface {
	Check(ctx context.Context, text string) (CheckResult, error)
}

// OpenAIModerator calls the OpenAI moderation endpoint.
type OpenAIModerator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIModerator builds a moderator against baseURL/apiKey. An empty
// baseURL uses the client's default.
func NewOpenAIModerator(apiKey, baseURL, model string, logger *slog.Logger) *OpenAIModerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIModerator{client: &client, model: model, logger: logger}
}

// Check implements Moderator. Moderation failure is treated as not-flagged
// (fail-open on telemetry, spec §4.1 Failure semantics); the caller's span
// still records the attempt.
func (m *OpenAIModerator) Check(ctx context.Context, text string) (CheckResult, error) {
	resp, err := m.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
		Model: m.model,
	})
	if err != nil {
		m.logger.Warn("moderation request failed, failing open", "error", err)
		return CheckResult{Flagged: false, Categories: map[string]bool{}}, err
	}
	if len(resp.Results) == 0 {
		return CheckResult{Flagged: false, Categories: map[string]bool{}}, nil
	}
	result := resp.Results[0]

	flaggedByCategory := categoryFlags(result)
	scores := categoryScores(result)

	peak := 0.0
	for _, cat := range Categories {
		if v := scores[cat]; v > peak {
			peak = v
		}
	}

	return CheckResult{
		Flagged:    result.Flagged,
		Categories: flaggedByCategory,
		PeakScore:  peak,
	}, nil
}

// categoryFlags and categoryScores are split out from Check so the exact
// 13-category contract stays in one place and is easy to unit-test against
// a hand-built moderation.Categories value.
func categoryFlags(result openai.Moderation) map[string]bool {
	all := result.Categories
	return map[string]bool{
		"harassment":             all.Harassment,
		"harassment/threatening": all.HarassmentThreatening,
		"hate":                   all.Hate,
		"hate/threatening":       all.HateThreatening,
		"sexual":                 all.Sexual,
		"sexual/minors":          all.SexualMinors,
		"violence":               all.Violence,
		"violence/graphic":       all.ViolenceGraphic,
		"self-harm":              all.SelfHarm,
		"self-harm/intent":       all.SelfHarmIntent,
		"self-harm/instructions": all.SelfHarmInstructions,
		"illicit":                all.Illicit,
		"illicit/violent":        all.IllicitViolent,
	}
}

func categoryScores(result openai.Moderation) map[string]float64 {
	all := result.CategoryScores
	return map[string]float64{
		"harassment":             all.Harassment,
		"harassment/threatening": all.HarassmentThreatening,
		"hate":                   all.Hate,
		"hate/threatening":       all.HateThreatening,
		"sexual":                 all.Sexual,
		"sexual/minors":          all.SexualMinors,
		"violence":               all.Violence,
		"violence/graphic":       all.ViolenceGraphic,
		"self-harm":              all.SelfHarm,
		"self-harm/intent":       all.SelfHarmIntent,
		"self-harm/instructions": all.SelfHarmInstructions,
		"illicit":                all.Illicit,
		"illicit/violent":        all.IllicitViolent,
	}
}
