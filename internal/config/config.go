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

// Package config resolves worker configuration from the environment. The
// binary is selected into exactly one of two roles by AGENT_TYPE; all other
// settings are environment-driven with typed defaults.
package config

import (
	"cmp"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AgentType is the role a worker process registers under.
type AgentType string

const (
	AgentTypeOrchestrator AgentType = "orchestrator"
	AgentTypeEnglish      AgentType = "english"
)

// Registered media-plane worker names, bit-exact per spec.
const (
	PipelineWorkerName = "learning-orchestrator"
	RealtimeWorkerName = "learning-english"
)

// Config is the fully resolved set of settings a worker process needs.
//
// The zero value is not valid; build one with Load.
type Config struct {
	AgentType AgentType

	MediaPlaneURL string
	MediaPlaneKey string

	ModerationBaseURL string
	ModerationAPIKey  string
	ModerationModel   string

	RewriterBaseURL string
	RewriterAPIKey  string
	RewriterModel   string

	LLMBaseURL string
	LLMAPIKey  string

	TelemetryEndpoint string
	TelemetryInsecure bool

	StoreDSN     string
	StoreDriver  string
	RedisURL     string

	LogLevel  string
	LogFormat string

	// EnglishDrainDelay is the wall-clock pause (3.5s per spec) the
	// outgoing pipeline agent's transition sentence is given to finish
	// before the pipeline session closes.
	EnglishDrainDelay time.Duration

	// RealtimeReplyDelay is the wall-clock pause (3.0s per spec) the
	// realtime worker waits before driving its model with a pending
	// question, so the audio path has time to establish.
	RealtimeReplyDelay time.Duration

	// CloseWatchdog bounds the drain-and-close sequence (30s per spec).
	CloseWatchdog time.Duration
}

// Load resolves a Config from the process environment. It returns an error
// only for a contract mismatch that should be fatal at startup (spec §7):
// an unrecognized or missing AGENT_TYPE.
func Load() (Config, error) {
	agentType := AgentType(strings.TrimSpace(os.Getenv("AGENT_TYPE")))
	switch agentType {
	case AgentTypeOrchestrator, AgentTypeEnglish:
	default:
		return Config{}, fmt.Errorf("config: AGENT_TYPE must be %q or %q, got %q",
			AgentTypeOrchestrator, AgentTypeEnglish, agentType)
	}

	return Config{
		AgentType: agentType,

		MediaPlaneURL: cmp.Or(os.Getenv("MEDIAPLANE_URL"), "ws://localhost:7880"),
		MediaPlaneKey: os.Getenv("MEDIAPLANE_API_KEY"),

		ModerationBaseURL: os.Getenv("MODERATION_BASE_URL"),
		ModerationAPIKey:  cmp.Or(os.Getenv("MODERATION_API_KEY"), os.Getenv("OPENAI_API_KEY")),
		ModerationModel:   cmp.Or(os.Getenv("MODERATION_MODEL"), "omni-moderation-latest"),

		RewriterBaseURL: os.Getenv("REWRITER_BASE_URL"),
		RewriterAPIKey:  cmp.Or(os.Getenv("REWRITER_API_KEY"), os.Getenv("OPENAI_API_KEY")),
		RewriterModel:   cmp.Or(os.Getenv("REWRITER_MODEL"), "gpt-4o-mini"),

		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:  cmp.Or(os.Getenv("LLM_API_KEY"), os.Getenv("OPENAI_API_KEY")),

		TelemetryEndpoint: cmp.Or(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "http://localhost:4318"),
		TelemetryInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		StoreDSN:    os.Getenv("STORE_DSN"),
		StoreDriver: cmp.Or(os.Getenv("STORE_DRIVER"), "postgres"),
		RedisURL:    os.Getenv("REDIS_URL"),

		LogLevel:  cmp.Or(os.Getenv("LOG_LEVEL"), "info"),
		LogFormat: cmp.Or(os.Getenv("LOG_FORMAT"), "json"),

		EnglishDrainDelay:  envDuration("ENGLISH_DRAIN_DELAY", 3500*time.Millisecond),
		RealtimeReplyDelay: envDuration("REALTIME_REPLY_DELAY", 3000*time.Millisecond),
		CloseWatchdog:      envDuration("CLOSE_WATCHDOG", 30*time.Second),
	}, nil
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
