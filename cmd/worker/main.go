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

// Command worker is the registered media-plane process for both worker
// roles (spec §4.5): set AGENT_TYPE=orchestrator to register the pipeline
// worker under learning-orchestrator, or AGENT_TYPE=english to register
// the realtime worker under learning-english. One invocation drives one
// room-join assignment end to end, the way the control service hands a
// single job to a freshly spawned worker process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learningvoice/orchestrator/internal/agent"
	"github.com/learningvoice/orchestrator/internal/config"
	"github.com/learningvoice/orchestrator/internal/llm"
	"github.com/learningvoice/orchestrator/internal/mediaplane"
	"github.com/learningvoice/orchestrator/internal/realtimeclient"
	"github.com/learningvoice/orchestrator/internal/routing"
	"github.com/learningvoice/orchestrator/internal/safety"
	"github.com/learningvoice/orchestrator/internal/session"
	"github.com/learningvoice/orchestrator/internal/store"
	"github.com/learningvoice/orchestrator/internal/telemetry"
	"github.com/learningvoice/orchestrator/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		roomName     string
		roomToken    string
		dispatchMeta string
	)
	flag.StringVar(&roomName, "room", "", "room name this worker process joins")
	flag.StringVar(&roomToken, "room-token", "", "student room-join JWT (pipeline worker, fresh join)")
	flag.StringVar(&dispatchMeta, "metadata", "", "dispatch metadata string (recovered pipeline join or realtime join)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.TelemetryEndpoint, cfg.TelemetryInsecure, workerName(cfg.AgentType))
	if err != nil {
		return fmt.Errorf("worker: telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()
	tracer := telemetry.NewTracer(tp, workerName(cfg.AgentType))

	relStore, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return fmt.Errorf("worker: store: %w", err)
	}
	persistence := withCache(relStore, cfg)

	mediaPlane := mediaplane.NewWSClient(cfg.MediaPlaneURL, logger)

	switch cfg.AgentType {
	case config.AgentTypeOrchestrator:
		return runPipeline(ctx, cfg, logger, tracer, persistence, mediaPlane, worker.RoomJoinJob{
			RoomToken: roomToken,
			RoomName:  roomName,
			Metadata:  dispatchMeta,
		})
	case config.AgentTypeEnglish:
		return runRealtime(ctx, cfg, logger, tracer, persistence, mediaPlane, worker.RealtimeJoinJob{
			RoomName: roomName,
			Metadata: dispatchMeta,
		})
	default:
		return fmt.Errorf("worker: unhandled agent type %q", cfg.AgentType)
	}
}

func withCache(inner store.Store, cfg config.Config) store.Store {
	if cfg.RedisURL == "" {
		return inner
	}
	cache, err := store.NewSessionCache(cfg.RedisURL, 30*time.Minute)
	if err != nil {
		slog.Warn("session cache unavailable, continuing without it", "error", err)
		return inner
	}
	return store.NewCachingStore(inner, cache)
}

func workerName(t config.AgentType) string {
	if t == config.AgentTypeEnglish {
		return config.RealtimeWorkerName
	}
	return config.PipelineWorkerName
}

// escalationAdapter narrows a store.Store down to routing.EscalationStore.
type escalationAdapter struct{ store store.Store }

func (a escalationAdapter) CreateEscalation(ctx context.Context, e routing.Escalation) (string, error) {
	return a.store.RecordEscalation(ctx, store.EscalationEventRow{
		SessionID:  e.SessionID,
		FromAgent:  e.FromAgent,
		Reason:     e.Reason,
		RoomName:   e.RoomName,
		TurnNumber: e.TurnNumber,
	})
}

// runPipeline wires the classifier, math, history and degraded-English
// fallback agents and runs one pipeline-worker room join (spec §4.5).
func runPipeline(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	tracer *telemetry.Tracer,
	persistence store.Store,
	mediaPlane *mediaplane.WSClient,
	job worker.RoomJoinJob,
) error {
	filter := safety.NewFilter(
		func() safety.Moderator { return safety.NewOpenAIModerator(cfg.ModerationAPIKey, cfg.ModerationBaseURL, cfg.ModerationModel, logger) },
		func() safety.Rewriter { return safety.NewOpenAIRewriter(cfg.RewriterAPIKey, cfg.RewriterBaseURL, cfg.RewriterModel, logger) },
	)
	filter.SetSpanRecorder(tracer)

	synth := agent.NewRelaySynthesizer(mediaPlane)
	dispatcher := mediaplane.Dispatcher{Controller: mediaPlane}
	escalations := escalationAdapter{store: persistence}

	agents := make(map[session.Subject]*agent.Base, 4)

	var controllers llm.ControllerFactory = func(state *session.State) *routing.Controller {
		return routing.NewController(routing.Options{
			State:              state,
			Factory:            func(subject session.Subject, pendingQuestion string) routing.Agent { return agents[subject] },
			Dispatcher:         dispatcher,
			Closer:             mediaPlane,
			Store:              escalations,
			Recorder:           tracer,
			Logger:             logger,
			Room:               job.RoomName,
			EnglishWorkerName:  config.RealtimeWorkerName,
			PipelineWorkerName: config.PipelineWorkerName,
			DrainDelay:         cfg.EnglishDrainDelay,
			CloseWatchdog:      cfg.CloseWatchdog,
		})
	}

	agents[session.SubjectClassifier] = agent.NewClassifier(filter, synth, tracer,
		llm.NewChatReplyDriver(cfg.LLMAPIKey, cfg.LLMBaseURL, "gpt-4o-mini", agent.ClassifierInstructions, agent.ClassifierName, controllers, logger),
		"alloy", logger)
	agents[session.SubjectMath] = agent.NewMath(filter, synth, tracer,
		llm.NewChatReplyDriver(cfg.LLMAPIKey, cfg.LLMBaseURL, "gpt-4o-mini", agent.MathInstructions, agent.MathName, controllers, logger),
		"alloy", logger)
	agents[session.SubjectHistory] = agent.NewHistory(filter, synth, tracer,
		llm.NewChatReplyDriver(cfg.LLMAPIKey, cfg.LLMBaseURL, "gpt-4o-mini", agent.HistoryInstructions, agent.HistoryName, controllers, logger),
		"alloy", logger)
	agents[session.SubjectEnglish] = agent.NewEnglishFallback(filter, synth, tracer,
		llm.NewChatReplyDriver(cfg.LLMAPIKey, cfg.LLMBaseURL, "gpt-4o-mini", agent.EnglishFallbackInstructions, agent.EnglishFallbackName, controllers, logger),
		"alloy", logger)

	if err := worker.Prewarm(ctx, noopVADLoader{}); err != nil {
		logger.Warn("vad prewarm failed", "error", err)
	}

	w := worker.NewPipelineWorker(worker.PipelineDeps{
		MediaPlane: mediaPlane,
		Store:      persistence,
		Tracer:     tracer,
		Agents:     agents,
		Logger:     logger,
	})
	return w.RunRoomJoin(ctx, job)
}

// runRealtime wires the audio-native realtime model and runs one
// realtime-worker room join (spec §4.5).
func runRealtime(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	tracer *telemetry.Tracer,
	persistence store.Store,
	mediaPlane *mediaplane.WSClient,
	job worker.RealtimeJoinJob,
) error {
	model := realtimeclient.New(cfg.LLMAPIKey, "", "gpt-realtime", "ash")
	if err := model.Connect(ctx); err != nil {
		return fmt.Errorf("worker: realtime model connect: %w", err)
	}
	defer model.Close()

	checker := safety.NewFilter(
		func() safety.Moderator { return safety.NewOpenAIModerator(cfg.ModerationAPIKey, cfg.ModerationBaseURL, cfg.ModerationModel, logger) },
		func() safety.Rewriter { return safety.NewOpenAIRewriter(cfg.RewriterAPIKey, cfg.RewriterBaseURL, cfg.RewriterModel, logger) },
	)
	checker.SetSpanRecorder(tracer)

	w := worker.NewRealtimeWorker(worker.RealtimeDeps{
		MediaPlane: mediaPlane,
		Store:      persistence,
		Tracer:     tracer,
		Model:      model,
		Checker:    checker,
		ReplyDelay: cfg.RealtimeReplyDelay,
		Logger:     logger,
	})
	return w.RunRoomJoin(ctx, job)
}

// noopVADLoader stands in for the prewarm hook's real voice-activity model
// until that model asset is wired (it lives entirely on the out-of-scope
// speech-to-text boundary).
type noopVADLoader struct{}

func (noopVADLoader) Load(ctx context.Context) error { return nil }

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
