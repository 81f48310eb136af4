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

package routing

import "context"

// Tool is a single reified routing tool call, invocable by an active
// agent's language model. The set of Tools returned by ToolSet is sealed:
// five variants, one per spec §4.4 operation, dispatched by name rather
// than by reflection.
type Tool interface {
	Name() string
}

// RouteToMathTool exposes route_to_math.
type RouteToMathTool struct{ Controller *Controller }

func (RouteToMathTool) Name() string { return "route_to_math" }

func (t RouteToMathTool) Invoke(ctx context.Context, questionSummary string) (Agent, string) {
	return t.Controller.RouteToMath(ctx, questionSummary)
}

// RouteToHistoryTool exposes route_to_history.
type RouteToHistoryTool struct{ Controller *Controller }

func (RouteToHistoryTool) Name() string { return "route_to_history" }

func (t RouteToHistoryTool) Invoke(ctx context.Context, questionSummary string) (Agent, string) {
	return t.Controller.RouteToHistory(ctx, questionSummary)
}

// RouteBackToOrchestratorTool exposes route_back_to_orchestrator for a
// specialist running in-session on the pipeline worker.
type RouteBackToOrchestratorTool struct{ Controller *Controller }

func (RouteBackToOrchestratorTool) Name() string { return "route_back_to_orchestrator" }

func (t RouteBackToOrchestratorTool) Invoke(ctx context.Context, reason string) (Agent, string) {
	return t.Controller.RouteBackToOrchestrator(ctx, reason)
}

// RouteToEnglishTool exposes route_to_english.
type RouteToEnglishTool struct{ Controller *Controller }

func (RouteToEnglishTool) Name() string { return "route_to_english" }

func (t RouteToEnglishTool) Invoke(ctx context.Context, questionSummary string) EnglishRoute {
	return t.Controller.RouteToEnglish(ctx, questionSummary)
}

// EscalateToTeacherTool exposes escalate_to_teacher.
type EscalateToTeacherTool struct {
	Controller *Controller
	FromAgent  string
}

func (EscalateToTeacherTool) Name() string { return "escalate_to_teacher" }

func (t EscalateToTeacherTool) Invoke(ctx context.Context, reason string, turnNumber int) string {
	return t.Controller.EscalateToTeacher(ctx, t.FromAgent, reason, turnNumber)
}

// ToolSet returns the sealed set of routing tools available to an agent
// named fromAgent, for wiring into that agent's language-model tool list.
func (c *Controller) ToolSet(fromAgent string) []Tool {
	return []Tool{
		RouteToMathTool{Controller: c},
		RouteToHistoryTool{Controller: c},
		RouteBackToOrchestratorTool{Controller: c},
		RouteToEnglishTool{Controller: c},
		EscalateToTeacherTool{Controller: c, FromAgent: fromAgent},
	}
}
