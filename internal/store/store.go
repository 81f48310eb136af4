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

package store

import "context"

// Store is the narrow persistence boundary the core depends on. Every
// call here is meant to be issued fire-and-forget (`go store.X(...)`) from
// the caller; Store itself does not retry or buffer.
type Store interface {
	UpsertSession(ctx context.Context, row LearningSession) error
	RecordTurn(ctx context.Context, row TranscriptTurn) error
	RecordRoutingDecision(ctx context.Context, row RoutingDecisionRow) error
	RecordEscalation(ctx context.Context, row EscalationEventRow) (joinToken string, err error)
	RecordGuardrailEvent(ctx context.Context, row GuardrailEventRow) error
}
