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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	sessions []LearningSession
}

func (f *fakeStore) UpsertSession(ctx context.Context, row LearningSession) error {
	f.sessions = append(f.sessions, row)
	return nil
}
func (f *fakeStore) RecordTurn(ctx context.Context, row TranscriptTurn) error { return nil }
func (f *fakeStore) RecordRoutingDecision(ctx context.Context, row RoutingDecisionRow) error {
	return nil
}
func (f *fakeStore) RecordEscalation(ctx context.Context, row EscalationEventRow) (string, error) {
	return "join-token", nil
}
func (f *fakeStore) RecordGuardrailEvent(ctx context.Context, row GuardrailEventRow) error { return nil }

func TestCachingStore_PassesThroughWithoutCache(t *testing.T) {
	inner := &fakeStore{}
	cs := NewCachingStore(inner, nil)

	err := cs.UpsertSession(context.Background(), LearningSession{SessionID: "sess-1"})
	require.NoError(t, err)
	require.Len(t, inner.sessions, 1)
	assert.Equal(t, "sess-1", inner.sessions[0].SessionID)

	token, err := cs.RecordEscalation(context.Background(), EscalationEventRow{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, "join-token", token)
}

func TestCachingStore_SatisfiesStore(t *testing.T) {
	var _ Store = NewCachingStore(&fakeStore{}, nil)
}
