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

package mediaplane

import (
	"context"
	"sync"
)

// Mock is an in-memory Controller double for worker and routing tests.
// It records Dispatch/PublishData calls and lets a test push synthetic
// Events.
type Mock struct {
	mu sync.Mutex

	Joined       bool
	JoinedToken  string
	Closed       bool
	Dispatches   []DispatchRequest
	Published    map[string][][]byte
	DispatchErr  error
	JoinErr      error

	events chan Event
	subs   map[string]chan []byte
}

// NewMock builds a ready-to-use Mock.
func NewMock() *Mock {
	return &Mock{
		Published: make(map[string][][]byte),
		events:    make(chan Event, 32),
		subs:      make(map[string]chan []byte),
	}
}

func (m *Mock) Join(ctx context.Context, roomToken string) error {
	if m.JoinErr != nil {
		return m.JoinErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Joined = true
	m.JoinedToken = roomToken
	return nil
}

func (m *Mock) Dispatch(ctx context.Context, req DispatchRequest) error {
	if m.DispatchErr != nil {
		return m.DispatchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dispatches = append(m.Dispatches, req)
	return nil
}

func (m *Mock) PublishData(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published[topic] = append(m.Published[topic], payload)
	return nil
}

func (m *Mock) SubscribeData(topic string) <-chan []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.subs[topic]
	if !ok {
		ch = make(chan []byte, 32)
		m.subs[topic] = ch
	}
	return ch
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

// PushEvent lets a test simulate the host runtime delivering a signal.
func (m *Mock) PushEvent(e Event) {
	m.events <- e
}

func (m *Mock) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *Mock) WasClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

func (m *Mock) DispatchCalls() []DispatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DispatchRequest, len(m.Dispatches))
	copy(out, m.Dispatches)
	return out
}
