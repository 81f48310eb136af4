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

// Package mediaplane models the media-plane control service boundary
// (spec §6): joining a room, dispatching a named worker into it, and
// exchanging data-channel packets and lifecycle events.
package mediaplane

import "context"

// DispatchRequest is the typed agent-dispatch request object. Spec §4.4
// Design notes require the typed form, not loose key-value arguments,
// because only it is accepted by recent control-service versions.
type DispatchRequest struct {
	AgentName string `json:"agent_name"`
	Room      string `json:"room"`
	Metadata  string `json:"metadata"`
}

// EventKind distinguishes the three signal categories a worker subscribes
// to against a joined room (spec §4.5, §6).
type EventKind int

const (
	EventConversationItemAdded EventKind = iota
	EventUserInputTranscribed
	EventClose
)

// ConversationItem carries the role and text content of a committed
// conversation item (spec §3 "Conversation Item").
type ConversationItem struct {
	Role    string
	Content string
}

// Event is a single signal delivered from the joined room.
type Event struct {
	Kind EventKind
	Item ConversationItem
}

// Controller is the narrow boundary a worker needs against the media-plane
// control service: join, dispatch, publish/subscribe data, and observe
// lifecycle events. The concrete implementation is a
// github.com/gorilla/websocket client (wsclient.go); tests use the
// in-memory double in mock.go.
type Controller interface {
	// Join joins a room as an agent participant, presenting roomToken
	// (a JWT produced out of scope, per spec §6) at the control service.
	Join(ctx context.Context, roomToken string) error

	// Dispatch issues a typed agent-dispatch request.
	Dispatch(ctx context.Context, req DispatchRequest) error

	// PublishData publishes a data packet under topic.
	PublishData(ctx context.Context, topic string, payload []byte) error

	// SubscribeData returns a channel of payloads published under topic.
	SubscribeData(topic string) <-chan []byte

	// Events returns the channel of conversation/user-transcription/close
	// signals for the joined room.
	Events() <-chan Event

	// Close gracefully drains and closes the session. Must never be
	// implemented as an interrupt (spec §4.4): in-flight synthesis must
	// finish.
	Close(ctx context.Context) error
}

// Dispatcher adapts a Controller to routing.Dispatcher's narrower
// (workerName, room, metadata) signature, so the routing package depends
// on neither this package nor its typed-request detail.
type Dispatcher struct {
	Controller Controller
}

func (d Dispatcher) Dispatch(ctx context.Context, workerName, room, metadata string) error {
	return d.Controller.Dispatch(ctx, DispatchRequest{AgentName: workerName, Room: room, Metadata: metadata})
}
