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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wireFrame is the envelope exchanged over the control channel's single
// websocket connection. kind mirrors the typed operations of Controller;
// payload is kind-specific JSON.
type wireFrame struct {
	Kind    string          `json:"kind"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	frameDispatch          = "dispatch"
	frameData              = "data"
	frameConversationItem  = "conversation_item_added"
	frameUserTranscribed   = "user_input_transcribed"
	frameClose             = "close"
)

// WSClient is a github.com/gorilla/websocket-backed Controller reaching the
// control service's WS control channel (grounded on the same library's use
// for a bidirectional control-channel client elsewhere in the stack).
type WSClient struct {
	url    string
	dialer websocket.Dialer
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	events chan Event
	subs   map[string]chan []byte
	done   chan struct{}
}

// NewWSClient builds a client that will dial controlURL on Join.
func NewWSClient(controlURL string, logger *slog.Logger) *WSClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSClient{
		url:    controlURL,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger: logger,
		events: make(chan Event, 32),
		subs:   make(map[string]chan []byte),
		done:   make(chan struct{}),
	}
}

// Join dials the control channel, presenting roomToken as a bearer header.
func (c *WSClient) Join(ctx context.Context, roomToken string) error {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+roomToken)

	conn, _, err := c.dialer.DialContext(ctx, c.url, headers)
	if err != nil {
		return fmt.Errorf("mediaplane: join dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.listen()
	return nil
}

func (c *WSClient) listen() {
	defer close(c.done)
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			c.logger.Warn("mediaplane control channel read error", "error", err)
			return
		}

		var frame wireFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.logger.Warn("mediaplane control channel malformed frame", "error", err)
			continue
		}
		c.dispatchFrame(frame)
	}
}

func (c *WSClient) dispatchFrame(frame wireFrame) {
	switch frame.Kind {
	case frameConversationItem:
		var item ConversationItem
		_ = json.Unmarshal(frame.Payload, &item)
		c.events <- Event{Kind: EventConversationItemAdded, Item: item}
	case frameUserTranscribed:
		c.events <- Event{Kind: EventUserInputTranscribed}
	case frameClose:
		c.events <- Event{Kind: EventClose}
	case frameData:
		c.mu.Lock()
		sub, ok := c.subs[frame.Topic]
		c.mu.Unlock()
		if ok {
			sub <- frame.Payload
		}
	}
}

func (c *WSClient) writeFrame(frame wireFrame) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("mediaplane: not joined")
	}
	return conn.WriteJSON(frame)
}

// Dispatch sends a typed agent-dispatch request over the control channel.
func (c *WSClient) Dispatch(ctx context.Context, req DispatchRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.writeFrame(wireFrame{Kind: frameDispatch, Payload: payload})
}

// PublishData publishes payload under topic.
func (c *WSClient) PublishData(ctx context.Context, topic string, payload []byte) error {
	return c.writeFrame(wireFrame{Kind: frameData, Topic: topic, Payload: payload})
}

// SubscribeData registers and returns the channel of payloads for topic.
func (c *WSClient) SubscribeData(topic string) <-chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.subs[topic]
	if !ok {
		ch = make(chan []byte, 32)
		c.subs[topic] = ch
	}
	return ch
}

// Events returns the channel of lifecycle/conversation signals.
func (c *WSClient) Events() <-chan Event {
	return c.events
}

// Close sends a graceful close frame and tears down the connection. It
// never interrupts in-flight synthesis; callers that need the drain delay
// honored are responsible for sequencing it before calling Close (spec
// §4.4 route_to_english).
func (c *WSClient) Close(ctx context.Context) error {
	_ = c.writeFrame(wireFrame{Kind: frameClose})

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}
