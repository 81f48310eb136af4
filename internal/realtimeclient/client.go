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

// Package realtimeclient drives the audio-native model the realtime
// worker prompts (worker.RealtimeModel). The OpenAI Realtime API speaks a
// client/server event protocol over a single websocket connection rather
// than request/response chat completions; this client dials that
// connection once and turns every Prompt call into a conversation-item
// creation followed by a response trigger, mirroring how a realtime
// session is actually driven.
package realtimeclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client dials the OpenAI Realtime API websocket endpoint and speaks its
// client-event protocol. It implements worker.RealtimeModel.
type Client struct {
	url    string
	apiKey string
	model  string
	voice  string
	dialer websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// New builds a Client. baseURL defaults to the production realtime
// endpoint when empty.
func New(apiKey, baseURL, model, voice string) *Client {
	if baseURL == "" {
		baseURL = "wss://api.openai.com/v1/realtime"
	}
	return &Client{
		url:    baseURL,
		apiKey: apiKey,
		model:  model,
		voice:  voice,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Connect dials the realtime endpoint and sends the initial session.update
// event configuring voice and output modality. It must be called once
// before Prompt.
func (c *Client) Connect(ctx context.Context) error {
	headers := map[string][]string{
		"Authorization": {"Bearer " + c.apiKey},
	}
	conn, _, err := c.dialer.DialContext(ctx, fmt.Sprintf("%s?model=%s", c.url, c.model), headers)
	if err != nil {
		return fmt.Errorf("realtimeclient: connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	return c.send(map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"voice":             c.voice,
			"output_modalities": []string{"audio"},
		},
	})
}

// Prompt implements worker.RealtimeModel: it seeds the conversation with a
// user-role item carrying question, then triggers a response, matching
// the realtime API's item-create-then-respond sequence.
func (c *Client) Prompt(ctx context.Context, question string) error {
	if err := c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": question},
			},
		},
	}); err != nil {
		return err
	}
	return c.send(map[string]any{"type": "response.create"})
}

// Close tears down the websocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (c *Client) send(payload map[string]any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("realtimeclient: not connected")
	}
	return conn.WriteJSON(payload)
}
