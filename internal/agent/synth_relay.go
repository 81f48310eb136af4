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

package agent

import (
	"context"
	"encoding/json"
)

// DataPublisher is the narrow media-plane surface RelaySynthesizer needs:
// publishing a data packet under a topic. *mediaplane.WSClient and
// mediaplane.Mock both satisfy it structurally.
type DataPublisher interface {
	PublishData(ctx context.Context, topic string, payload []byte) error
}

// synthesisTopic is the data-channel topic a RelaySynthesizer publishes
// safe sentences on, for the out-of-scope text-to-speech engine sitting on
// the media-plane side of the room to pick up (spec §1, §6).
const synthesisTopic = "tts.request"

type synthesisRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Engine string `json:"engine,omitempty"`
}

// RelaySynthesizer implements Synthesizer by handing safe text off to the
// media plane's own text-to-speech engine rather than performing
// synthesis itself (a Non-goal: spec's "implementing ... synthesis").
// Because the resulting audio is produced and delivered entirely on the
// out-of-scope side of that boundary, this only needs to publish the
// request and yield a single placeholder frame so the Guarded Agent
// Base's drain loop has something to exhaust per sentence.
type RelaySynthesizer struct {
	publisher DataPublisher
}

// NewRelaySynthesizer builds a RelaySynthesizer publishing over publisher.
func NewRelaySynthesizer(publisher DataPublisher) *RelaySynthesizer {
	return &RelaySynthesizer{publisher: publisher}
}

// Synthesize implements Synthesizer.
func (s *RelaySynthesizer) Synthesize(ctx context.Context, text string, settings SynthesisSettings) (<-chan AudioFrame, error) {
	payload, err := json.Marshal(synthesisRequest{Text: text, Voice: settings.Voice, Engine: settings.Engine})
	if err != nil {
		return nil, err
	}
	if err := s.publisher.PublishData(ctx, synthesisTopic, payload); err != nil {
		return nil, err
	}

	out := make(chan AudioFrame, 1)
	out <- AudioFrame(text)
	close(out)
	return out, nil
}
