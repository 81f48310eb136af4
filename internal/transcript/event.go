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

// Package transcript defines the wire shape published on the room's
// "transcript" data-channel topic (spec §6) and the speaker vocabulary
// used to populate it.
package transcript

import "encoding/json"

// Speaker is who produced a transcript item.
type Speaker string

const (
	SpeakerStudent    Speaker = "student"
	SpeakerClassifier Speaker = "classifier"
	SpeakerMath       Speaker = "math"
	SpeakerHistory    Speaker = "history"
	SpeakerEnglish    Speaker = "english"
	SpeakerTeacher    Speaker = "teacher"
)

// Role is the conversation-item role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Topic is the fixed data-channel topic transcript events publish on.
const Topic = "transcript"

// Event is the exact JSON shape published on Topic for every committed
// conversation item. Subject is omitted (null) for items with no
// associated subject, e.g. classifier turns before any routing decision.
type Event struct {
	Speaker   Speaker  `json:"speaker"`
	Role      Role     `json:"role"`
	Content   string   `json:"content"`
	Subject   *string  `json:"subject"`
	Turn      int      `json:"turn"`
	SessionID string   `json:"session_id"`
}

// WithSubject builds an Event carrying a non-null subject.
func WithSubject(speaker Speaker, role Role, content, subject string, turn int, sessionID string) Event {
	return Event{
		Speaker:   speaker,
		Role:      role,
		Content:   content,
		Subject:   &subject,
		Turn:      turn,
		SessionID: sessionID,
	}
}

// WithoutSubject builds an Event carrying a null subject.
func WithoutSubject(speaker Speaker, role Role, content string, turn int, sessionID string) Event {
	return Event{
		Speaker:   speaker,
		Role:      role,
		Content:   content,
		Subject:   nil,
		Turn:      turn,
		SessionID: sessionID,
	}
}

// Marshal encodes e as the UTF-8 JSON payload published on Topic.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}
