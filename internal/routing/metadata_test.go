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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_RoundTrip(t *testing.T) {
	m := Metadata{
		Session:  "sess-123",
		Question: "seven times eight",
	}
	encoded := m.Format()
	assert.Equal(t, "session:sess-123|question:seven times eight", encoded)

	decoded := ParseMetadata(encoded)
	assert.Equal(t, m.Session, decoded.Session)
	assert.Equal(t, m.Question, decoded.Question)
}

func TestMetadata_ReturnFromEnglishRoundTrip(t *testing.T) {
	raw := "return_from_english:sess-123|question:could not explain adjectives|subject:english"
	decoded := ParseMetadata(raw)
	assert.Equal(t, "sess-123", decoded.ReturnFromEnglish)
	assert.Equal(t, "could not explain adjectives", decoded.Question)
	assert.Equal(t, "english", decoded.Subject)

	m := Metadata{ReturnFromEnglish: decoded.ReturnFromEnglish, Question: decoded.Question, Subject: decoded.Subject}
	assert.Equal(t, raw, m.Format())
}

func TestMetadata_UnknownKeysPreservedAndIgnored(t *testing.T) {
	raw := "session:sess-1|future_flag:beta|question:hi"
	decoded := ParseMetadata(raw)
	assert.Equal(t, "sess-1", decoded.Session)
	assert.Equal(t, "hi", decoded.Question)
	assert.Equal(t, "beta", decoded.Extra["future_flag"])
}

func TestMetadata_MalformedSegmentDropped(t *testing.T) {
	decoded := ParseMetadata("session:sess-1|garbage|question:hi")
	assert.Equal(t, "sess-1", decoded.Session)
	assert.Equal(t, "hi", decoded.Question)
}

func TestMetadata_Empty(t *testing.T) {
	decoded := ParseMetadata("")
	assert.Equal(t, Metadata{Extra: map[string]string{}}, decoded)
	assert.Equal(t, "", Metadata{}.Format())
}

func TestMetadata_MissingKeysReadAsEmpty(t *testing.T) {
	decoded := ParseMetadata("session:sess-1")
	assert.Equal(t, "", decoded.Question)
	assert.Equal(t, "", decoded.ReturnFromEnglish)
	assert.Equal(t, "", decoded.Subject)
}
