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

package transcript

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SubjectPresent(t *testing.T) {
	e := WithSubject(SpeakerMath, RoleAssistant, "56", "math", 3, "sess-1")
	raw, err := Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "math", decoded["speaker"])
	assert.Equal(t, "assistant", decoded["role"])
	assert.Equal(t, "56", decoded["content"])
	assert.Equal(t, "math", decoded["subject"])
	assert.Equal(t, float64(3), decoded["turn"])
	assert.Equal(t, "sess-1", decoded["session_id"])
}

func TestMarshal_SubjectNullWhenAbsent(t *testing.T) {
	e := WithoutSubject(SpeakerClassifier, RoleAssistant, "Hi there!", 0, "sess-2")
	raw, err := Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, string(raw), `"subject":null`)
	assert.Nil(t, decoded["subject"])
}

func TestMarshal_FieldOrderAndKeysMatchWireContract(t *testing.T) {
	e := WithSubject(SpeakerStudent, RoleUser, "seven times eight", "math", 2, "sess-3")
	raw, err := Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"speaker", "role", "content", "subject", "turn", "session_id"} {
		_, ok := decoded[key]
		assert.Truef(t, ok, "expected key %q in transcript event", key)
	}
}
