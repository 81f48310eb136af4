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

// Package routing implements cross-agent handoffs: the dispatch metadata
// codec carrying session context across the worker-to-worker boundary, and
// the Routing Controller that performs handoffs and escalation.
package routing

import "strings"

// Recognized dispatch metadata keys (spec §6). Unknown keys are preserved
// in Metadata.Extra and round-trip unchanged; missing keys read as "".
const (
	KeySession            = "session"
	KeyQuestion            = "question"
	KeyReturnFromEnglish  = "return_from_english"
	KeySubject             = "subject"
)

// Metadata is the bit-exact `k1:v1|k2:v2|...` dispatch payload exchanged
// between the pipeline and realtime workers. Keys and values must never
// contain ':' or '|'.
type Metadata struct {
	Session            string
	Question            string
	ReturnFromEnglish  string
	Subject             string
	Extra               map[string]string
}

// Format renders m in the fixed `k:v|k:v|...` wire shape. Recognized keys
// are emitted in a stable order; unrecognized keys from Extra follow,
// sorted for determinism.
func (m Metadata) Format() string {
	var pairs []string
	add := func(key, value string) {
		if value != "" {
			pairs = append(pairs, key+":"+value)
		}
	}
	add(KeySession, m.Session)
	add(KeyReturnFromEnglish, m.ReturnFromEnglish)
	add(KeyQuestion, m.Question)
	add(KeySubject, m.Subject)

	for _, key := range sortedKeys(m.Extra) {
		pairs = append(pairs, key+":"+m.Extra[key])
	}
	return strings.Join(pairs, "|")
}

// ParseMetadata parses the `k:v|k:v|...` wire format. Malformed segments
// (no ':') are dropped rather than erroring, matching the tolerant parser
// called for by spec §6.
func ParseMetadata(raw string) Metadata {
	m := Metadata{Extra: map[string]string{}}
	if raw == "" {
		return m
	}
	for _, segment := range strings.Split(raw, "|") {
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		switch key {
		case KeySession:
			m.Session = value
		case KeyQuestion:
			m.Question = value
		case KeyReturnFromEnglish:
			m.ReturnFromEnglish = value
		case KeySubject:
			m.Subject = value
		default:
			m.Extra[key] = value
		}
	}
	return m
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
