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

// Package agent implements the Guarded Agent Base (spec §4.3): the uniform
// abstraction wrapping every pipeline-path agent so no unsafe text ever
// reaches text-to-speech.
package agent

import "strings"

// terminators are the sentence-boundary runes the synthesis interception
// watches for (spec §4.3 step 2).
const terminators = ".!?:;"

// SentenceBuffer accumulates streamed text chunks and yields a sentence
// each time the trimmed buffer ends on a terminator. It is not safe for
// concurrent use; one buffer belongs to one synthesis stream.
type SentenceBuffer struct {
	b strings.Builder
}

// Push appends chunk to the buffer. If the trimmed buffer now ends with a
// sentence terminator, the accumulated text, trimmed of surrounding
// whitespace, is returned and the buffer resets; otherwise ("", false)
// signals the partial sentence is still accumulating.
func (s *SentenceBuffer) Push(chunk string) (string, bool) {
	s.b.WriteString(chunk)
	trimmed := strings.TrimSpace(s.b.String())
	if trimmed == "" {
		return "", false
	}
	if !strings.ContainsRune(terminators, rune(trimmed[len(trimmed)-1])) {
		return "", false
	}
	s.b.Reset()
	return trimmed, true
}

// Flush returns and clears any remaining partial buffer, for use when the
// upstream text stream closes (spec §4.3 step 3). Whitespace-only content
// reports false.
func (s *SentenceBuffer) Flush() (string, bool) {
	trimmed := strings.TrimSpace(s.b.String())
	s.b.Reset()
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}
