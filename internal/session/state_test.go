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

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRouteTo_PushesPrevious(t *testing.T) {
	s := New("student-1", "room-1")
	assert.Equal(t, SubjectClassifier, s.CurrentSubject())

	s.RouteTo(SubjectMath)
	assert.Equal(t, SubjectMath, s.CurrentSubject())
	assert.Equal(t, []Subject{SubjectClassifier}, s.PreviousSubjects())

	s.RouteTo(SubjectHistory)
	assert.Equal(t, SubjectHistory, s.CurrentSubject())
	assert.Equal(t, []Subject{SubjectClassifier, SubjectMath}, s.PreviousSubjects())
}

func TestPendingTransitionSpeaker_ConsumedOnce(t *testing.T) {
	s := New("student-1", "room-1")

	_, ok := s.ConsumePendingTransitionSpeaker()
	assert.False(t, ok, "no override is armed by default")

	s.SetPendingTransitionSpeaker(SubjectClassifier)
	speaker, ok := s.ConsumePendingTransitionSpeaker()
	assert.True(t, ok)
	assert.Equal(t, SubjectClassifier, speaker)

	_, ok = s.ConsumePendingTransitionSpeaker()
	assert.False(t, ok, "the override clears once consumed")
}

func TestAdvanceTurn_Monotonic(t *testing.T) {
	s := New("student-1", "room-1")
	assert.Equal(t, 1, s.AdvanceTurn())
	assert.Equal(t, 2, s.AdvanceTurn())
	assert.Equal(t, 2, s.TurnNumber())
}

func TestSkipNextUserTurns_NeverNegative(t *testing.T) {
	s := New("student-1", "room-1")
	assert.False(t, s.ConsumeSkipUserTurn())
	assert.Equal(t, 0, s.SkipNextUserTurns())

	s.SetSkipNextUserTurns(1)
	assert.True(t, s.ConsumeSkipUserTurn())
	assert.Equal(t, 0, s.SkipNextUserTurns())
	assert.False(t, s.ConsumeSkipUserTurn())

	s.SetSkipNextUserTurns(-5)
	assert.Equal(t, 0, s.SkipNextUserTurns())
}

func TestEscalate_Monotonic(t *testing.T) {
	s := New("student-1", "room-1")
	assert.False(t, s.Escalated())

	already := s.Escalate("distress")
	assert.False(t, already)
	assert.True(t, s.Escalated())
	assert.Equal(t, "distress", s.EscalationReason())

	already = s.Escalate("second reason")
	assert.True(t, already)
	assert.Equal(t, "distress", s.EscalationReason(), "first reason wins")
}

func TestConsumeLatency(t *testing.T) {
	s := New("student-1", "room-1")
	_, ok := s.ConsumeLatency(time.Now())
	assert.False(t, ok)

	start := time.Now()
	s.MarkUserInput(start)
	d, ok := s.ConsumeLatency(start.Add(250 * time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, d)

	_, ok = s.ConsumeLatency(time.Now())
	assert.False(t, ok, "timestamp is consumed once")
}

func TestPendingQuestion_ConsumedOnce(t *testing.T) {
	s := New("student-1", "room-1")
	_, ok := s.ConsumePendingQuestion()
	assert.False(t, ok)

	s.SetPendingQuestion("seven times eight")
	q, ok := s.ConsumePendingQuestion()
	assert.True(t, ok)
	assert.Equal(t, "seven times eight", q)

	_, ok = s.ConsumePendingQuestion()
	assert.False(t, ok)
}

func TestSubjectsCovered_Deduplicated(t *testing.T) {
	s := New("student-1", "room-1")
	s.RouteTo(SubjectMath)
	s.RouteTo(SubjectHistory)
	s.RouteTo(SubjectMath)

	covered := s.SubjectsCovered()
	assert.ElementsMatch(t, []Subject{SubjectClassifier, SubjectMath, SubjectHistory}, covered)
}

func TestRecover_PreservesSessionID(t *testing.T) {
	s := Recover("fixed-id", "student-1", "room-1", SubjectEnglish)
	assert.Equal(t, "fixed-id", s.SessionID())
	assert.Equal(t, SubjectEnglish, s.CurrentSubject())
	assert.Equal(t, SubjectEnglish, s.SpeakingAgent())
}
