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

// Package session holds the per-room shared mutable record carried across
// agent handoffs (spec §3, §4.2). Exactly one instance is live per room; it
// is owned by the worker event loop that created it and must not be shared
// across goroutines without the mutex this package provides.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subject is one of the routed-to or currently-speaking subjects tracked
// on Session State.
type Subject string

const (
	SubjectNone      Subject = ""
	SubjectClassifier Subject = "classifier"
	SubjectMath       Subject = "math"
	SubjectHistory    Subject = "history"
	SubjectEnglish    Subject = "english"
)

// State is the per-room shared mutable record described in spec §3.
//
// session_id is immutable once assigned. speaking_agent must only be
// updated by the routing controller (before a handoff tuple is returned),
// never by an agent's own activation hook, so that transition sentences
// are attributed to the outgoing agent.
type State struct {
	mu sync.Mutex

	sessionID       string
	studentIdentity string
	roomName        string

	currentSubject    Subject
	speakingAgent     Subject
	previousSubjects  []Subject

	turnNumber int

	skipNextUserTurns int

	escalated        bool
	escalationReason string

	pendingTransitionSpeaker Subject

	lastUserInputAt time.Time

	pendingQuestion string

	createdAt time.Time
}

// New creates a fresh Session State with a newly minted session id.
func New(studentIdentity, roomName string) *State {
	return &State{
		sessionID:       uuid.NewString(),
		studentIdentity: studentIdentity,
		roomName:        roomName,
		currentSubject:  SubjectClassifier,
		speakingAgent:   SubjectClassifier,
		createdAt:       time.Now(),
	}
}

// Recover reconstructs Session State on the pipeline worker side from
// dispatch metadata recovered after a return-from-english handoff (spec
// §4.5). The recovered id becomes immutable going forward just as a
// freshly minted one would.
func Recover(sessionID, studentIdentity, roomName string, priorSubject Subject) *State {
	return &State{
		sessionID:       sessionID,
		studentIdentity: studentIdentity,
		roomName:        roomName,
		currentSubject:  priorSubject,
		speakingAgent:   priorSubject,
		createdAt:       time.Now(),
	}
}

func (s *State) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *State) StudentIdentity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.studentIdentity
}

func (s *State) RoomName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomName
}

func (s *State) CurrentSubject() Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSubject
}

func (s *State) SpeakingAgent() Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speakingAgent
}

// SetSpeakingAgent is called by the routing controller only, immediately
// when a handoff tuple is constructed, never by an agent's activation hook.
func (s *State) SetSpeakingAgent(subject Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakingAgent = subject
}

func (s *State) PreviousSubjects() []Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.previousSubjects)
}

// RouteTo pushes the current subject onto previous_subjects and assigns
// newSubject as the new current subject (spec §4.2). Routing to the
// already-current subject is a documented no-op at the controller layer;
// RouteTo itself always performs the push-and-assign so callers that have
// already short-circuited the no-op case never call it redundantly.
func (s *State) RouteTo(newSubject Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previousSubjects = append(s.previousSubjects, s.currentSubject)
	s.currentSubject = newSubject
}

// AdvanceTurn increments and returns the new turn number.
func (s *State) AdvanceTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnNumber++
	return s.turnNumber
}

func (s *State) TurnNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnNumber
}

// SkipNextUserTurns returns the current skip counter.
func (s *State) SkipNextUserTurns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipNextUserTurns
}

// SetSkipNextUserTurns sets the skip counter. n must be >= 0.
func (s *State) SetSkipNextUserTurns(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipNextUserTurns = n
}

// ConsumeSkipUserTurn decrements the skip counter by one if positive and
// reports whether this user turn should be suppressed. skip_next_user_turns
// never goes negative.
func (s *State) ConsumeSkipUserTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipNextUserTurns <= 0 {
		return false
	}
	s.skipNextUserTurns--
	return true
}

// Escalate latches escalated to true and records the reason. The latch is
// monotonic: once true, a second call leaves it true without touching the
// reason again, so the first reason wins.
func (s *State) Escalate(reason string) (alreadyEscalated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.escalated {
		return true
	}
	s.escalated = true
	s.escalationReason = reason
	return false
}

// SetPendingTransitionSpeaker arms a one-shot override naming the agent the
// very next committed assistant conversation item must be attributed to.
// The routing controller calls this immediately before advancing
// speaking_agent to the incoming subject, so the transition sentence the
// outgoing agent speaks is attributed to that outgoing agent rather than to
// whatever speaking_agent has already become by the time the item is
// processed (spec §3 invariants, §4.4 design notes, §8 testable properties).
func (s *State) SetPendingTransitionSpeaker(subject Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingTransitionSpeaker = subject
}

// ConsumePendingTransitionSpeaker returns and clears the one-shot outgoing-
// speaker override, if one is armed. The second return value is false when
// no override is pending, in which case the caller must fall back to the
// live speaking_agent.
func (s *State) ConsumePendingTransitionSpeaker() (Subject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingTransitionSpeaker == SubjectNone {
		return SubjectNone, false
	}
	subj := s.pendingTransitionSpeaker
	s.pendingTransitionSpeaker = SubjectNone
	return subj, true
}

func (s *State) Escalated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.escalated
}

func (s *State) EscalationReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.escalationReason
}

// MarkUserInput sets last_user_input_at to now, called when a user
// utterance commits.
func (s *State) MarkUserInput(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUserInputAt = at
}

// ConsumeLatency computes e2e response latency against the last marked
// user input and clears the timestamp, per spec §4.5 step 4(c). The second
// return value is false when no user input timestamp was pending.
func (s *State) ConsumeLatency(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastUserInputAt.IsZero() {
		return 0, false
	}
	d := now.Sub(s.lastUserInputAt)
	s.lastUserInputAt = time.Time{}
	return d, true
}

// SetPendingQuestion attaches a question to be consumed once by the next
// agent's activation hook.
func (s *State) SetPendingQuestion(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingQuestion = q
}

// ConsumePendingQuestion returns and clears the pending question.
func (s *State) ConsumePendingQuestion() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingQuestion == "" {
		return "", false
	}
	q := s.pendingQuestion
	s.pendingQuestion = ""
	return q, true
}

func (s *State) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

// SubjectsCovered returns the deduplicated set of previous and current
// subjects, for the session.end span (spec §4.5 step 6).
func (s *State) SubjectsCovered() []Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[Subject]bool, len(s.previousSubjects)+1)
	out := make([]Subject, 0, len(s.previousSubjects)+1)
	add := func(subj Subject) {
		if subj == SubjectNone || seen[subj] {
			return
		}
		seen[subj] = true
		out = append(out, subj)
	}
	for _, subj := range s.previousSubjects {
		add(subj)
	}
	add(s.currentSubject)
	return out
}
