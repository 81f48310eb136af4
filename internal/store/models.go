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

// Package store implements the persistence surface (spec §6): a
// relational store with one table per record kind, inserted
// fire-and-forget from the core.
package store

import "time"

// LearningSession is one row per room join.
type LearningSession struct {
	ID              uint `gorm:"primaryKey"`
	SessionID       string `gorm:"uniqueIndex;size:64"`
	StudentIdentity string `gorm:"size:128"`
	RoomName        string `gorm:"size:128"`
	SessionType     string `gorm:"size:32"`
	Recovered       bool
	CreatedAt       time.Time
}

// TranscriptTurn is one row per committed conversation item.
type TranscriptTurn struct {
	ID        uint `gorm:"primaryKey"`
	SessionID string `gorm:"index;size:64"`
	Speaker   string `gorm:"size:32"`
	Role      string `gorm:"size:16"`
	Content   string
	Subject   string `gorm:"size:32"`
	Turn      int
	CreatedAt time.Time
}

// RoutingDecisionRow is one row per routing.decision span.
type RoutingDecisionRow struct {
	ID              uint `gorm:"primaryKey"`
	SessionID       string `gorm:"index;size:64"`
	FromAgent       string `gorm:"size:32"`
	ToAgent         string `gorm:"size:32"`
	PreviousSubject string `gorm:"size:32"`
	QuestionSummary string `gorm:"size:500"`
	DecisionMs      int64
	CreatedAt       time.Time
}

// EscalationEventRow is one row per escalation, carrying the teacher-side
// join token minted by the escalation store write.
type EscalationEventRow struct {
	ID         uint `gorm:"primaryKey"`
	SessionID  string `gorm:"index;size:64"`
	FromAgent  string `gorm:"size:32"`
	Reason     string `gorm:"size:500"`
	RoomName   string `gorm:"size:128"`
	TurnNumber int
	JoinToken  string `gorm:"size:128"`
	CreatedAt  time.Time
}

// GuardrailEventRow is one row per safety event; CategoriesFlagged is
// stored as a comma-joined set.
type GuardrailEventRow struct {
	ID                uint `gorm:"primaryKey"`
	SessionID         string `gorm:"index;size:64"`
	AgentName         string `gorm:"size:32"`
	OriginalText      string
	RewrittenText     string
	CategoriesFlagged string `gorm:"size:256"`
	PeakScore         float64
	CreatedAt         time.Time
}
