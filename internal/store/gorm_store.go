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

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GormStore is the relational implementation of Store. postgres is the
// production driver; sqlite backs local dev (spec §6
// "relational store", grounded on BaSui01-agentflow's multi-driver gorm
// stack).
type GormStore struct {
	db *gorm.DB
}

// Open dials driver (postgres or sqlite) at dsn and auto-migrates the five
// persistence-surface tables.
func Open(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}

	if err := db.AutoMigrate(
		&LearningSession{},
		&TranscriptTurn{},
		&RoutingDecisionRow{},
		&EscalationEventRow{},
		&GuardrailEventRow{},
	); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) UpsertSession(ctx context.Context, row LearningSession) error {
	return s.db.WithContext(ctx).
		Where(LearningSession{SessionID: row.SessionID}).
		Assign(row).
		FirstOrCreate(&row).Error
}

func (s *GormStore) RecordTurn(ctx context.Context, row TranscriptTurn) error {
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) RecordRoutingDecision(ctx context.Context, row RoutingDecisionRow) error {
	return s.db.WithContext(ctx).Create(&row).Error
}

// RecordEscalation mints a teacher-side join token and persists the row.
func (s *GormStore) RecordEscalation(ctx context.Context, row EscalationEventRow) (string, error) {
	if row.JoinToken == "" {
		row.JoinToken = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.JoinToken, nil
}

func (s *GormStore) RecordGuardrailEvent(ctx context.Context, row GuardrailEventRow) error {
	return s.db.WithContext(ctx).Create(&row).Error
}
