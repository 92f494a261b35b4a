// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/codescout/services/code_scout/store"
)

var tracer = otel.Tracer("codescout.memory")

// fetchLimit bounds one compaction sweep.
const fetchLimit = 1000

var memoryFields = []string{
	"sessionId", "summary", "decisions", "filesModified", "project",
	"topics", "timestamp", "agentType", "model", "taskType",
	"cost", "inputTokens", "outputTokens", "parentSessionId",
}

// Store is the ConversationMemory write path. Reads for search go through
// the search façade; this type exists for saves and for the compactor.
type Store struct {
	store store.Store
}

// NewStore builds a memory store over the shared adapter.
func NewStore(s store.Store) *Store {
	return &Store{store: s}
}

// Save persists a new memory with a now-UTC timestamp when none is set.
//
// Inputs:
//
//	ctx - Context for cancellation
//	mem - The record; SessionID and Summary are required
//
// Outputs:
//
//	string - Store-assigned id
//	error - Validation or store failure
func (s *Store) Save(ctx context.Context, mem ConversationMemory) (string, error) {
	ctx, span := tracer.Start(ctx, "memory.Save")
	defer span.End()

	if err := mem.Validate(); err != nil {
		return "", err
	}
	if mem.Timestamp.IsZero() {
		mem.Timestamp = time.Now().UTC()
	}

	id, err := s.store.Insert(ctx, store.ClassConversationMemory, mem.ToMap())
	if err != nil {
		return "", fmt.Errorf("saving memory %s: %w", mem.SessionID, err)
	}
	slog.Info("Saved conversation memory", "session_id", mem.SessionID, "project", mem.Project, "id", id)
	return id, nil
}

// FetchOlderThan returns up to 1000 memories with a timestamp strictly
// before the cutoff.
func (s *Store) FetchOlderThan(ctx context.Context, cutoff time.Time) ([]ConversationMemory, error) {
	ctx, span := tracer.Start(ctx, "memory.FetchOlderThan")
	defer span.End()

	docs, err := s.store.FilterFetch(ctx, store.ClassConversationMemory,
		store.LtDate("timestamp", cutoff), fetchLimit, memoryFields)
	if err != nil {
		return nil, fmt.Errorf("fetching memories before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	memories := make([]ConversationMemory, 0, len(docs))
	for _, doc := range docs {
		memories = append(memories, FromDoc(doc))
	}
	return memories, nil
}

// Delete removes one memory by store id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.store.DeleteByID(ctx, store.ClassConversationMemory, id)
}
