// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memory owns the ConversationMemory write path and the offline
// compactor that folds old memories into one summary per project.
package memory

import (
	"fmt"
	"time"

	"github.com/AleutianAI/codescout/services/code_scout/store"
)

// ConversationMemory is a saved summary of a prior agent session.
type ConversationMemory struct {
	ID              string    `json:"id,omitempty"`
	SessionID       string    `json:"sessionId"`
	Summary         string    `json:"summary"`
	Decisions       []string  `json:"decisions,omitempty"`
	FilesModified   []string  `json:"filesModified,omitempty"`
	Project         string    `json:"project"`
	Topics          []string  `json:"topics,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	AgentType       string    `json:"agentType,omitempty"`
	Model           string    `json:"model,omitempty"`
	TaskType        string    `json:"taskType,omitempty"`
	Cost            float64   `json:"cost,omitempty"`
	InputTokens     int       `json:"inputTokens,omitempty"`
	OutputTokens    int       `json:"outputTokens,omitempty"`
	ParentSessionID string    `json:"parentSessionId,omitempty"`
}

// GeneralProject is the fallback project key for untagged memories.
const GeneralProject = "general"

// Validate checks the fields a caller must supply.
func (m *ConversationMemory) Validate() error {
	if m.SessionID == "" {
		return fmt.Errorf("sessionId is required")
	}
	if m.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	return nil
}

// ToMap flattens the record into store properties. Empty optional fields
// are written as their zero values so compaction sums stay simple.
func (m *ConversationMemory) ToMap() map[string]interface{} {
	project := m.Project
	if project == "" {
		project = GeneralProject
	}
	return map[string]interface{}{
		"sessionId":       m.SessionID,
		"summary":         m.Summary,
		"decisions":       m.Decisions,
		"filesModified":   m.FilesModified,
		"project":         project,
		"topics":          m.Topics,
		"timestamp":       m.Timestamp.UTC().Format(time.RFC3339),
		"agentType":       m.AgentType,
		"model":           m.Model,
		"taskType":        m.TaskType,
		"cost":            m.Cost,
		"inputTokens":     m.InputTokens,
		"outputTokens":    m.OutputTokens,
		"parentSessionId": m.ParentSessionID,
	}
}

// FromDoc rebuilds a record from store properties.
func FromDoc(doc store.Doc) ConversationMemory {
	return ConversationMemory{
		ID:              doc.ID,
		SessionID:       store.GetString(doc.Properties, "sessionId"),
		Summary:         store.GetString(doc.Properties, "summary"),
		Decisions:       store.GetStringSlice(doc.Properties, "decisions"),
		FilesModified:   store.GetStringSlice(doc.Properties, "filesModified"),
		Project:         store.GetString(doc.Properties, "project"),
		Topics:          store.GetStringSlice(doc.Properties, "topics"),
		Timestamp:       store.GetTime(doc.Properties, "timestamp"),
		AgentType:       store.GetString(doc.Properties, "agentType"),
		Model:           store.GetString(doc.Properties, "model"),
		TaskType:        store.GetString(doc.Properties, "taskType"),
		Cost:            store.GetFloat64(doc.Properties, "cost"),
		InputTokens:     store.GetInt(doc.Properties, "inputTokens"),
		OutputTokens:    store.GetInt(doc.Properties, "outputTokens"),
		ParentSessionID: store.GetString(doc.Properties, "parentSessionId"),
	}
}
