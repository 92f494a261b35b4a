// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package code_scout

// SearchRequest is the body of POST /v1/scout/search. Alpha is a pointer
// so an explicit 0 (pure keyword search) is distinct from an omitted field.
type SearchRequest struct {
	Query      string   `json:"query" binding:"required"`
	Project    string   `json:"project"`
	Limit      int      `json:"limit"`
	ChunkTypes []string `json:"chunkTypes"`
	Alpha      *float64 `json:"alpha"`
	Rewrite    bool     `json:"rewrite"`
	Autocut    bool     `json:"autocut"`
}

// AdvancedSearchRequest is the body of POST /v1/scout/search/advanced.
// Threshold is a pointer for the same reason as SearchRequest.Alpha: an
// explicit 0 accepts the first attempt instead of selecting the default.
type AdvancedSearchRequest struct {
	Query       string   `json:"query" binding:"required"`
	Project     string   `json:"project"`
	Limit       int      `json:"limit"`
	ChunkTypes  []string `json:"chunkTypes"`
	Threshold   *float64 `json:"threshold"`
	MaxAttempts int      `json:"maxAttempts"`
}

// ContextRequest is the body of POST /v1/scout/context.
type ContextRequest struct {
	FilePath     string `json:"filePath" binding:"required"`
	Project      string `json:"project"`
	MaxFiles     int    `json:"maxFiles"`
	IncludeTypes *bool  `json:"includeTypes"`
}

// TypesRequest is the body of POST /v1/scout/types.
type TypesRequest struct {
	Query   string `json:"query" binding:"required"`
	Project string `json:"project"`
	Limit   int    `json:"limit"`
}

// SimilarRequest is the body of POST /v1/scout/similar.
type SimilarRequest struct {
	Code    string `json:"code" binding:"required"`
	Project string `json:"project"`
	Limit   int    `json:"limit"`
}

// MemoriesRequest is the body of POST /v1/scout/memories/search.
type MemoriesRequest struct {
	Query   string `json:"query" binding:"required"`
	Project string `json:"project"`
	Limit   int    `json:"limit"`
}

// SaveMemoryRequest is the body of POST /v1/scout/memories.
type SaveMemoryRequest struct {
	SessionID       string   `json:"sessionId" binding:"required"`
	Summary         string   `json:"summary" binding:"required"`
	Decisions       []string `json:"decisions"`
	FilesModified   []string `json:"filesModified"`
	Project         string   `json:"project"`
	Topics          []string `json:"topics"`
	AgentType       string   `json:"agentType"`
	Model           string   `json:"model"`
	TaskType        string   `json:"taskType"`
	Cost            float64  `json:"cost"`
	InputTokens     int      `json:"inputTokens"`
	OutputTokens    int      `json:"outputTokens"`
	ParentSessionID string   `json:"parentSessionId"`
}

// ErrorResponse is the failure body every tool returns: the error plus the
// echoed request input that produced it.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Request interface{} `json:"request,omitempty"`
}
