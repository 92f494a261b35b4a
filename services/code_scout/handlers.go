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

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/codescout/services/code_scout/bundle"
	"github.com/AleutianAI/codescout/services/code_scout/memory"
	"github.com/AleutianAI/codescout/services/code_scout/search"
	"github.com/AleutianAI/codescout/services/code_scout/store"
)

// Handlers contains the HTTP handlers for the scout tools.
//
// Thread Safety: Handlers is safe for concurrent use.
type Handlers struct {
	search         *search.Service
	bundler        *bundle.Bundler
	memories       *memory.Store
	defaultProject string
}

// NewHandlers creates the tool handlers.
//
// Inputs:
//
//	searchSvc - Search façade. Must not be nil.
//	bundler - Context bundler. Must not be nil.
//	memories - Memory write path. Must not be nil.
//	defaultProject - Project used when a request omits one; may be empty
func NewHandlers(searchSvc *search.Service, bundler *bundle.Bundler, memories *memory.Store, defaultProject string) *Handlers {
	return &Handlers{
		search:         searchSvc,
		bundler:        bundler,
		memories:       memories,
		defaultProject: defaultProject,
	}
}

// project resolves the effective project for a request.
func (h *Handlers) project(requested string) string {
	if requested != "" {
		return requested
	}
	return h.defaultProject
}

// failJSON writes the tool error shape: the error string plus the request
// that produced it. Status code follows the error taxonomy.
func failJSON(c *gin.Context, req interface{}, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrSchema):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Request: req})
}

// HandleSearch serves POST /v1/scout/search.
//
// Response:
//
//	200 OK: search.BasicResult
//	400 Bad Request: Missing query
//	503 Service Unavailable: Store unreachable
func (h *Handlers) HandleSearch(c *gin.Context) {
	start := time.Now()
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		return
	}

	result, err := h.search.BasicSearch(c.Request.Context(), req.Query, search.BasicOptions{
		Project:    h.project(req.Project),
		Limit:      req.Limit,
		ChunkTypes: req.ChunkTypes,
		Alpha:      req.Alpha,
		Rewrite:    req.Rewrite,
		Autocut:    req.Autocut,
	})
	observeTool("search", start, err)
	if err != nil {
		slog.Error("Search failed", "query", req.Query, "error", err)
		failJSON(c, req, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleAdvancedSearch serves POST /v1/scout/search/advanced.
func (h *Handlers) HandleAdvancedSearch(c *gin.Context) {
	start := time.Now()
	var req AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		return
	}

	result, err := h.search.AdvancedSearch(c.Request.Context(), req.Query, search.AdvancedOptions{
		Project:     h.project(req.Project),
		Limit:       req.Limit,
		ChunkTypes:  req.ChunkTypes,
		Threshold:   req.Threshold,
		MaxAttempts: req.MaxAttempts,
	})
	observeTool("search_advanced", start, err)
	if err != nil {
		slog.Error("Advanced search failed", "query", req.Query, "error", err)
		failJSON(c, req, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleContext serves POST /v1/scout/context.
//
// Response:
//
//	200 OK: bundle.Bundle
//	404 Not Found: No indexed chunks for the path
func (h *Handlers) HandleContext(c *gin.Context) {
	start := time.Now()
	var req ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "filePath is required"})
		return
	}

	includeTypes := true
	if req.IncludeTypes != nil {
		includeTypes = *req.IncludeTypes
	}
	result, err := h.bundler.Build(c.Request.Context(), req.FilePath, bundle.Options{
		Project:      h.project(req.Project),
		MaxFiles:     req.MaxFiles,
		IncludeTypes: includeTypes,
	})
	observeTool("context", start, err)
	if err != nil {
		slog.Error("Context bundling failed", "file_path", req.FilePath, "error", err)
		failJSON(c, req, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleTypes serves POST /v1/scout/types.
func (h *Handlers) HandleTypes(c *gin.Context) {
	start := time.Now()
	var req TypesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		return
	}

	result, err := h.search.TypeSearch(c.Request.Context(), req.Query, h.project(req.Project), req.Limit)
	observeTool("types", start, err)
	if err != nil {
		slog.Error("Type search failed", "query", req.Query, "error", err)
		failJSON(c, req, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleSimilar serves POST /v1/scout/similar.
func (h *Handlers) HandleSimilar(c *gin.Context) {
	start := time.Now()
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "code is required"})
		return
	}

	result, err := h.search.SimilaritySearch(c.Request.Context(), req.Code, h.project(req.Project), req.Limit)
	observeTool("similar", start, err)
	if err != nil {
		slog.Error("Similarity search failed", "error", err)
		failJSON(c, req, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleMemoriesSearch serves POST /v1/scout/memories/search.
func (h *Handlers) HandleMemoriesSearch(c *gin.Context) {
	start := time.Now()
	var req MemoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		return
	}

	// Memories may be tagged "general"; an omitted project searches all.
	result, err := h.search.MemorySearch(c.Request.Context(), req.Query, req.Project, req.Limit)
	observeTool("memories", start, err)
	if err != nil {
		slog.Error("Memory search failed", "query", req.Query, "error", err)
		failJSON(c, req, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleSaveMemory serves POST /v1/scout/memories.
func (h *Handlers) HandleSaveMemory(c *gin.Context) {
	start := time.Now()
	var req SaveMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "sessionId and summary are required"})
		return
	}

	id, err := h.memories.Save(c.Request.Context(), memory.ConversationMemory{
		SessionID:       req.SessionID,
		Summary:         req.Summary,
		Decisions:       req.Decisions,
		FilesModified:   req.FilesModified,
		Project:         req.Project,
		Topics:          req.Topics,
		AgentType:       req.AgentType,
		Model:           req.Model,
		TaskType:        req.TaskType,
		Cost:            req.Cost,
		InputTokens:     req.InputTokens,
		OutputTokens:    req.OutputTokens,
		ParentSessionID: req.ParentSessionID,
	})
	observeTool("memories_save", start, err)
	if err != nil {
		slog.Error("Memory save failed", "session_id", req.SessionID, "error", err)
		failJSON(c, req, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "sessionId": req.SessionID})
}

// HandleStatus serves GET /v1/scout/status. Status never fails; degraded
// collections report -1 counts.
func (h *Handlers) HandleStatus(c *gin.Context) {
	start := time.Now()
	result := h.search.Status(c.Request.Context())
	observeTool("status", start, nil)
	c.JSON(http.StatusOK, result)
}

// HandleHealth serves GET /v1/scout/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
