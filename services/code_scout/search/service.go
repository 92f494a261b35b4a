// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search is the façade over the retrieval pipeline: basic hybrid
// search, reflexion-driven advanced search, pure-vector similarity, type
// lookup, memory search, and index status.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/codescout/services/code_scout/autocut"
	"github.com/AleutianAI/codescout/services/code_scout/reflexion"
	"github.com/AleutianAI/codescout/services/code_scout/rewrite"
	"github.com/AleutianAI/codescout/services/code_scout/store"
)

var tracer = otel.Tracer("codescout.search")

// chunkFields are the CodeChunk properties every search response needs.
var chunkFields = []string{
	"name", "content", "filePath", "chunkType", "lineStart",
	"signature", "jsDoc",
}

// typeFields are the TypeDefinition properties returned by type search.
var typeFields = []string{
	"name", "content", "filePath", "typeKind", "properties",
	"extendsTypes", "fromDatabase",
}

// memoryFields are the ConversationMemory properties returned by memory
// search.
var memoryFields = []string{
	"sessionId", "summary", "decisions", "filesModified", "project",
	"topics", "timestamp",
}

const (
	// DefaultAlpha is the keyword/vector blend for basic search.
	DefaultAlpha = 0.5

	// SimilarityCertainty is the nearText floor for similarity search.
	SimilarityCertainty = 0.7

	// TypeSearchAlpha favours the vector side for type lookup.
	TypeSearchAlpha = 0.7

	// MemorySearchAlpha favours the vector side for memory lookup.
	MemorySearchAlpha = 0.7

	// jsDocLimit truncates doc comments in result rows.
	jsDocLimit = 200

	// autocutOverfetchFloor is the minimum over-fetch when autocut is on.
	autocutOverfetchFloor = 30
)

// Service executes the search tools against a store.
type Service struct {
	store    store.Store
	rewriter *rewrite.Rewriter
}

// NewService builds a façade. The rewriter may be built over a nil LLM
// client; only the deterministic lexicon pass is required.
func NewService(s store.Store, rewriter *rewrite.Rewriter) *Service {
	if rewriter == nil {
		rewriter = rewrite.NewRewriter(nil)
	}
	return &Service{store: s, rewriter: rewriter}
}

// =========================================================================
// === Result shapes ===
// =========================================================================

// ResultRow is one ranked code search hit.
type ResultRow struct {
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	File      string  `json:"file"`
	Signature string  `json:"signature,omitempty"`
	JSDoc     string  `json:"jsDoc,omitempty"`
	Score     float64 `json:"score"`
	Content   string  `json:"content"`
}

// BasicOptions configure BasicSearch. Alpha is a pointer so an explicit
// zero (pure keyword search) survives; nil means DefaultAlpha.
type BasicOptions struct {
	Project    string
	Limit      int
	ChunkTypes []string
	Alpha      *float64
	Rewrite    bool
	Autocut    bool
}

// BasicResult is the BasicSearch response body.
type BasicResult struct {
	Query           string            `json:"query"`
	OriginalQuery   string            `json:"originalQuery,omitempty"`
	Project         string            `json:"project"`
	ResultCount     int               `json:"resultCount"`
	Results         []ResultRow       `json:"results"`
	RewriteMetadata *rewrite.Result   `json:"rewriteMetadata,omitempty"`
	AutocutMetadata *autocut.Metadata `json:"autocutMetadata,omitempty"`
}

// AdvancedOptions configure AdvancedSearch. Threshold is a pointer so an
// explicit zero (accept the first attempt) survives; nil means 0.5.
type AdvancedOptions struct {
	Project     string
	Limit       int
	ChunkTypes  []string
	Threshold   *float64
	MaxAttempts int
}

// AdvancedMetadata is the reflexion accounting attached to an advanced
// search response.
type AdvancedMetadata struct {
	TotalAttempts int                 `json:"totalAttempts"`
	QualityMet    bool                `json:"qualityMet"`
	BestScore     float64             `json:"bestScore"`
	Threshold     float64             `json:"threshold"`
	BestAttempt   *reflexion.Attempt  `json:"bestAttempt,omitempty"`
	Attempts      []reflexion.Attempt `json:"attempts"`
	Autocut       autocut.Metadata    `json:"autocut"`
	ElapsedMs     int64               `json:"elapsedMs"`
}

// AdvancedResult is the AdvancedSearch response body.
type AdvancedResult struct {
	Query       string           `json:"query"`
	Project     string           `json:"project"`
	ResultCount int              `json:"resultCount"`
	Results     []ResultRow      `json:"results"`
	Metadata    AdvancedMetadata `json:"metadata"`
}

// SimilarRow is one similarity hit; Similarity is the nearText certainty.
type SimilarRow struct {
	ResultRow
	Similarity float64 `json:"similarity"`
}

// SimilarResult is the SimilaritySearch response body.
type SimilarResult struct {
	Project     string       `json:"project"`
	ResultCount int          `json:"resultCount"`
	Results     []SimilarRow `json:"results"`
}

// TypeRow is one type search hit.
type TypeRow struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	File       string   `json:"file"`
	Properties []string `json:"properties"`
	Extends    []string `json:"extends,omitempty"`
	FromDB     bool     `json:"fromDB"`
	Content    string   `json:"content"`
}

// TypesResult is the TypeSearch response body.
type TypesResult struct {
	Query       string    `json:"query"`
	Project     string    `json:"project"`
	ResultCount int       `json:"resultCount"`
	Results     []TypeRow `json:"results"`
}

// MemoryRow is one memory search hit.
type MemoryRow struct {
	SessionID string   `json:"sessionId"`
	Summary   string   `json:"summary"`
	Decisions []string `json:"decisions,omitempty"`
	Files     []string `json:"files,omitempty"`
	Project   string   `json:"project"`
	Topics    []string `json:"topics,omitempty"`
	Date      string   `json:"date"`
}

// MemoriesResult is the MemorySearch response body.
type MemoriesResult struct {
	Query       string      `json:"query"`
	Project     string      `json:"project,omitempty"`
	ResultCount int         `json:"resultCount"`
	Results     []MemoryRow `json:"results"`
}

// StatusResult reports index health. Collections that cannot be counted
// report -1 rather than failing the whole call.
type StatusResult struct {
	Status      string         `json:"status"`
	TotalChunks map[string]int `json:"totalChunks"`
	ByProject   map[string]int `json:"byProject"`
}

// =========================================================================
// === Basic search ===
// =========================================================================

// BasicSearch runs a single hybrid query with optional rewrite and autocut.
func (s *Service) BasicSearch(ctx context.Context, query string, opts BasicOptions) (*BasicResult, error) {
	ctx, span := tracer.Start(ctx, "search.Basic",
		trace.WithAttributes(attribute.String("project", opts.Project)))
	defer span.End()

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	alpha := DefaultAlpha
	if opts.Alpha != nil {
		alpha = *opts.Alpha
	}

	result := &BasicResult{Query: query, Project: opts.Project}
	storeQuery := query
	if opts.Rewrite {
		rw := s.rewriter.Rewrite(ctx, query, "")
		if rw.Primary != query {
			result.OriginalQuery = query
			result.Query = rw.Primary
			storeQuery = rw.Primary
		}
		result.RewriteMetadata = &rw
	}

	fetch := limit
	if opts.Autocut {
		fetch = limit * 3
		if fetch < autocutOverfetchFloor {
			fetch = autocutOverfetchFloor
		}
	}

	filter := chunkFilter(opts.Project, opts.ChunkTypes)
	hits, err := s.store.HybridSearch(ctx, store.ClassCodeChunk, storeQuery, float32(alpha), filter, fetch, chunkFields)
	if err != nil {
		return nil, err
	}

	if opts.Autocut {
		scores := make([]float64, len(hits))
		for i, h := range hits {
			scores[i] = h.Score
		}
		keep, meta := autocut.Apply(scores, limit, autocut.DefaultMinResults)
		if keep < len(hits) {
			hits = hits[:keep]
		}
		result.AutocutMetadata = &meta
	}

	result.Results = resultRows(hits)
	result.ResultCount = len(result.Results)
	span.SetAttributes(attribute.Int("results", result.ResultCount))
	return result, nil
}

// =========================================================================
// === Advanced search ===
// =========================================================================

// AdvancedSearch runs the reflexion ladder, then autocuts the merged list.
//
// Description:
//
//	The store-call closure captures the project filter and over-fetches
//	at twice the requested limit so that the merge has material to rank.
//	A run where every attempt fails is a soft failure: an empty result
//	with qualityMet=false, not an error.
func (s *Service) AdvancedSearch(ctx context.Context, query string, opts AdvancedOptions) (*AdvancedResult, error) {
	ctx, span := tracer.Start(ctx, "search.Advanced",
		trace.WithAttributes(attribute.String("project", opts.Project)))
	defer span.End()

	start := time.Now()
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	threshold := 0.5
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	filter := chunkFilter(opts.Project, opts.ChunkTypes)
	fetch := limit * 2
	searchFn := func(ctx context.Context, q string, alpha float64) ([]store.Hit, error) {
		return s.store.HybridSearch(ctx, store.ClassCodeChunk, q, float32(alpha), filter, fetch, chunkFields)
	}

	outcome, err := reflexion.Run(ctx, query, searchFn, reflexion.Options{
		Threshold:   &threshold,
		MaxAttempts: maxAttempts,
	})
	if err != nil {
		return nil, err
	}

	hits := outcome.Results
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	keep, cutMeta := autocut.Apply(scores, limit, autocut.DefaultMinResults)
	if keep < len(hits) {
		hits = hits[:keep]
	}

	result := &AdvancedResult{
		Query:       query,
		Project:     opts.Project,
		Results:     resultRows(hits),
		ResultCount: keep,
		Metadata: AdvancedMetadata{
			TotalAttempts: outcome.TotalAttempts,
			QualityMet:    outcome.QualityMet,
			BestScore:     outcome.BestScore,
			Threshold:     outcome.Threshold,
			BestAttempt:   outcome.BestAttempt,
			Attempts:      outcome.Attempts,
			Autocut:       cutMeta,
			ElapsedMs:     time.Since(start).Milliseconds(),
		},
	}
	result.ResultCount = len(result.Results)
	if !outcome.QualityMet {
		slog.Info("Advanced search below quality threshold",
			"query", query, "best_score", outcome.BestScore, "threshold", outcome.Threshold)
	}
	span.SetAttributes(
		attribute.Int("results", result.ResultCount),
		attribute.Bool("quality_met", outcome.QualityMet),
	)
	return result, nil
}

// =========================================================================
// === Similarity, types, memories, status ===
// =========================================================================

// SimilaritySearch finds code chunks semantically close to a snippet.
func (s *Service) SimilaritySearch(ctx context.Context, code string, project string, limit int) (*SimilarResult, error) {
	ctx, span := tracer.Start(ctx, "search.Similarity")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	filter := chunkFilter(project, nil)
	hits, err := s.store.NearText(ctx, store.ClassCodeChunk, code, SimilarityCertainty, filter, limit, chunkFields)
	if err != nil {
		return nil, err
	}

	rows := make([]SimilarRow, len(hits))
	for i, h := range hits {
		base := resultRow(i+1, h)
		rows[i] = SimilarRow{ResultRow: base, Similarity: h.Score}
	}
	span.SetAttributes(attribute.Int("results", len(rows)))
	return &SimilarResult{Project: project, ResultCount: len(rows), Results: rows}, nil
}

// TypeSearch looks up interfaces, aliases, enums, and const-types.
func (s *Service) TypeSearch(ctx context.Context, query, project string, limit int) (*TypesResult, error) {
	ctx, span := tracer.Start(ctx, "search.Types")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	filter := store.Eq("project", project)
	hits, err := s.store.HybridSearch(ctx, store.ClassTypeDefinition, query, TypeSearchAlpha, filter, limit, typeFields)
	if err != nil {
		return nil, err
	}

	rows := make([]TypeRow, len(hits))
	for i, h := range hits {
		props := store.GetStringSlice(h.Properties, "properties")
		if len(props) > 10 {
			props = props[:10]
		}
		rows[i] = TypeRow{
			Name:       store.GetString(h.Properties, "name"),
			Kind:       store.GetString(h.Properties, "typeKind"),
			File:       store.GetString(h.Properties, "filePath"),
			Properties: props,
			Extends:    store.GetStringSlice(h.Properties, "extendsTypes"),
			FromDB:     store.GetBool(h.Properties, "fromDatabase"),
			Content:    store.GetString(h.Properties, "content"),
		}
	}
	return &TypesResult{Query: query, Project: project, ResultCount: len(rows), Results: rows}, nil
}

// MemorySearch retrieves prior session summaries relevant to a query.
func (s *Service) MemorySearch(ctx context.Context, query, project string, limit int) (*MemoriesResult, error) {
	ctx, span := tracer.Start(ctx, "search.Memories")
	defer span.End()

	if limit <= 0 {
		limit = 5
	}
	var filter *store.Filter
	if project != "" {
		filter = store.ContainsAny("project", project)
	}
	hits, err := s.store.HybridSearch(ctx, store.ClassConversationMemory, query, MemorySearchAlpha, filter, limit, memoryFields)
	if err != nil {
		return nil, err
	}

	rows := make([]MemoryRow, len(hits))
	for i, h := range hits {
		rows[i] = MemoryRow{
			SessionID: store.GetString(h.Properties, "sessionId"),
			Summary:   store.GetString(h.Properties, "summary"),
			Decisions: store.GetStringSlice(h.Properties, "decisions"),
			Files:     store.GetStringSlice(h.Properties, "filesModified"),
			Project:   store.GetString(h.Properties, "project"),
			Topics:    store.GetStringSlice(h.Properties, "topics"),
			Date:      store.GetString(h.Properties, "timestamp"),
		}
	}
	return &MemoriesResult{Query: query, Project: project, ResultCount: len(rows), Results: rows}, nil
}

// Status counts indexed chunks overall and per project. It never returns
// an error: unreachable collections report -1 and the status degrades.
func (s *Service) Status(ctx context.Context) *StatusResult {
	ctx, span := tracer.Start(ctx, "search.Status")
	defer span.End()

	result := &StatusResult{
		Status:      "ok",
		TotalChunks: make(map[string]int),
		ByProject:   make(map[string]int),
	}
	for _, class := range store.ChunkClasses {
		count, err := s.store.AggregateCount(ctx, class, nil)
		if err != nil {
			slog.Warn("Status count failed", "collection", class, "error", err)
			result.TotalChunks[class] = -1
			result.Status = "degraded"
			continue
		}
		result.TotalChunks[class] = count
	}

	groups, err := s.store.AggregateGroupBy(ctx, store.ClassCodeChunk, "project")
	if err != nil {
		slog.Warn("Status group-by failed", "error", err)
		result.Status = "degraded"
		return result
	}
	for _, g := range groups {
		result.ByProject[g.Value] = g.Count
	}
	return result
}

// =========================================================================
// === Helpers ===
// =========================================================================

func chunkFilter(project string, chunkTypes []string) *store.Filter {
	f := store.Eq("project", project)
	if len(chunkTypes) > 0 {
		f = store.And(f, store.ContainsAny("chunkType", chunkTypes...))
	}
	return f
}

func resultRows(hits []store.Hit) []ResultRow {
	rows := make([]ResultRow, len(hits))
	for i, h := range hits {
		rows[i] = resultRow(i+1, h)
	}
	return rows
}

func resultRow(rank int, h store.Hit) ResultRow {
	jsDoc := truncate(store.GetString(h.Properties, "jsDoc"), jsDocLimit)
	return ResultRow{
		Rank:      rank,
		Name:      store.GetString(h.Properties, "name"),
		Type:      store.GetString(h.Properties, "chunkType"),
		File:      fmt.Sprintf("%s:%d", store.GetString(h.Properties, "filePath"), store.GetInt(h.Properties, "lineStart")),
		Signature: store.GetString(h.Properties, "signature"),
		JSDoc:     jsDoc,
		Score:     h.Score,
		Content:   store.GetString(h.Properties, "content"),
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
