// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reflexion retries a search with progressively different query
// transforms and keyword/vector blends until one attempt clears a quality
// threshold, then merges everything found across attempts.
package reflexion

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/codescout/services/code_scout/rewrite"
	"github.com/AleutianAI/codescout/services/code_scout/store"
)

var tracer = otel.Tracer("codescout.reflexion")

// =========================================================================
// === Strategies ===
// =========================================================================

// Strategy is one retry step: a hybrid alpha and a query transform.
type Strategy struct {
	Name      string
	Alpha     float64
	Transform func(string) string
}

// Strategies is the ordered retry ladder. Later entries trade precision
// for recall in different directions: keyword-heavy with expanded terms,
// vector-heavy with noise stripped, then identifier-style phrasing.
var Strategies = []Strategy{
	{Name: "balanced-semantic", Alpha: 0.7, Transform: func(q string) string { return q }},
	{Name: "keyword-expanded", Alpha: 0.3, Transform: rewrite.ExpandTokens},
	{Name: "semantic-simplified", Alpha: 0.9, Transform: rewrite.Simplify},
	{Name: "code-style", Alpha: 0.5, Transform: rewrite.CodeStyle},
}

// =========================================================================
// === Controller ===
// =========================================================================

// SearchFunc executes one search attempt. The controller supplies the
// transformed query and the strategy's alpha.
type SearchFunc func(ctx context.Context, query string, alpha float64) ([]store.Hit, error)

// Options configure a run.
type Options struct {
	// Threshold is the top score an attempt must reach to stop early.
	// Nil means DefaultThreshold; an explicit zero accepts the first
	// attempt unconditionally.
	Threshold *float64

	// MaxAttempts caps how many strategies run. Zero means all of them.
	MaxAttempts int
}

// Attempt records one strategy execution.
type Attempt struct {
	Strategy    string  `json:"strategy"`
	Alpha       float64 `json:"alpha"`
	Query       string  `json:"query"`
	TopScore    float64 `json:"topScore"`
	ResultCount int     `json:"resultCount"`
	Error       string  `json:"error,omitempty"`
}

// Outcome is the merged result of a run. BestAttempt is the full record
// of the winning attempt so a caller can replay its query and alpha.
type Outcome struct {
	Results       []store.Hit `json:"results"`
	Attempts      []Attempt   `json:"attempts"`
	BestAttempt   *Attempt    `json:"bestAttempt,omitempty"`
	QualityMet    bool        `json:"qualityMet"`
	BestScore     float64     `json:"bestScore"`
	Threshold     float64     `json:"threshold"`
	TotalAttempts int         `json:"totalAttempts"`
}

// DefaultThreshold is the quality bar when Options.Threshold is nil.
const DefaultThreshold = 0.7

// Run executes the strategy ladder over a search function.
//
// Description:
//
//	Strategies run in order. Each attempt's hits are collected even when
//	the attempt misses the threshold; a per-attempt error is recorded and
//	the loop continues. The first attempt whose top score reaches the
//	threshold stops the ladder. Hits from all attempts are merged,
//	deduplicated by (filePath, name) keeping the best score, and sorted
//	by score descending.
//
// Inputs:
//
//	ctx - Context; checked between attempts
//	query - The untransformed query
//	search - Search function invoked once per attempt
//	opts - Threshold and attempt cap
//
// Outputs:
//
//	Outcome - Merged results plus full attempt accounting
//	error - Non-nil only on context cancellation
func Run(ctx context.Context, query string, search SearchFunc, opts Options) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "reflexion.Run",
		trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	threshold := DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 || maxAttempts > len(Strategies) {
		maxAttempts = len(Strategies)
	}

	outcome := Outcome{Threshold: threshold}
	merged := make(map[hitKey]store.Hit)
	var order []hitKey

	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		strat := Strategies[i]
		rewritten := strat.Transform(query)

		attempt := Attempt{Strategy: strat.Name, Alpha: strat.Alpha, Query: rewritten}
		hits, err := search(ctx, rewritten, strat.Alpha)
		if err != nil {
			attempt.Error = err.Error()
			slog.Warn("Search attempt failed", "strategy", strat.Name, "error", err)
			outcome.Attempts = append(outcome.Attempts, attempt)
			continue
		}

		attempt.ResultCount = len(hits)
		for _, h := range hits {
			if h.Score > attempt.TopScore {
				attempt.TopScore = h.Score
			}
			key := keyOf(h)
			if prev, ok := merged[key]; !ok {
				merged[key] = h
				order = append(order, key)
			} else if h.Score > prev.Score {
				merged[key] = h
			}
		}
		outcome.Attempts = append(outcome.Attempts, attempt)

		if outcome.BestAttempt == nil || attempt.TopScore > outcome.BestScore {
			outcome.BestScore = attempt.TopScore
			best := attempt
			outcome.BestAttempt = &best
		}
		if attempt.TopScore >= threshold {
			outcome.QualityMet = true
			break
		}
	}

	outcome.TotalAttempts = len(outcome.Attempts)
	outcome.Results = sortedHits(merged, order)

	span.SetAttributes(
		attribute.Int("attempts", outcome.TotalAttempts),
		attribute.Bool("quality_met", outcome.QualityMet),
		attribute.Float64("best_score", outcome.BestScore),
	)
	bestName := ""
	if outcome.BestAttempt != nil {
		bestName = outcome.BestAttempt.Strategy
	}
	slog.Debug("Reflexion run complete",
		"attempts", outcome.TotalAttempts,
		"quality_met", outcome.QualityMet,
		"best", bestName,
		"results", len(outcome.Results))
	return outcome, nil
}

type hitKey struct {
	file string
	name string
}

func keyOf(h store.Hit) hitKey {
	return hitKey{
		file: store.GetString(h.Properties, "filePath"),
		name: store.GetString(h.Properties, "name"),
	}
}

// sortedHits flattens the dedup map in first-seen order, then sorts by
// score descending. The stable sort keeps the discovery order among equal
// scores deterministic.
func sortedHits(merged map[hitKey]store.Hit, order []hitKey) []store.Hit {
	hits := make([]store.Hit, 0, len(merged))
	for _, key := range order {
		hits = append(hits, merged[key])
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}
