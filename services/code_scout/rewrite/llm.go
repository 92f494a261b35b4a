// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/codescout/services/llm"
)

const (
	// llmMinLength and llmMaxLength bound queries worth an LLM round trip.
	llmMinLength = 3
	llmMaxLength = 200

	// llmMaxResponse truncates runaway responses.
	llmMaxResponse = 500

	llmTemperature = 0.3
	llmMaxTokens   = 150
)

const rewriteSystemPrompt = `You expand terse code-search queries into natural language.
Rewrite the user's query as a fuller description of the code they are looking for,
in at most 100 words. Expand abbreviations, name likely symbols and concepts,
and stay strictly on the topic of the original query. Reply with the rewritten
query only, no preamble.`

// Rewriter combines the lexicon pass with an optional LLM pass.
type Rewriter struct {
	llm llm.Client
}

// NewRewriter builds a rewriter. A nil client disables the LLM pass so the
// rewriter stays deterministic.
func NewRewriter(client llm.Client) *Rewriter {
	return &Rewriter{llm: client}
}

// Rewrite runs the lexicon pass and, when a client is configured and the
// query length is in range, asks the model for a richer primary.
//
// Description:
//
//	The LLM pass only ever replaces Primary; variants, synonyms, and
//	confidence always come from the lexicon pass. Any model failure,
//	timeout, or empty response falls back to the lexicon primary.
//
// Inputs:
//
//	ctx - Context for cancellation; the client applies its own timeout
//	query - Raw query
//	contextLine - Optional caller-supplied context prefixed to the prompt
//
// Outputs:
//
//	Result - Rewrite output, LLM-enriched when possible
func (r *Rewriter) Rewrite(ctx context.Context, query, contextLine string) Result {
	result := Expand(query)
	if r.llm == nil {
		return result
	}
	if len(query) < llmMinLength || len(query) > llmMaxLength {
		return result
	}

	prompt := query
	if contextLine != "" {
		prompt = contextLine + "\n" + query
	}
	response, err := r.llm.Generate(ctx, llm.GenerateRequest{
		System:      rewriteSystemPrompt,
		Prompt:      prompt,
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
	})
	if err != nil {
		slog.Warn("LLM rewrite failed, using lexicon primary", "error", err)
		return result
	}
	response = strings.TrimSpace(response)
	if response == "" {
		slog.Warn("LLM rewrite returned empty response, using lexicon primary")
		return result
	}
	result.Primary = truncate(response, llmMaxResponse)
	return result
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
