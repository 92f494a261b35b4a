// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm is the seam between the retrieval pipeline and language
// models. Both consumers (the query rewriter and the memory compactor) are
// optional: a nil Client disables them and they fall back to deterministic
// behaviour.
package llm

import "context"

// GenerateRequest is a single-turn completion request.
type GenerateRequest struct {
	// System is the fixed system prompt for the call site.
	System string

	// Prompt is the user message.
	Prompt string

	// Temperature controls sampling. Zero means provider default.
	Temperature float32

	// MaxTokens bounds the response length. Zero means provider default.
	MaxTokens int
}

// Client defines the standard interface for any LLM backend.
//
// Implementations must be safe for concurrent use and must respect the
// context deadline on every call.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Model returns the model identifier, for bookkeeping fields on
	// records the model produced.
	Model() string
}
