// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rewrite expands terse developer queries into forms that match
// stored code. The lexicon pass is pure and always runs; the LLM pass is
// optional and falls back to the lexicon result on any failure.
package rewrite

import (
	"log/slog"
	"strings"
)

// =========================================================================
// === Types ===
// =========================================================================

// Result is the output of a rewrite.
type Result struct {
	// Primary is the expanded query used as the main store query.
	Primary string `json:"primary"`

	// Variants are up to three alternate phrasings: primary plus top
	// synonyms, and identifier-style concatenations of the original
	// tokens.
	Variants []string `json:"variants"`

	// SynonymsUsed lists every synonym queued during expansion, in
	// first-seen order.
	SynonymsUsed []string `json:"synonymsUsed"`

	// Confidence estimates how much the expansion changed the query:
	// 0.5 when nothing changed or almost everything did, 0.9 for a
	// moderate expansion, 0.7 for a light one.
	Confidence float64 `json:"confidence"`
}

// maxVariants bounds the variant list.
const maxVariants = 3

// =========================================================================
// === Lexicon pass ===
// =========================================================================

// Expand runs the deterministic lexicon pass over a raw query.
//
// Description:
//
//	Tokenises on whitespace, replaces known abbreviations with their
//	primary long forms, collects synonyms from both lexicons, and emits
//	identifier-style variants built from the original tokens so that
//	"auth btn click" can also match AuthBtnClick in stored code.
//
// Inputs:
//
//	query - Raw natural-language query, any length
//
// Outputs:
//
//	Result - Primary, variants, synonyms, and confidence
func Expand(query string) Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return Result{Primary: query, Confidence: 0.5}
	}

	expanded := make([]string, len(tokens))
	var synonyms []string
	seen := make(map[string]bool)
	queue := func(s string) {
		if !seen[s] {
			seen[s] = true
			synonyms = append(synonyms, s)
		}
	}

	for i, tok := range tokens {
		if exp, ok := Abbreviations[tok]; ok {
			expanded[i] = exp.Primary
			for _, alt := range exp.Alternates {
				queue(alt)
			}
		} else {
			expanded[i] = tok
		}
		if syns, ok := DomainSynonyms[tok]; ok {
			for _, s := range syns {
				queue(s)
			}
		}
	}

	primary := strings.Join(expanded, " ")

	var variants []string
	if withSyns := appendSynonyms(primary, synonyms); withSyns != primary {
		variants = append(variants, withSyns)
	}
	if len(tokens) > 1 {
		variants = append(variants, PascalCase(tokens), CamelCase(tokens))
	}
	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}

	return Result{
		Primary:      primary,
		Variants:     variants,
		SynonymsUsed: synonyms,
		Confidence:   confidence(tokens, expanded),
	}
}

// appendSynonyms extends the primary with up to three synonyms.
func appendSynonyms(primary string, synonyms []string) string {
	if len(synonyms) == 0 {
		return primary
	}
	top := synonyms
	if len(top) > 3 {
		top = top[:3]
	}
	return primary + " " + strings.Join(top, " ")
}

// confidence scores the expansion by token-set Jaccard similarity between
// the original and expanded queries. An untouched query and a near-total
// replacement are both low-confidence; a moderate overlap is the sweet
// spot for a lexicon hit.
func confidence(original, expanded []string) float64 {
	j := jaccard(original, expanded)
	switch {
	case j == 1.0 || j < 0.3:
		return 0.5
	case j <= 0.8:
		return 0.9
	default:
		return 0.7
	}
}

func jaccard(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		setB[s] = true
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	intersection := 0
	for s := range setA {
		if setB[s] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// =========================================================================
// === Strategy transforms ===
// =========================================================================

// ExpandTokens appends curated synonyms after each recognised token,
// leaving the original tokens in place. Used by the keyword-heavy retry
// strategy.
func ExpandTokens(query string) string {
	tokens := Tokenize(query)
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		out = append(out, tok)
		seen[tok] = true
		if exp, ok := Abbreviations[tok]; ok && !seen[exp.Primary] {
			out = append(out, exp.Primary)
			seen[exp.Primary] = true
		}
		if syns, ok := DomainSynonyms[tok]; ok {
			for _, s := range syns {
				if !seen[s] {
					out = append(out, s)
					seen[s] = true
				}
			}
		}
	}
	return strings.Join(out, " ")
}

// noiseWords are closed-class words dropped by Simplify.
var noiseWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "with": true,
	"that": true, "this": true, "is": true, "are": true, "was": true,
	"how": true, "what": true, "where": true, "which": true, "do": true,
	"does": true, "can": true, "i": true, "my": true, "me": true,
	"and": true, "or": true, "it": true, "its": true, "from": true,
	"by": true, "be": true, "get": true, "all": true, "any": true,
	"please": true, "show": true, "find": true,
}

// Simplify drops closed-class noise words, keeping content tokens. If
// everything would be dropped the original query is returned unchanged.
func Simplify(query string) string {
	tokens := Tokenize(query)
	var kept []string
	for _, tok := range tokens {
		if !noiseWords[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		slog.Debug("Simplify dropped every token, keeping original", "query", query)
		return query
	}
	return strings.Join(kept, " ")
}

// CodeStyle appends identifier-style renderings of the query so keyword
// matching can hit camelCase, PascalCase, snake_case, and kebab-case
// symbols, plus the hook and handler naming conventions.
func CodeStyle(query string) string {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return query
	}
	parts := []string{query}
	if len(tokens) > 1 {
		parts = append(parts,
			CamelCase(tokens),
			PascalCase(tokens),
			SnakeCase(tokens),
			KebabCase(tokens),
		)
	}
	parts = append(parts,
		"use"+PascalCase(tokens),
		"handle"+PascalCase(tokens),
	)
	return strings.Join(parts, " ")
}
