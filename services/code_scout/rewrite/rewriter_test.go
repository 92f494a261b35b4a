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
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/codescout/services/llm"
)

func TestExpand(t *testing.T) {
	t.Run("expands abbreviations to primary forms", func(t *testing.T) {
		result := Expand("auth btn click")

		assert.Equal(t, "authentication button click", result.Primary)
	})

	t.Run("emits identifier-style variants of original tokens", func(t *testing.T) {
		result := Expand("auth btn click")

		assert.Contains(t, result.Variants, "AuthBtnClick")
		assert.Contains(t, result.Variants, "authBtnClick")
	})

	t.Run("emits at most three variants", func(t *testing.T) {
		result := Expand("auth btn click login modal fetch db")

		assert.LessOrEqual(t, len(result.Variants), 3)
	})

	t.Run("queues abbreviation alternates as synonyms", func(t *testing.T) {
		result := Expand("auth handler")

		assert.Contains(t, result.SynonymsUsed, "authorization")
		assert.Contains(t, result.SynonymsUsed, "login")
	})

	t.Run("queues domain synonyms without replacing the token", func(t *testing.T) {
		result := Expand("login modal")

		assert.Contains(t, result.Primary, "login")
		assert.Contains(t, result.Primary, "modal")
		assert.Contains(t, result.SynonymsUsed, "signin")
		assert.Contains(t, result.SynonymsUsed, "dialog")
	})

	t.Run("synonyms are deduplicated and first-seen ordered", func(t *testing.T) {
		result := Expand("login login")

		seen := make(map[string]int)
		for _, s := range result.SynonymsUsed {
			seen[s]++
		}
		for s, n := range seen {
			assert.Equal(t, 1, n, "synonym %q appeared %d times", s, n)
		}
	})

	t.Run("untouched query has confidence 0.5", func(t *testing.T) {
		result := Expand("refresh orchestration pipeline")

		assert.Equal(t, "refresh orchestration pipeline", result.Primary)
		assert.Equal(t, 0.5, result.Confidence)
	})

	t.Run("moderate expansion has confidence 0.9", func(t *testing.T) {
		// One of three tokens replaced: Jaccard 2/4 = 0.5.
		result := Expand("auth handler middleware")

		assert.Equal(t, 0.9, result.Confidence)
	})

	t.Run("total replacement has confidence 0.5", func(t *testing.T) {
		// Both tokens replaced: Jaccard 0.
		result := Expand("auth btn")

		assert.Equal(t, 0.5, result.Confidence)
	})

	t.Run("empty query", func(t *testing.T) {
		result := Expand("")

		assert.Equal(t, "", result.Primary)
		assert.Empty(t, result.Variants)
		assert.Equal(t, 0.5, result.Confidence)
	})

	t.Run("single token gets no identifier variants", func(t *testing.T) {
		result := Expand("auth")

		for _, v := range result.Variants {
			assert.NotEqual(t, "Auth", v)
		}
	})
}

func TestExpandIdempotent(t *testing.T) {
	// Expanding an already-expanded query must be a no-op on the primary.
	queries := []string{
		"auth btn click",
		"db migration fn",
		"fetch usr creds from db",
		"login modal state hook",
		"async req handler mw",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			once := Expand(q)
			twice := Expand(once.Primary)

			assert.Equal(t, once.Primary, twice.Primary)
		})
	}
}

func TestLexiconClosure(t *testing.T) {
	// No primary expansion may itself be an abbreviation key, or the
	// lexicon pass would not be idempotent.
	for abbr, exp := range Abbreviations {
		for _, word := range strings.Fields(exp.Primary) {
			if word == abbr {
				continue // self-mapping entries like cache and url are fine
			}
			_, isKey := Abbreviations[word]
			assert.False(t, isKey, "expansion %q of %q is itself a lexicon key", word, abbr)
		}
	}
}

func TestCases(t *testing.T) {
	tokens := []string{"auth", "btn", "click"}

	t.Run("PascalCase", func(t *testing.T) {
		assert.Equal(t, "AuthBtnClick", PascalCase(tokens))
	})
	t.Run("CamelCase", func(t *testing.T) {
		assert.Equal(t, "authBtnClick", CamelCase(tokens))
	})
	t.Run("SnakeCase", func(t *testing.T) {
		assert.Equal(t, "auth_btn_click", SnakeCase(tokens))
	})
	t.Run("KebabCase", func(t *testing.T) {
		assert.Equal(t, "auth-btn-click", KebabCase(tokens))
	})
	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", PascalCase(nil))
		assert.Equal(t, "", CamelCase(nil))
	})
}

func TestSimplify(t *testing.T) {
	t.Run("drops noise words", func(t *testing.T) {
		assert.Equal(t, "user logs", Simplify("how do i get the user logs"))
	})

	t.Run("keeps original when everything is noise", func(t *testing.T) {
		assert.Equal(t, "how do i", Simplify("how do i"))
	})
}

func TestExpandTokens(t *testing.T) {
	out := ExpandTokens("auth modal")

	// Original tokens stay in place, expansions follow them.
	assert.True(t, strings.HasPrefix(out, "auth authentication"))
	assert.Contains(t, out, "modal")
	assert.Contains(t, out, "dialog")
}

func TestCodeStyle(t *testing.T) {
	out := CodeStyle("submit form")

	assert.Contains(t, out, "submit form")
	assert.Contains(t, out, "submitForm")
	assert.Contains(t, out, "SubmitForm")
	assert.Contains(t, out, "submit_form")
	assert.Contains(t, out, "submit-form")
	assert.Contains(t, out, "useSubmitForm")
	assert.Contains(t, out, "handleSubmitForm")
}

// fakeLLM is a canned-response llm.Client for rewriter tests.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Generate(_ context.Context, _ llm.GenerateRequest) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Model() string { return "fake-model" }

func TestRewriter(t *testing.T) {
	t.Run("nil client falls back to lexicon pass", func(t *testing.T) {
		r := NewRewriter(nil)

		result := r.Rewrite(context.Background(), "auth btn click", "")

		assert.Equal(t, "authentication button click", result.Primary)
	})

	t.Run("LLM response replaces primary only", func(t *testing.T) {
		fake := &fakeLLM{response: "authentication button click handler component"}
		r := NewRewriter(fake)

		result := r.Rewrite(context.Background(), "auth btn click", "")

		require.Equal(t, 1, fake.calls)
		assert.Equal(t, "authentication button click handler component", result.Primary)
		assert.Contains(t, result.Variants, "AuthBtnClick")
	})

	t.Run("LLM error falls back to lexicon primary", func(t *testing.T) {
		fake := &fakeLLM{err: errors.New("timeout")}
		r := NewRewriter(fake)

		result := r.Rewrite(context.Background(), "auth btn click", "")

		assert.Equal(t, "authentication button click", result.Primary)
	})

	t.Run("empty LLM response falls back", func(t *testing.T) {
		fake := &fakeLLM{response: "  \n "}
		r := NewRewriter(fake)

		result := r.Rewrite(context.Background(), "auth btn click", "")

		assert.Equal(t, "authentication button click", result.Primary)
	})

	t.Run("oversized LLM response is truncated", func(t *testing.T) {
		fake := &fakeLLM{response: strings.Repeat("x", 900)}
		r := NewRewriter(fake)

		result := r.Rewrite(context.Background(), "auth btn click", "")

		assert.Len(t, result.Primary, 500)
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		// 200 three-byte runes; a byte cut at 500 would land mid-rune.
		fake := &fakeLLM{response: strings.Repeat("認", 200)}
		r := NewRewriter(fake)

		result := r.Rewrite(context.Background(), "auth btn click", "")

		assert.True(t, utf8.ValidString(result.Primary))
		assert.Len(t, result.Primary, 498)
	})

	t.Run("short query skips the LLM", func(t *testing.T) {
		fake := &fakeLLM{response: "unused"}
		r := NewRewriter(fake)

		r.Rewrite(context.Background(), "db", "")

		assert.Equal(t, 0, fake.calls)
	})

	t.Run("long query skips the LLM", func(t *testing.T) {
		fake := &fakeLLM{response: "unused"}
		r := NewRewriter(fake)

		r.Rewrite(context.Background(), strings.Repeat("query ", 50), "")

		assert.Equal(t, 0, fake.calls)
	})
}
