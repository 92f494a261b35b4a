// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/codescout/services/code_scout/rewrite"
	"github.com/AleutianAI/codescout/services/code_scout/store"
	"github.com/AleutianAI/codescout/services/llm"
)

// fakeStore records calls and replays canned hits.
type fakeStore struct {
	hybridHits   []store.Hit
	hybridErr    error
	hybridCalls  []hybridCall
	nearHits     []store.Hit
	nearFields   []string
	counts       map[string]int
	countErr     error
	groups       []store.GroupCount
	groupErr     error
}

type hybridCall struct {
	collection string
	query      string
	alpha      float32
	limit      int
}

func (f *fakeStore) HybridSearch(_ context.Context, collection, query string, alpha float32, _ *store.Filter, limit int, _ []string) ([]store.Hit, error) {
	f.hybridCalls = append(f.hybridCalls, hybridCall{collection, query, alpha, limit})
	return f.hybridHits, f.hybridErr
}

func (f *fakeStore) NearText(_ context.Context, _, _ string, _ float32, _ *store.Filter, _ int, fields []string) ([]store.Hit, error) {
	f.nearFields = fields
	return f.nearHits, nil
}

func (f *fakeStore) FilterFetch(_ context.Context, _ string, _ *store.Filter, _ int, _ []string) ([]store.Doc, error) {
	return nil, nil
}

func (f *fakeStore) AggregateCount(_ context.Context, collection string, _ *store.Filter) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[collection], nil
}

func (f *fakeStore) AggregateGroupBy(_ context.Context, _, _ string) ([]store.GroupCount, error) {
	return f.groups, f.groupErr
}

func (f *fakeStore) Insert(_ context.Context, _ string, _ map[string]interface{}) (string, error) {
	return "", nil
}

func (f *fakeStore) DeleteByID(_ context.Context, _, _ string) error {
	return nil
}

var _ store.Store = (*fakeStore)(nil)

// fakeLLM is a canned-response llm.Client.
type fakeLLM struct {
	response string
}

func (f *fakeLLM) Generate(_ context.Context, _ llm.GenerateRequest) (string, error) {
	return f.response, nil
}

func (f *fakeLLM) Model() string { return "fake-model" }

func f64(v float64) *float64 { return &v }

func chunkHit(name, file string, line int, score float64) store.Hit {
	return store.Hit{
		Properties: map[string]interface{}{
			"name":      name,
			"filePath":  file,
			"chunkType": "function",
			"lineStart": float64(line),
			"content":   "func body",
			"signature": name + "()",
		},
		Score: score,
	}
}

func TestBasicSearch(t *testing.T) {
	t.Run("returns ranked rows with path:line file references", func(t *testing.T) {
		fake := &fakeStore{hybridHits: []store.Hit{
			chunkHit("login", "src/auth.ts", 12, 0.9),
			chunkHit("logout", "src/auth.ts", 40, 0.7),
		}}
		svc := NewService(fake, nil)

		result, err := svc.BasicSearch(context.Background(), "login", BasicOptions{Project: "web", Limit: 10})

		require.NoError(t, err)
		require.Equal(t, 2, result.ResultCount)
		assert.Equal(t, 1, result.Results[0].Rank)
		assert.Equal(t, "src/auth.ts:12", result.Results[0].File)
		assert.Equal(t, 2, result.Results[1].Rank)
	})

	t.Run("rewrite swaps in the lexicon primary and keeps the original", func(t *testing.T) {
		fake := &fakeStore{}
		svc := NewService(fake, nil)

		result, err := svc.BasicSearch(context.Background(), "auth btn", BasicOptions{Project: "web", Rewrite: true})

		require.NoError(t, err)
		require.Len(t, fake.hybridCalls, 1)
		assert.Equal(t, "authentication button", fake.hybridCalls[0].query)
		assert.Equal(t, "authentication button", result.Query)
		assert.Equal(t, "auth btn", result.OriginalQuery)
		require.NotNil(t, result.RewriteMetadata)
	})

	t.Run("autocut over-fetches with a floor of thirty", func(t *testing.T) {
		fake := &fakeStore{}
		svc := NewService(fake, nil)

		_, err := svc.BasicSearch(context.Background(), "q", BasicOptions{Project: "web", Limit: 5, Autocut: true})

		require.NoError(t, err)
		require.Len(t, fake.hybridCalls, 1)
		assert.Equal(t, 30, fake.hybridCalls[0].limit)
	})

	t.Run("autocut truncates at the gap and attaches metadata", func(t *testing.T) {
		hits := []store.Hit{
			chunkHit("a", "a.ts", 1, 0.95),
			chunkHit("b", "b.ts", 1, 0.93),
			chunkHit("c", "c.ts", 1, 0.91),
			chunkHit("d", "d.ts", 1, 0.90),
			chunkHit("e", "e.ts", 1, 0.30),
			chunkHit("f", "f.ts", 1, 0.28),
		}
		fake := &fakeStore{hybridHits: hits}
		svc := NewService(fake, nil)

		result, err := svc.BasicSearch(context.Background(), "q", BasicOptions{Project: "web", Limit: 10, Autocut: true})

		require.NoError(t, err)
		assert.Equal(t, 4, result.ResultCount)
		require.NotNil(t, result.AutocutMetadata)
		assert.True(t, result.AutocutMetadata.GapFound)
	})

	t.Run("omitted alpha defaults to the balanced blend", func(t *testing.T) {
		fake := &fakeStore{}
		svc := NewService(fake, nil)

		_, err := svc.BasicSearch(context.Background(), "q", BasicOptions{Project: "web"})

		require.NoError(t, err)
		assert.Equal(t, float32(0.5), fake.hybridCalls[0].alpha)
	})

	t.Run("explicit zero alpha means pure keyword search", func(t *testing.T) {
		fake := &fakeStore{}
		svc := NewService(fake, nil)

		_, err := svc.BasicSearch(context.Background(), "q", BasicOptions{Project: "web", Alpha: f64(0)})

		require.NoError(t, err)
		assert.Equal(t, float32(0), fake.hybridCalls[0].alpha)
	})

	t.Run("LLM-backed rewriter feeds the store query", func(t *testing.T) {
		fake := &fakeStore{}
		rewriter := rewrite.NewRewriter(&fakeLLM{response: "authentication button component handler"})
		svc := NewService(fake, rewriter)

		result, err := svc.BasicSearch(context.Background(), "auth btn", BasicOptions{Project: "web", Rewrite: true})

		require.NoError(t, err)
		require.Len(t, fake.hybridCalls, 1)
		assert.Equal(t, "authentication button component handler", fake.hybridCalls[0].query)
		assert.Equal(t, "auth btn", result.OriginalQuery)
	})

	t.Run("store errors surface", func(t *testing.T) {
		fake := &fakeStore{hybridErr: store.ErrTransient}
		svc := NewService(fake, nil)

		_, err := svc.BasicSearch(context.Background(), "q", BasicOptions{Project: "web"})

		assert.ErrorIs(t, err, store.ErrTransient)
	})

	t.Run("long jsDoc is truncated", func(t *testing.T) {
		h := chunkHit("a", "a.ts", 1, 0.9)
		long := make([]byte, 400)
		for i := range long {
			long[i] = 'd'
		}
		h.Properties["jsDoc"] = string(long)
		fake := &fakeStore{hybridHits: []store.Hit{h}}
		svc := NewService(fake, nil)

		result, err := svc.BasicSearch(context.Background(), "q", BasicOptions{Project: "web"})

		require.NoError(t, err)
		assert.Len(t, result.Results[0].JSDoc, 200)
	})

	t.Run("jsDoc truncation never splits a rune", func(t *testing.T) {
		h := chunkHit("a", "a.ts", 1, 0.9)
		// 100 three-byte runes; a byte cut at 200 would land mid-rune.
		h.Properties["jsDoc"] = strings.Repeat("世", 100)
		fake := &fakeStore{hybridHits: []store.Hit{h}}
		svc := NewService(fake, nil)

		result, err := svc.BasicSearch(context.Background(), "q", BasicOptions{Project: "web"})

		require.NoError(t, err)
		assert.True(t, utf8.ValidString(result.Results[0].JSDoc))
		assert.Len(t, result.Results[0].JSDoc, 198)
	})
}

func TestAdvancedSearch(t *testing.T) {
	t.Run("over-fetches at twice the limit and reports metadata", func(t *testing.T) {
		fake := &fakeStore{hybridHits: []store.Hit{chunkHit("login", "a.ts", 1, 0.9)}}
		svc := NewService(fake, nil)

		result, err := svc.AdvancedSearch(context.Background(), "login", AdvancedOptions{Project: "web", Limit: 5})

		require.NoError(t, err)
		require.NotEmpty(t, fake.hybridCalls)
		assert.Equal(t, 10, fake.hybridCalls[0].limit)
		assert.True(t, result.Metadata.QualityMet)
		assert.Equal(t, 1, result.Metadata.TotalAttempts)
		require.NotNil(t, result.Metadata.BestAttempt)
		assert.Equal(t, "balanced-semantic", result.Metadata.BestAttempt.Strategy)
		assert.Equal(t, 0.7, result.Metadata.BestAttempt.Alpha)
		assert.GreaterOrEqual(t, result.Metadata.ElapsedMs, int64(0))
	})

	t.Run("explicit zero threshold stops after one attempt", func(t *testing.T) {
		fake := &fakeStore{hybridHits: []store.Hit{chunkHit("x", "a.ts", 1, 0.1)}}
		svc := NewService(fake, nil)

		result, err := svc.AdvancedSearch(context.Background(), "q", AdvancedOptions{Project: "web", Limit: 5, Threshold: f64(0)})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Metadata.TotalAttempts)
		assert.True(t, result.Metadata.QualityMet)
		assert.Equal(t, 0.0, result.Metadata.Threshold)
	})

	t.Run("low scores walk the ladder and stay a soft failure", func(t *testing.T) {
		fake := &fakeStore{hybridHits: []store.Hit{chunkHit("x", "a.ts", 1, 0.2)}}
		svc := NewService(fake, nil)

		result, err := svc.AdvancedSearch(context.Background(), "q", AdvancedOptions{Project: "web", Limit: 5})

		require.NoError(t, err)
		assert.False(t, result.Metadata.QualityMet)
		assert.Equal(t, 3, result.Metadata.TotalAttempts)
		assert.Equal(t, 1, result.ResultCount)
	})

	t.Run("store failure on every attempt is not an error", func(t *testing.T) {
		fake := &fakeStore{hybridErr: errors.New("down")}
		svc := NewService(fake, nil)

		result, err := svc.AdvancedSearch(context.Background(), "q", AdvancedOptions{Project: "web", Limit: 5})

		require.NoError(t, err)
		assert.Equal(t, 0, result.ResultCount)
		assert.False(t, result.Metadata.QualityMet)
		assert.Equal(t, 0.0, result.Metadata.BestScore)
	})
}

func TestSimilaritySearch(t *testing.T) {
	t.Run("maps hits with certainty as similarity", func(t *testing.T) {
		h := chunkHit("login", "a.ts", 1, 0.85)
		fake := &fakeStore{nearHits: []store.Hit{h}}
		svc := NewService(fake, nil)

		result, err := svc.SimilaritySearch(context.Background(), "function login() {}", "web", 5)

		require.NoError(t, err)
		require.Equal(t, 1, result.ResultCount)
		assert.Equal(t, 0.85, result.Results[0].Similarity)
		assert.Equal(t, "login", result.Results[0].Name)
		assert.Equal(t, "a.ts:1", result.Results[0].File)
	})

	t.Run("requests the chunk properties from the store", func(t *testing.T) {
		fake := &fakeStore{}
		svc := NewService(fake, nil)

		_, err := svc.SimilaritySearch(context.Background(), "snippet", "web", 5)

		require.NoError(t, err)
		assert.Equal(t, chunkFields, fake.nearFields)
	})
}

func TestTypeSearch(t *testing.T) {
	props := make([]interface{}, 14)
	for i := range props {
		props[i] = "field"
	}
	fake := &fakeStore{hybridHits: []store.Hit{{
		Properties: map[string]interface{}{
			"name":         "User",
			"typeKind":     "interface",
			"filePath":     "src/types.ts",
			"properties":   props,
			"fromDatabase": true,
			"content":      "interface User {}",
		},
		Score: 0.8,
	}}}
	svc := NewService(fake, nil)

	result, err := svc.TypeSearch(context.Background(), "user", "web", 10)

	require.NoError(t, err)
	require.Equal(t, 1, result.ResultCount)
	row := result.Results[0]
	assert.Equal(t, "User", row.Name)
	assert.Equal(t, "interface", row.Kind)
	assert.True(t, row.FromDB)
	assert.Len(t, row.Properties, 10)
	assert.Equal(t, store.ClassTypeDefinition, fake.hybridCalls[0].collection)
	assert.Equal(t, float32(0.7), fake.hybridCalls[0].alpha)
}

func TestMemorySearch(t *testing.T) {
	fake := &fakeStore{hybridHits: []store.Hit{{
		Properties: map[string]interface{}{
			"sessionId": "sess-1",
			"summary":   "refactored auth",
			"project":   "web",
			"timestamp": "2026-08-01T10:00:00Z",
		},
		Score: 0.7,
	}}}
	svc := NewService(fake, nil)

	result, err := svc.MemorySearch(context.Background(), "auth refactor", "web", 0)

	require.NoError(t, err)
	require.Equal(t, 1, result.ResultCount)
	assert.Equal(t, "sess-1", result.Results[0].SessionID)
	assert.Equal(t, store.ClassConversationMemory, fake.hybridCalls[0].collection)
	assert.Equal(t, 5, fake.hybridCalls[0].limit)
}

func TestStatus(t *testing.T) {
	t.Run("reports totals and per-project counts", func(t *testing.T) {
		fake := &fakeStore{
			counts: map[string]int{
				store.ClassCodeChunk:      100,
				store.ClassDocChunk:       20,
				store.ClassTypeDefinition: 30,
				store.ClassFileMetadata:   15,
			},
			groups: []store.GroupCount{{Value: "web", Count: 80}, {Value: "api", Count: 20}},
		}
		svc := NewService(fake, nil)

		result := svc.Status(context.Background())

		assert.Equal(t, "ok", result.Status)
		assert.Equal(t, 100, result.TotalChunks[store.ClassCodeChunk])
		assert.Equal(t, 80, result.ByProject["web"])
	})

	t.Run("degrades instead of failing", func(t *testing.T) {
		fake := &fakeStore{countErr: errors.New("down"), groupErr: errors.New("down")}
		svc := NewService(fake, nil)

		result := svc.Status(context.Background())

		assert.Equal(t, "degraded", result.Status)
		assert.Equal(t, -1, result.TotalChunks[store.ClassCodeChunk])
	})
}
