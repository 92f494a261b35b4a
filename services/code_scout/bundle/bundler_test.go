// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package bundle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/codescout/services/code_scout/store"
)

// fakeStore serves FilterFetch from a per-file fixture map. Related-file
// lookups match on the Like pattern embedded in the filter, so the fake
// keys fixtures by path substring.
type fakeStore struct {
	mu      sync.Mutex
	files   map[string][]store.Doc
	types   []store.Doc
	fetches []string
}

func (f *fakeStore) FilterFetch(_ context.Context, collection string, filter *store.Filter, _ int, _ []string) ([]store.Doc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if collection == store.ClassTypeDefinition {
		f.fetches = append(f.fetches, "types")
		return f.types, nil
	}
	for key, docs := range f.files {
		if filterMentions(filter, key) {
			f.fetches = append(f.fetches, key)
			return docs, nil
		}
	}
	return nil, nil
}

// filterMentions walks the filter values looking for the path key.
func filterMentions(f *store.Filter, key string) bool {
	if f == nil {
		return false
	}
	for _, v := range f.Values() {
		if v == key || v == "*"+key+"*" {
			return true
		}
	}
	for _, op := range f.Operands() {
		if filterMentions(op, key) {
			return true
		}
	}
	return false
}

func (f *fakeStore) HybridSearch(_ context.Context, _, _ string, _ float32, _ *store.Filter, _ int, _ []string) ([]store.Hit, error) {
	return nil, nil
}

func (f *fakeStore) NearText(_ context.Context, _, _ string, _ float32, _ *store.Filter, _ int, _ []string) ([]store.Hit, error) {
	return nil, nil
}

func (f *fakeStore) AggregateCount(_ context.Context, _ string, _ *store.Filter) (int, error) {
	return 0, nil
}

func (f *fakeStore) AggregateGroupBy(_ context.Context, _, _ string) ([]store.GroupCount, error) {
	return nil, nil
}

func (f *fakeStore) Insert(_ context.Context, _ string, _ map[string]interface{}) (string, error) {
	return "", nil
}

func (f *fakeStore) DeleteByID(_ context.Context, _, _ string) error { return nil }

var _ store.Store = (*fakeStore)(nil)

func doc(name, file string, lineStart, lineEnd int, exported bool, deps, usedTypes []string) store.Doc {
	toIface := func(ss []string) []interface{} {
		out := make([]interface{}, len(ss))
		for i, s := range ss {
			out[i] = s
		}
		return out
	}
	return store.Doc{
		Properties: map[string]interface{}{
			"name":         name,
			"filePath":     file,
			"chunkType":    "function",
			"lineStart":    float64(lineStart),
			"lineEnd":      float64(lineEnd),
			"content":      "body",
			"isExported":   exported,
			"dependencies": toIface(deps),
			"usedTypes":    toIface(usedTypes),
		},
	}
}

func TestBuild(t *testing.T) {
	t.Run("missing file returns ErrNotFound", func(t *testing.T) {
		b := NewBundler(&fakeStore{files: map[string][]store.Doc{}}, nil)

		_, err := b.Build(context.Background(), "src/missing.ts", Options{Project: "web"})

		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("main file chunks are ordered by line", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("logout", "src/auth.ts", 40, 50, true, nil, nil),
				doc("login", "src/auth.ts", 10, 30, true, nil, nil),
			},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		require.Len(t, bundle.MainFile.Chunks, 2)
		assert.Equal(t, "login", bundle.MainFile.Chunks[0].Name)
		assert.Equal(t, "logout", bundle.MainFile.Chunks[1].Name)
		// (30-10+1) + (50-40+1)
		assert.Equal(t, 32, bundle.MainFile.LineCount)
	})

	t.Run("follows dependencies and keeps exported chunks only", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("login", "src/auth.ts", 1, 10, true, []string{"@/utils/session"}, nil),
			},
			"src/utils/session": {
				doc("getSession", "src/utils/session.ts", 1, 5, true, nil, nil),
				doc("internalHelper", "src/utils/session.ts", 7, 9, false, nil, nil),
			},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		require.Len(t, bundle.RelatedFiles, 1)
		require.Len(t, bundle.RelatedFiles[0].Chunks, 1)
		assert.Equal(t, "getSession", bundle.RelatedFiles[0].Chunks[0].Name)
	})

	t.Run("third-party specifiers are dropped", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("login", "src/auth.ts", 1, 10, true, []string{"react", "lodash", "../escape"}, nil),
			},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		assert.Empty(t, bundle.RelatedFiles)
	})

	t.Run("alias rewrite and dot-slash strip", func(t *testing.T) {
		b := NewBundler(&fakeStore{}, map[string]string{"@/": "src/"})

		out := b.normalize([]string{"@/utils/log", "./lib/db", "react"}, "src/main.ts", 10)

		assert.Equal(t, []string{"src/utils/log", "lib/db"}, out)
	})

	t.Run("root-level relative import survives the bare-specifier check", func(t *testing.T) {
		b := NewBundler(&fakeStore{}, nil)

		out := b.normalize([]string{"./helpers", "react"}, "src/main.ts", 10)

		assert.Equal(t, []string{"helpers"}, out)
	})

	t.Run("root-level relative dep yields a related file", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("login", "src/auth.ts", 1, 10, true, []string{"./helpers"}, nil),
			},
			"helpers": {
				doc("formatDate", "helpers.ts", 1, 4, true, nil, nil),
			},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		require.Len(t, bundle.RelatedFiles, 1)
		assert.Equal(t, "helpers.ts", bundle.RelatedFiles[0].Path)
	})

	t.Run("prefix count is capped at maxFiles", func(t *testing.T) {
		deps := []string{
			"src/a/a", "src/b/b", "src/c/c", "src/d/d", "src/e/e",
		}
		b := NewBundler(&fakeStore{}, nil)

		out := b.normalize(deps, "src/main.ts", 3)

		assert.Len(t, out, 3)
	})

	t.Run("types are fetched when requested", func(t *testing.T) {
		fake := &fakeStore{
			files: map[string][]store.Doc{
				"src/auth.ts": {
					doc("login", "src/auth.ts", 1, 10, true, nil, []string{"Session", "User"}),
				},
			},
			types: []store.Doc{
				{Properties: map[string]interface{}{
					"name": "Session", "typeKind": "interface",
					"filePath": "src/types.ts", "content": "interface Session {\n id: string\n}",
				}},
			},
		}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web", IncludeTypes: true})

		require.NoError(t, err)
		require.Len(t, bundle.Types, 1)
		assert.Equal(t, "Session", bundle.Types[0].Name)
		// 10 main lines + 3 type lines
		assert.Equal(t, 13, bundle.TotalLines)
	})

	t.Run("includeTypes false skips the type fetch", func(t *testing.T) {
		fake := &fakeStore{
			files: map[string][]store.Doc{
				"src/auth.ts": {
					doc("login", "src/auth.ts", 1, 10, true, nil, []string{"Session"}),
				},
			},
			types: []store.Doc{{Properties: map[string]interface{}{"name": "Session"}}},
		}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		assert.Empty(t, bundle.Types)
		assert.NotContains(t, fake.fetches, "types")
	})

	t.Run("no chunk appears twice", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("login", "src/auth.ts", 1, 10, true, nil, nil),
				doc("login", "src/auth.ts", 1, 10, true, nil, nil),
			},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		assert.Len(t, bundle.MainFile.Chunks, 1)
	})

	t.Run("self-import does not echo the main file", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("login", "src/auth.ts", 1, 10, true, []string{"./src/auth.ts"}, nil),
			},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		assert.Empty(t, bundle.RelatedFiles)
	})

	t.Run("extensionless self prefix does not echo the main file", func(t *testing.T) {
		mainDocs := []store.Doc{
			doc("login", "src/auth.ts", 1, 10, true, []string{"src/auth"}, nil),
		}
		// The wildcard for "src/auth" matches the main file's own chunks.
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": mainDocs,
			"src/auth":    mainDocs,
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		assert.Empty(t, bundle.RelatedFiles)
	})

	t.Run("one wildcard match groups chunks per file", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("login", "src/auth.ts", 1, 10, true, []string{"src/utils"}, nil),
			},
			"src/utils": {
				doc("a", "src/utils/a.ts", 1, 2, true, nil, nil),
				doc("b", "src/utils/b.ts", 1, 2, true, nil, nil),
			},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		require.Len(t, bundle.RelatedFiles, 2)
		assert.Equal(t, "src/utils/a.ts", bundle.RelatedFiles[0].Path)
		assert.Equal(t, "src/utils/b.ts", bundle.RelatedFiles[1].Path)
		require.Len(t, bundle.RelatedFiles[0].Chunks, 1)
		require.Len(t, bundle.RelatedFiles[1].Chunks, 1)
	})

	t.Run("related files preserve dependency order", func(t *testing.T) {
		fake := &fakeStore{files: map[string][]store.Doc{
			"src/auth.ts": {
				doc("login", "src/auth.ts", 1, 10, true,
					[]string{"src/one/a", "src/two/b", "src/three/c"}, nil),
			},
			"src/one/a":   {doc("a", "src/one/a.ts", 1, 2, true, nil, nil)},
			"src/two/b":   {doc("b", "src/two/b.ts", 1, 2, true, nil, nil)},
			"src/three/c": {doc("c", "src/three/c.ts", 1, 2, true, nil, nil)},
		}}
		b := NewBundler(fake, nil)

		bundle, err := b.Build(context.Background(), "src/auth.ts", Options{Project: "web"})

		require.NoError(t, err)
		require.Len(t, bundle.RelatedFiles, 3)
		assert.Equal(t, "src/one/a.ts", bundle.RelatedFiles[0].Path)
		assert.Equal(t, "src/two/b.ts", bundle.RelatedFiles[1].Path)
		assert.Equal(t, "src/three/c.ts", bundle.RelatedFiles[2].Path)
	})
}
