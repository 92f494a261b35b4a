// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package bundle assembles file-centric context: every chunk of a main
// file, exported chunks of the files it imports, and the type definitions
// it references.
package bundle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/codescout/services/code_scout/store"
)

var tracer = otel.Tracer("codescout.bundle")

const (
	// DefaultMaxFiles bounds how many related files are followed.
	DefaultMaxFiles = 10

	// chunksPerRelatedFile caps chunks fetched per related file.
	chunksPerRelatedFile = 5

	// maxTypes caps type definitions in a bundle.
	maxTypes = 20

	// relatedFetchParallelism bounds concurrent store calls.
	relatedFetchParallelism = 4
)

// DefaultAliases maps the common bundler-style path alias when no alias
// configuration is supplied.
var DefaultAliases = map[string]string{"@/": "src/"}

// Chunk is one emitted code chunk, self-contained for a reader.
type Chunk struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	FilePath  string `json:"filePath"`
	LineStart int    `json:"lineStart"`
	LineEnd   int    `json:"lineEnd"`
	Content   string `json:"content"`
	Signature string `json:"signature,omitempty"`
}

// FileContext is one file's chunks, ordered by line.
type FileContext struct {
	Path      string  `json:"path"`
	Chunks    []Chunk `json:"chunks"`
	LineCount int     `json:"lineCount"`
}

// TypeExcerpt is a referenced type definition.
type TypeExcerpt struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

// Bundle is the assembled context for one file.
type Bundle struct {
	MainFile     FileContext   `json:"mainFile"`
	RelatedFiles []FileContext `json:"relatedFiles"`
	Types        []TypeExcerpt `json:"types"`
	TotalLines   int           `json:"totalLines"`
}

// Options configure a bundling run.
type Options struct {
	Project      string
	MaxFiles     int
	IncludeTypes bool
}

// Bundler builds context bundles from the store.
type Bundler struct {
	store   store.Store
	aliases map[string]string
}

// NewBundler builds a bundler with the given path alias map. A nil map
// falls back to DefaultAliases.
func NewBundler(s store.Store, aliases map[string]string) *Bundler {
	if aliases == nil {
		aliases = DefaultAliases
	}
	return &Bundler{store: s, aliases: aliases}
}

var chunkFields = []string{
	"name", "content", "filePath", "chunkType", "lineStart", "lineEnd",
	"signature", "isExported", "dependencies", "usedTypes",
}

// Build assembles the context bundle for a file.
//
// Description:
//
//	Fetches every chunk of the main file, follows its resolved import
//	paths to the exported chunks of related files, and pulls the type
//	definitions it references. Related files are fetched concurrently
//	but reassembled in dependency order so output is deterministic.
//
// Inputs:
//
//	ctx - Context for cancellation
//	filePath - Project-relative path of the main file
//	opts - Project, related-file cap, type toggle
//
// Outputs:
//
//	*Bundle - Assembled context
//	error - store.ErrNotFound when the path has no indexed chunks
func (b *Bundler) Build(ctx context.Context, filePath string, opts Options) (*Bundle, error) {
	ctx, span := tracer.Start(ctx, "bundle.Build")
	defer span.End()
	span.SetAttributes(
		attribute.String("file_path", filePath),
		attribute.String("project", opts.Project),
	)

	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	mainDocs, err := b.store.FilterFetch(ctx, store.ClassCodeChunk,
		store.And(
			store.Eq("filePath", filePath),
			store.Eq("project", opts.Project),
		), 100, chunkFields)
	if err != nil {
		return nil, err
	}
	if len(mainDocs) == 0 {
		return nil, fmt.Errorf("%w: no indexed chunks for %s", store.ErrNotFound, filePath)
	}

	mainFile := fileContext(filePath, mainDocs)

	// Union of dependencies and used types across the main file's chunks.
	var deps, usedTypes []string
	depSeen := make(map[string]bool)
	typeSeen := make(map[string]bool)
	for _, doc := range mainDocs {
		for _, d := range store.GetStringSlice(doc.Properties, "dependencies") {
			if !depSeen[d] {
				depSeen[d] = true
				deps = append(deps, d)
			}
		}
		for _, ty := range store.GetStringSlice(doc.Properties, "usedTypes") {
			if !typeSeen[ty] {
				typeSeen[ty] = true
				usedTypes = append(usedTypes, ty)
			}
		}
	}

	prefixes := b.normalize(deps, filePath, maxFiles)
	related, err := b.fetchRelated(ctx, prefixes, opts.Project, filePath)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{MainFile: mainFile, RelatedFiles: related}

	if opts.IncludeTypes && len(usedTypes) > 0 {
		names := usedTypes
		if len(names) > maxTypes {
			names = names[:maxTypes]
		}
		typeDocs, err := b.store.FilterFetch(ctx, store.ClassTypeDefinition,
			store.And(
				store.Eq("project", opts.Project),
				store.ContainsAny("name", names...),
			), maxTypes, []string{"name", "content", "filePath", "typeKind"})
		if err != nil {
			return nil, err
		}
		for _, doc := range typeDocs {
			bundle.Types = append(bundle.Types, TypeExcerpt{
				Name:     store.GetString(doc.Properties, "name"),
				Kind:     store.GetString(doc.Properties, "typeKind"),
				FilePath: store.GetString(doc.Properties, "filePath"),
				Content:  store.GetString(doc.Properties, "content"),
			})
		}
	}

	bundle.TotalLines = mainFile.LineCount
	for _, f := range bundle.RelatedFiles {
		bundle.TotalLines += f.LineCount
	}
	for _, ty := range bundle.Types {
		bundle.TotalLines += strings.Count(ty.Content, "\n") + 1
	}

	span.SetAttributes(
		attribute.Int("related_files", len(bundle.RelatedFiles)),
		attribute.Int("types", len(bundle.Types)),
		attribute.Int("total_lines", bundle.TotalLines),
	)
	return bundle, nil
}

// normalize rewrites alias prefixes, strips leading ./, drops specifiers
// that do not resolve inside the project, and caps the result. The main
// file itself is excluded so a self-import cannot echo it back.
func (b *Bundler) normalize(deps []string, mainPath string, maxFiles int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, dep := range deps {
		if len(out) >= maxFiles {
			break
		}
		p := dep
		for alias, replacement := range b.aliases {
			if strings.HasPrefix(p, alias) {
				p = replacement + strings.TrimPrefix(p, alias)
				break
			}
		}
		relative := strings.HasPrefix(p, "./")
		p = strings.TrimPrefix(p, "./")
		// Anything still absolute or escaping the project is not ours
		// to bundle.
		if p == "" || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "..") {
			continue
		}
		// A bare specifier with no path separator is a third-party
		// package, unless it came in as an explicit relative import of
		// a root-level file.
		if !relative && !strings.Contains(p, "/") {
			continue
		}
		if p == mainPath || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// fetchRelated pulls exported chunks for each prefix concurrently, then
// reassembles in the original prefix order. Chunks are grouped by their
// own filePath so one wildcard match never merges distinct files, and
// the main file is skipped even when an extensionless prefix matches it.
func (b *Bundler) fetchRelated(ctx context.Context, prefixes []string, project, mainPath string) ([]FileContext, error) {
	results := make([][]store.Doc, len(prefixes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(relatedFetchParallelism)
	for i, prefix := range prefixes {
		g.Go(func() error {
			docs, err := b.store.FilterFetch(gctx, store.ClassCodeChunk,
				store.And(
					store.Like("filePath", "*"+prefix+"*"),
					store.Eq("project", project),
				), chunksPerRelatedFile, chunkFields)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var related []FileContext
	emitted := make(map[string]bool)
	for i, docs := range results {
		byPath := make(map[string][]store.Doc)
		var paths []string
		for _, doc := range docs {
			if !store.GetBool(doc.Properties, "isExported") {
				continue
			}
			path := store.GetString(doc.Properties, "filePath")
			if path == "" {
				path = prefixes[i]
			}
			if path == mainPath {
				continue
			}
			if _, ok := byPath[path]; !ok {
				paths = append(paths, path)
			}
			byPath[path] = append(byPath[path], doc)
		}
		for _, path := range paths {
			if emitted[path] {
				continue
			}
			emitted[path] = true
			related = append(related, fileContext(path, byPath[path]))
		}
	}
	return related, nil
}

// fileContext converts docs into an ordered FileContext, deduplicating by
// (name, lineStart).
func fileContext(path string, docs []store.Doc) FileContext {
	type chunkKey struct {
		name string
		line int
	}
	seen := make(map[chunkKey]bool)
	var chunks []Chunk
	for _, doc := range docs {
		c := Chunk{
			Name:      store.GetString(doc.Properties, "name"),
			Type:      store.GetString(doc.Properties, "chunkType"),
			FilePath:  store.GetString(doc.Properties, "filePath"),
			LineStart: store.GetInt(doc.Properties, "lineStart"),
			LineEnd:   store.GetInt(doc.Properties, "lineEnd"),
			Content:   store.GetString(doc.Properties, "content"),
			Signature: store.GetString(doc.Properties, "signature"),
		}
		key := chunkKey{c.Name, c.LineStart}
		if seen[key] {
			continue
		}
		seen[key] = true
		chunks = append(chunks, c)
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].LineStart < chunks[j].LineStart })

	lines := 0
	for _, c := range chunks {
		if c.LineEnd >= c.LineStart {
			lines += c.LineEnd - c.LineStart + 1
		}
	}
	return FileContext{Path: path, Chunks: chunks, LineCount: lines}
}
