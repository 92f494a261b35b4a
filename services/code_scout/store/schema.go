// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Collection names. The feeder owns writes to the chunk collections; this
// service owns ConversationMemory writes.
const (
	ClassCodeChunk          = "CodeChunk"
	ClassDocChunk           = "DocChunk"
	ClassTypeDefinition     = "TypeDefinition"
	ClassFileMetadata       = "FileMetadata"
	ClassConversationMemory = "ConversationMemory"
)

// ChunkClasses are the feeder-owned collections counted by the status tool.
var ChunkClasses = []string{ClassCodeChunk, ClassDocChunk, ClassTypeDefinition, ClassFileMetadata}

const vectorizer = "text2vec-transformers"

// searchableText is a word-tokenised, vectorized text property.
func searchableText(name, description string) *models.Property {
	searchable := true
	return &models.Property{
		Name:            name,
		DataType:        []string{"text"},
		Description:     description,
		IndexSearchable: &searchable,
		Tokenization:    "word",
	}
}

// filterableText is a field-tokenised text property excluded from the vector.
func filterableText(name, description string) *models.Property {
	filterable := true
	return &models.Property{
		Name:            name,
		DataType:        []string{"text"},
		Description:     description,
		IndexFilterable: &filterable,
		Tokenization:    "field",
		ModuleConfig:    skipVectorization(),
	}
}

// plainProp is a non-text property excluded from the vector.
func plainProp(name, dataType, description string) *models.Property {
	return &models.Property{
		Name:         name,
		DataType:     []string{dataType},
		Description:  description,
		ModuleConfig: skipVectorization(),
	}
}

// textArray is a text-array property excluded from the vector.
func textArray(name, description string) *models.Property {
	filterable := true
	return &models.Property{
		Name:            name,
		DataType:        []string{"text[]"},
		Description:     description,
		IndexFilterable: &filterable,
		ModuleConfig:    skipVectorization(),
	}
}

func skipVectorization() map[string]interface{} {
	return map[string]interface{}{
		vectorizer: map[string]interface{}{"skip": true},
	}
}

func classOf(name, description string, properties []*models.Property) *models.Class {
	return &models.Class{
		Class:       name,
		Description: description,
		Vectorizer:  vectorizer,
		ModuleConfig: map[string]interface{}{
			vectorizer: map[string]interface{}{"vectorizeClassName": false},
		},
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexTimestamps: true},
		Properties:          properties,
	}
}

// CodeChunkSchema describes one parsed logical unit of code.
func CodeChunkSchema() *models.Class {
	return classOf(ClassCodeChunk, "Parsed functions, classes, components, hooks, services, and migrations", []*models.Property{
		searchableText("name", "Symbol name"),
		searchableText("content", "Full source text of the chunk"),
		filterableText("filePath", "Project-relative file path"),
		filterableText("project", "Project isolation key"),
		filterableText("chunkType", "function, class, component, hook, service, migration"),
		filterableText("language", "Source language"),
		plainProp("lineStart", "int", "First line of the chunk"),
		plainProp("lineEnd", "int", "Last line of the chunk"),
		plainProp("lineCount", "int", "lineEnd - lineStart + 1"),
		searchableText("signature", "Declared signature"),
		searchableText("jsDoc", "Preceding doc comment"),
		textArray("imports", "Import specifiers as written"),
		textArray("dependencies", "Resolved project-relative import paths"),
		textArray("usedTypes", "Referenced type names"),
		plainProp("isExported", "boolean", "Whether the symbol is exported"),
		plainProp("isAsync", "boolean", "Whether the symbol is async"),
		plainProp("complexity", "int", "Complexity estimate"),
		plainProp("lastModified", "date", "Last modification time"),
		filterableText("gitCommit", "Commit the chunk was indexed at"),
	})
}

// DocChunkSchema describes a documentation fragment.
func DocChunkSchema() *models.Class {
	return classOf(ClassDocChunk, "Documentation fragments", []*models.Property{
		searchableText("content", "Documentation text"),
		filterableText("filePath", "Project-relative file path"),
		filterableText("project", "Project isolation key"),
		searchableText("heading", "Nearest heading"),
	})
}

// TypeDefinitionSchema describes an interface, alias, enum, or const-type.
func TypeDefinitionSchema() *models.Class {
	return classOf(ClassTypeDefinition, "Interfaces, type aliases, enums, and const-types", []*models.Property{
		searchableText("name", "Type name"),
		searchableText("content", "Full declaration text"),
		filterableText("filePath", "Project-relative file path"),
		filterableText("project", "Project isolation key"),
		filterableText("typeKind", "interface, type, enum, const"),
		textArray("properties", "Property names"),
		textArray("extendsTypes", "Extended type names"),
		searchableText("jsDoc", "Preceding doc comment"),
		plainProp("isExported", "boolean", "Whether the type is exported"),
		plainProp("fromDatabase", "boolean", "Path-heuristic: defined near the data layer"),
	})
}

// FileMetadataSchema describes per-file bookkeeping written by the feeder.
func FileMetadataSchema() *models.Class {
	return classOf(ClassFileMetadata, "Per-file index bookkeeping", []*models.Property{
		filterableText("filePath", "Project-relative file path"),
		filterableText("project", "Project isolation key"),
		plainProp("chunkCount", "int", "Number of chunks indexed for the file"),
		plainProp("lastIndexed", "date", "When the file was last indexed"),
		filterableText("contentHash", "Hash of the file content at index time"),
	})
}

// ConversationMemorySchema describes a saved agent-session summary.
func ConversationMemorySchema() *models.Class {
	return classOf(ClassConversationMemory, "Summaries of prior agent sessions", []*models.Property{
		filterableText("sessionId", "Session identifier"),
		searchableText("summary", "Session summary"),
		textArray("decisions", "Decisions made during the session"),
		textArray("filesModified", "Files touched during the session"),
		filterableText("project", "Project isolation key, or general"),
		textArray("topics", "Topics covered"),
		plainProp("timestamp", "date", "When the session ended"),
		filterableText("agentType", "Agent that produced the session"),
		filterableText("model", "Model that produced the session"),
		filterableText("taskType", "Kind of task performed"),
		plainProp("cost", "number", "Session cost"),
		plainProp("inputTokens", "int", "Input tokens consumed"),
		plainProp("outputTokens", "int", "Output tokens produced"),
		filterableText("parentSessionId", "Parent session, if resumed"),
	})
}

// EnsureSchema creates every collection the service needs if it does not
// already exist. Idempotent.
//
// Inputs:
//
//	ctx - Context for cancellation
//	client - Weaviate client
//
// Outputs:
//
//	error - Non-nil if any class creation fails
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	for _, class := range []*models.Class{
		CodeChunkSchema(),
		DocChunkSchema(),
		TypeDefinitionSchema(),
		FileMetadataSchema(),
		ConversationMemorySchema(),
	} {
		if _, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx); err == nil {
			continue
		}
		slog.Info("Creating schema class", "class", class.Class)
		if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			return fmt.Errorf("creating %s schema: %w", class.Class, err)
		}
	}
	return nil
}
