// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store adapts the Weaviate vector store to the narrow interface the
// retrieval pipeline needs: hybrid search, pure-vector similarity, filtered
// fetches, aggregation, insert, and delete-by-id.
//
// The adapter performs network I/O on every call and is safe for concurrent
// use. It never retries: transient failures surface as ErrTransient and the
// caller decides.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// Hit is a scored search result. Score semantics depend on the operation:
// hybrid scores are unbounded non-negative relevance values, near-text scores
// are certainties in [0, 1]. Higher is always better.
type Hit struct {
	ID         string
	Properties map[string]interface{}
	Score      float64
}

// Doc is an unscored object returned by filtered fetches.
type Doc struct {
	ID         string
	Properties map[string]interface{}
}

// GroupCount is one bucket of a group-by aggregation.
type GroupCount struct {
	Value string
	Count int
}

// Store is the contract between the retrieval pipeline and the vector store.
//
// Implementations must be safe for concurrent use. Empty result sets are a
// normal success with zero hits, not an error.
type Store interface {
	// HybridSearch blends keyword (alpha=0) and vector (alpha=1) relevance.
	// Results are sorted by descending score; alpha is passed through verbatim.
	HybridSearch(ctx context.Context, collection, query string, alpha float32, filter *Filter, limit int, fields []string) ([]Hit, error)

	// NearText performs pure-vector similarity search. Hit scores are
	// certainties in [0, 1].
	NearText(ctx context.Context, collection, text string, certainty float32, filter *Filter, limit int, fields []string) ([]Hit, error)

	// FilterFetch returns objects matching the filter without scoring.
	FilterFetch(ctx context.Context, collection string, filter *Filter, limit int, fields []string) ([]Doc, error)

	// AggregateCount counts objects in a collection, optionally filtered.
	AggregateCount(ctx context.Context, collection string, filter *Filter) (int, error)

	// AggregateGroupBy buckets a collection by a string property.
	AggregateGroupBy(ctx context.Context, collection, property string) ([]GroupCount, error)

	// Insert creates an object and returns its store-assigned id.
	Insert(ctx context.Context, collection string, properties map[string]interface{}) (string, error)

	// DeleteByID removes an object by its store-assigned id.
	DeleteByID(ctx context.Context, collection, id string) error
}

// Compile-time interface implementation check.
var _ Store = (*Weaviate)(nil)

// Weaviate implements Store over a weaviate-go-client connection.
type Weaviate struct {
	client *weaviate.Client
}

// NewWeaviate wraps an existing Weaviate client.
//
// Description:
//
//	The client is shared process-wide (see Shared); the wrapper itself
//	holds no mutable state and is safe for concurrent use.
//
// Inputs:
//
//	client - Weaviate client. Must not be nil.
//
// Outputs:
//
//	*Weaviate - The adapter
//	error - Non-nil if client is nil
func NewWeaviate(client *weaviate.Client) (*Weaviate, error) {
	if client == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	return &Weaviate{client: client}, nil
}

// Client exposes the underlying Weaviate client for schema management.
func (w *Weaviate) Client() *weaviate.Client {
	return w.client
}

// HybridSearch implements Store.
func (w *Weaviate) HybridSearch(ctx context.Context, collection, query string, alpha float32, filter *Filter, limit int, fields []string) ([]Hit, error) {
	hybrid := w.client.GraphQL().HybridArgumentBuilder().
		WithQuery(query).
		WithAlpha(alpha)

	builder := w.client.GraphQL().Get().
		WithClassName(collection).
		WithFields(queryFields(fields, "_additional { score }")...).
		WithHybrid(hybrid).
		WithLimit(limit)

	if where := filter.build(); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: hybrid search on %s: %v", ErrTransient, collection, err)
	}
	objects, err := extractObjects(result, collection)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(objects))
	for _, props := range objects {
		hits = append(hits, Hit{
			ID:         additionalID(props),
			Properties: props,
			Score:      additionalScore(props),
		})
	}

	// Weaviate returns hybrid results ordered, but the contract here is
	// strict descending order regardless of server version.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	slog.Debug("hybrid search",
		"collection", collection,
		"alpha", alpha,
		"limit", limit,
		"hits", len(hits))
	return hits, nil
}

// NearText implements Store.
func (w *Weaviate) NearText(ctx context.Context, collection, text string, certainty float32, filter *Filter, limit int, fields []string) ([]Hit, error) {
	nearText := w.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{text}).
		WithCertainty(certainty)

	builder := w.client.GraphQL().Get().
		WithClassName(collection).
		WithFields(queryFields(fields, "_additional { id certainty }")...).
		WithNearText(nearText).
		WithLimit(limit)

	if where := filter.build(); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: near-text search on %s: %v", ErrTransient, collection, err)
	}
	objects, err := extractObjects(result, collection)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(objects))
	for _, props := range objects {
		hits = append(hits, Hit{
			ID:         additionalID(props),
			Properties: props,
			Score:      additionalCertainty(props),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// FilterFetch implements Store.
func (w *Weaviate) FilterFetch(ctx context.Context, collection string, filter *Filter, limit int, fields []string) ([]Doc, error) {
	builder := w.client.GraphQL().Get().
		WithClassName(collection).
		WithFields(queryFields(fields, "_additional { id }")...).
		WithLimit(limit)

	if where := filter.build(); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: filter fetch on %s: %v", ErrTransient, collection, err)
	}
	objects, err := extractObjects(result, collection)
	if err != nil {
		return nil, err
	}

	docs := make([]Doc, 0, len(objects))
	for _, props := range objects {
		docs = append(docs, Doc{ID: additionalID(props), Properties: props})
	}
	return docs, nil
}

// AggregateCount implements Store.
func (w *Weaviate) AggregateCount(ctx context.Context, collection string, filter *Filter) (int, error) {
	builder := w.client.GraphQL().Aggregate().
		WithClassName(collection).
		WithFields(graphql.Field{
			Name:   "meta",
			Fields: []graphql.Field{{Name: "count"}},
		})

	if where := filter.build(); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregate count on %s: %v", ErrTransient, collection, err)
	}
	if err := responseError(result, collection); err != nil {
		return 0, err
	}

	groups := aggregateGroups(result, collection)
	if len(groups) == 0 {
		return 0, nil
	}
	meta, _ := groups[0]["meta"].(map[string]interface{})
	return getInt(meta, "count"), nil
}

// AggregateGroupBy implements Store.
func (w *Weaviate) AggregateGroupBy(ctx context.Context, collection, property string) ([]GroupCount, error) {
	result, err := w.client.GraphQL().Aggregate().
		WithClassName(collection).
		WithGroupBy(property).
		WithFields(
			graphql.Field{Name: "groupedBy", Fields: []graphql.Field{{Name: "value"}}},
			graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}},
		).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate group-by on %s: %v", ErrTransient, collection, err)
	}
	if err := responseError(result, collection); err != nil {
		return nil, err
	}

	var counts []GroupCount
	for _, group := range aggregateGroups(result, collection) {
		groupedBy, _ := group["groupedBy"].(map[string]interface{})
		meta, _ := group["meta"].(map[string]interface{})
		counts = append(counts, GroupCount{
			Value: getString(groupedBy, "value"),
			Count: getInt(meta, "count"),
		})
	}
	return counts, nil
}

// Insert implements Store. The id is assigned client-side so the caller
// has it even when the response body is dropped.
func (w *Weaviate) Insert(ctx context.Context, collection string, properties map[string]interface{}) (string, error) {
	id := uuid.NewString()
	_, err := w.client.Data().Creator().
		WithClassName(collection).
		WithID(id).
		WithProperties(properties).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: insert into %s: %v", ErrTransient, collection, err)
	}
	return id, nil
}

// DeleteByID implements Store.
func (w *Weaviate) DeleteByID(ctx context.Context, collection, id string) error {
	err := w.client.Data().Deleter().
		WithClassName(collection).
		WithID(id).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete %s from %s: %v", ErrTransient, id, collection, err)
	}
	return nil
}

// queryFields converts property names plus an _additional selector into
// graphql fields.
func queryFields(fields []string, additional string) []graphql.Field {
	out := make([]graphql.Field, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, graphql.Field{Name: f})
	}
	out = append(out, graphql.Field{Name: additional})
	return out
}

// extractObjects pulls the object property maps for a collection out of a
// GraphQL Get response. Missing data is a normal empty result.
func extractObjects(result *models.GraphQLResponse, collection string) ([]map[string]interface{}, error) {
	if err := responseError(result, collection); err != nil {
		return nil, err
	}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	raw, ok := data[collection].([]interface{})
	if !ok {
		return nil, nil
	}

	objects := make([]map[string]interface{}, 0, len(raw))
	for _, obj := range raw {
		if props, ok := obj.(map[string]interface{}); ok {
			objects = append(objects, props)
		}
	}
	return objects, nil
}

// responseError surfaces GraphQL-level errors carried inside a 200 response.
func responseError(result *models.GraphQLResponse, collection string) error {
	if result == nil {
		return fmt.Errorf("%w: nil response from %s", ErrTransient, collection)
	}
	if len(result.Errors) > 0 {
		return &QueryError{Collection: collection, Message: result.Errors[0].Message}
	}
	return nil
}

// aggregateGroups extracts the per-group maps from an Aggregate response.
func aggregateGroups(result *models.GraphQLResponse, collection string) []map[string]interface{} {
	data, ok := result.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := data[collection].([]interface{})
	if !ok {
		return nil
	}
	groups := make([]map[string]interface{}, 0, len(raw))
	for _, g := range raw {
		if m, ok := g.(map[string]interface{}); ok {
			groups = append(groups, m)
		}
	}
	return groups
}

// additionalID extracts the store-assigned id from _additional.
func additionalID(props map[string]interface{}) string {
	additional, _ := props["_additional"].(map[string]interface{})
	return getString(additional, "id")
}

// additionalScore extracts the hybrid relevance score. Weaviate serialises
// hybrid scores as strings.
func additionalScore(props map[string]interface{}) float64 {
	additional, _ := props["_additional"].(map[string]interface{})
	if additional == nil {
		return 0
	}
	switch v := additional["score"].(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	}
	return 0
}

// additionalCertainty extracts the near-text certainty.
func additionalCertainty(props map[string]interface{}) float64 {
	additional, _ := props["_additional"].(map[string]interface{})
	return getFloat64(additional, "certainty")
}
