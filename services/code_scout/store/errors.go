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
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for store operations. Callers should match with errors.Is.
var (
	// ErrNotFound indicates a lookup for a path or id with no indexed objects.
	ErrNotFound = errors.New("store: not found")

	// ErrSchema indicates a malformed filter or an unknown collection/field.
	// This is a programming error, not a runtime condition.
	ErrSchema = errors.New("store: schema error")

	// ErrTransient indicates a network or timeout failure talking to the
	// vector store. Callers may retry; the adapter never retries internally.
	ErrTransient = errors.New("store: transient error")
)

// QueryError wraps a GraphQL-level error returned inside a 200 response.
type QueryError struct {
	Collection string
	Message    string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("store: query on %s failed: %s", e.Collection, e.Message)
}

// Unwrap classifies GraphQL errors: unknown class/property messages are
// schema bugs, everything else is treated as transient.
func (e *QueryError) Unwrap() error {
	if isSchemaMessage(e.Message) {
		return ErrSchema
	}
	return ErrTransient
}

// isSchemaMessage reports whether a Weaviate error message indicates a
// schema problem rather than a transport problem.
func isSchemaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{
		"no such prop",
		"unknown class",
		"could not find class",
		"invalid filter",
		"not found in schema",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
