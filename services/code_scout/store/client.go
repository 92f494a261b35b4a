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
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// DefaultStoreURL is used when STORE_URL is not set.
const DefaultStoreURL = "http://localhost:8080"

var (
	sharedOnce    sync.Once
	sharedAdapter *Weaviate
	sharedErr     error
)

// Shared returns the process-wide store adapter, constructing it on first
// use from the STORE_URL environment variable.
//
// Description:
//
//	The underlying HTTP client carries a connection pool and is safe for
//	concurrent callers; all searches in the process share it. Construction
//	errors are sticky: every subsequent call returns the same error.
//
// Outputs:
//
//	*Weaviate - The shared adapter
//	error - Non-nil if STORE_URL cannot be parsed
func Shared() (*Weaviate, error) {
	sharedOnce.Do(func() {
		storeURL := os.Getenv("STORE_URL")
		if storeURL == "" {
			storeURL = DefaultStoreURL
			slog.Warn("STORE_URL not set, using default", "url", storeURL)
		}
		sharedAdapter, sharedErr = Connect(storeURL)
	})
	return sharedAdapter, sharedErr
}

// Connect creates a store adapter for the given endpoint URL.
func Connect(storeURL string) (*Weaviate, error) {
	parsed, err := url.Parse(storeURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid store URL %q", storeURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsed.Host,
		Scheme: parsed.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	slog.Info("Store client initialized", "url", storeURL)
	return NewWeaviate(client)
}
