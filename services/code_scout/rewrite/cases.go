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

import "strings"

// PascalCase joins tokens into an identifier with every word capitalised,
// e.g. ["auth", "btn", "click"] -> "AuthBtnClick".
func PascalCase(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(capitalize(tok))
	}
	return b.String()
}

// CamelCase joins tokens into an identifier with the first word lowercase,
// e.g. ["auth", "btn", "click"] -> "authBtnClick".
func CamelCase(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(tokens[0]))
	for _, tok := range tokens[1:] {
		b.WriteString(capitalize(tok))
	}
	return b.String()
}

// SnakeCase joins tokens with underscores, all lowercase.
func SnakeCase(tokens []string) string {
	lowered := make([]string, len(tokens))
	for i, tok := range tokens {
		lowered[i] = strings.ToLower(tok)
	}
	return strings.Join(lowered, "_")
}

// KebabCase joins tokens with hyphens, all lowercase.
func KebabCase(tokens []string) string {
	lowered := make([]string, len(tokens))
	for i, tok := range tokens {
		lowered[i] = strings.ToLower(tok)
	}
	return strings.Join(lowered, "-")
}

// Tokenize splits a query on whitespace and lowercases every token.
func Tokenize(query string) []string {
	fields := strings.Fields(query)
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = strings.ToLower(f)
	}
	return tokens
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
