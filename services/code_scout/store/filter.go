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
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
)

// Filter is a small composable filter tree that compiles down to a Weaviate
// where-filter. Only the operators the retrieval pipeline needs are exposed:
// equality, contains-any, less-than on dates, substring match, and AND/OR
// composition.
type Filter struct {
	op       filterOp
	path     string
	str      string
	strs     []string
	date     time.Time
	operands []*Filter
}

type filterOp int

const (
	opEq filterOp = iota
	opContainsAny
	opLtDate
	opLike
	opAnd
	opOr
)

// Eq matches objects whose property equals the given string value.
func Eq(path, value string) *Filter {
	return &Filter{op: opEq, path: path, str: value}
}

// ContainsAny matches objects whose property contains any of the values.
func ContainsAny(path string, values ...string) *Filter {
	return &Filter{op: opContainsAny, path: path, strs: values}
}

// LtDate matches objects whose date property is strictly before t.
func LtDate(path string, t time.Time) *Filter {
	return &Filter{op: opLtDate, path: path, date: t}
}

// Like matches objects whose text property matches the wildcard pattern,
// e.g. "*src/hooks*". Used by the context bundler for path-prefix lookups.
func Like(path, pattern string) *Filter {
	return &Filter{op: opLike, path: path, str: pattern}
}

// And combines filters conjunctively. Nil operands are dropped; a single
// surviving operand is returned as-is.
func And(fs ...*Filter) *Filter {
	return compose(opAnd, fs)
}

// Or combines filters disjunctively.
func Or(fs ...*Filter) *Filter {
	return compose(opOr, fs)
}

func compose(op filterOp, fs []*Filter) *Filter {
	kept := make([]*Filter, 0, len(fs))
	for _, f := range fs {
		if f != nil {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Filter{op: op, operands: kept}
}

// Path returns the property path of a leaf filter, or "" for AND/OR.
func (f *Filter) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// Values returns the string values a leaf filter matches against. Fake
// stores in tests use this to route canned responses.
func (f *Filter) Values() []string {
	if f == nil {
		return nil
	}
	if f.str != "" {
		return []string{f.str}
	}
	return f.strs
}

// Operands returns the children of an AND/OR filter.
func (f *Filter) Operands() []*Filter {
	if f == nil {
		return nil
	}
	return f.operands
}

// build compiles the filter tree into a Weaviate WhereBuilder.
func (f *Filter) build() *filters.WhereBuilder {
	if f == nil {
		return nil
	}
	switch f.op {
	case opEq:
		return filters.Where().
			WithPath([]string{f.path}).
			WithOperator(filters.Equal).
			WithValueString(f.str)
	case opContainsAny:
		return filters.Where().
			WithPath([]string{f.path}).
			WithOperator(filters.ContainsAny).
			WithValueText(f.strs...)
	case opLtDate:
		return filters.Where().
			WithPath([]string{f.path}).
			WithOperator(filters.LessThan).
			WithValueDate(f.date)
	case opLike:
		return filters.Where().
			WithPath([]string{f.path}).
			WithOperator(filters.Like).
			WithValueString(f.str)
	case opAnd, opOr:
		operator := filters.And
		if f.op == opOr {
			operator = filters.Or
		}
		operands := make([]*filters.WhereBuilder, 0, len(f.operands))
		for _, sub := range f.operands {
			if b := sub.build(); b != nil {
				operands = append(operands, b)
			}
		}
		return filters.Where().
			WithOperator(operator).
			WithOperands(operands)
	}
	return nil
}
