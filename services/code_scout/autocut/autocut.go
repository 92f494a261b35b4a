// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package autocut truncates a ranked result list at the largest score gap
// instead of at a fixed limit, so a query with four strong hits returns
// four results rather than ten.
package autocut

// Default bounds when the caller passes zero values.
const (
	DefaultMaxResults = 10
	DefaultMinResults = 3
)

// absoluteGapFloor caps the significance threshold: a gap of 0.1 is always
// significant regardless of the score at the cut point.
const absoluteGapFloor = 0.1

// relativeGapShare is the fraction of the score at the cut point a gap must
// exceed to be significant.
const relativeGapShare = 0.3

// Metadata reports what the cut did, for response transparency.
type Metadata struct {
	OriginalCount int     `json:"originalCount"`
	KeptCount     int     `json:"keptCount"`
	GapFound      bool    `json:"gapFound"`
	LargestGap    float64 `json:"largestGap"`
}

// Apply truncates a descending score-sorted list at the largest significant
// gap between consecutive scores.
//
// Description:
//
//	Only gaps between positions minResults and maxResults are considered,
//	so the cut never drops below the floor or defers past the ceiling.
//	A gap is significant when it exceeds min(30% of the score at the cut
//	point, 0.1). With no significant gap the first maxResults survive.
//	Tied scores are never split: the cut lands after the last of a run of
//	equal scores.
//
// Inputs:
//
//	scores - Result scores in descending order
//	maxResults - Upper bound on kept results; 0 means 10
//	minResults - Lower bound on kept results; 0 means 3
//
// Outputs:
//
//	int - Number of results to keep
//	Metadata - Original/kept counts, whether a gap fired, largest gap seen
func Apply(scores []float64, maxResults, minResults int) (int, Metadata) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if minResults <= 0 {
		minResults = DefaultMinResults
	}

	meta := Metadata{OriginalCount: len(scores)}
	if len(scores) == 0 {
		return 0, meta
	}
	if len(scores) < minResults {
		meta.KeptCount = len(scores)
		return len(scores), meta
	}

	// Scoreless lists carry no gap signal, keep the floor.
	if scores[0] == 0 {
		keep := minResults
		if keep > len(scores) {
			keep = len(scores)
		}
		meta.KeptCount = keep
		return keep, meta
	}

	window := len(scores)
	if bound := maxResults * 3; window > bound {
		window = bound
	}

	// Largest gap in the eligible cut range [minResults-1, maxResults-1].
	bestIdx := -1
	var bestGap float64
	for i := minResults - 1; i <= maxResults-1 && i+1 < window; i++ {
		gap := scores[i] - scores[i+1]
		if gap > bestGap {
			bestGap = gap
			bestIdx = i
		}
	}
	meta.LargestGap = bestGap

	keep := maxResults
	if keep > len(scores) {
		keep = len(scores)
	}
	if bestIdx >= 0 && significant(bestGap, scores[bestIdx]) {
		meta.GapFound = true
		keep = bestIdx + 1
	}

	// Never split a run of equal scores at the cut.
	for keep < len(scores) && scores[keep] == scores[keep-1] {
		keep++
	}

	meta.KeptCount = keep
	return keep, meta
}

func significant(gap, scoreAtCut float64) bool {
	threshold := relativeGapShare * scoreAtCut
	if threshold > absoluteGapFloor {
		threshold = absoluteGapFloor
	}
	return gap >= threshold && gap > 0
}
