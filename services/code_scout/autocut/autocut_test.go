// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package autocut

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	t.Run("cuts at a large gap", func(t *testing.T) {
		scores := []float64{0.95, 0.93, 0.91, 0.90, 0.40, 0.38, 0.35}

		keep, meta := Apply(scores, 10, 3)

		assert.Equal(t, 4, keep)
		assert.True(t, meta.GapFound)
		assert.InDelta(t, 0.50, meta.LargestGap, 1e-9)
		assert.Equal(t, 7, meta.OriginalCount)
		assert.Equal(t, 4, meta.KeptCount)
	})

	t.Run("no significant gap keeps maxResults", func(t *testing.T) {
		scores := make([]float64, 20)
		for i := range scores {
			scores[i] = 1.0 - float64(i)*0.01
		}

		keep, meta := Apply(scores, 10, 3)

		assert.Equal(t, 10, keep)
		assert.False(t, meta.GapFound)
	})

	t.Run("empty input", func(t *testing.T) {
		keep, meta := Apply(nil, 10, 3)

		assert.Equal(t, 0, keep)
		assert.False(t, meta.GapFound)
		assert.Equal(t, 0, meta.OriginalCount)
	})

	t.Run("fewer than minResults returns all", func(t *testing.T) {
		keep, meta := Apply([]float64{0.9, 0.2}, 10, 3)

		assert.Equal(t, 2, keep)
		assert.False(t, meta.GapFound)
	})

	t.Run("all-zero scores keep top minResults", func(t *testing.T) {
		keep, _ := Apply([]float64{0, 0, 0, 0, 0, 0}, 10, 3)

		assert.Equal(t, 3, keep)
	})

	t.Run("never cuts above the floor", func(t *testing.T) {
		// The huge gap sits above minResults, so it is out of range.
		scores := []float64{0.9, 0.1, 0.09, 0.08, 0.07}

		keep, _ := Apply(scores, 10, 3)

		assert.GreaterOrEqual(t, keep, 3)
	})

	t.Run("gap below the relative threshold is ignored", func(t *testing.T) {
		// Largest gap 0.02 at score 0.90: needs min(0.27, 0.1) = 0.1.
		scores := []float64{0.95, 0.94, 0.92, 0.90, 0.88, 0.87}

		keep, meta := Apply(scores, 5, 3)

		assert.Equal(t, 5, keep)
		assert.False(t, meta.GapFound)
	})

	t.Run("ties at the cut keep the longer prefix", func(t *testing.T) {
		scores := []float64{0.90, 0.89, 0.88, 0.87, 0.86, 0.85, 0.85, 0.85, 0.85, 0.85, 0.85, 0.85, 0.70}

		keep, _ := Apply(scores, 10, 3)

		// scores[9] == scores[10] == scores[11], never split the 0.85 run.
		assert.Equal(t, 12, keep)
	})

	t.Run("zero bounds fall back to defaults", func(t *testing.T) {
		scores := make([]float64, 40)
		for i := range scores {
			scores[i] = 2.0 - float64(i)*0.001
		}

		keep, _ := Apply(scores, 0, 0)

		assert.Equal(t, DefaultMaxResults, keep)
	})

	t.Run("window is capped at three times maxResults", func(t *testing.T) {
		scores := make([]float64, 100)
		for i := range scores {
			scores[i] = 1.0 - float64(i)*0.001
		}

		keep, meta := Apply(scores, 10, 3)

		assert.Equal(t, 10, keep)
		assert.Equal(t, 100, meta.OriginalCount)
	})

	t.Run("keep count never exceeds input length without ties", func(t *testing.T) {
		keep, _ := Apply([]float64{0.9, 0.8, 0.7}, 10, 3)

		assert.Equal(t, 3, keep)
	})
}
