package profile

import (
	"sort"

	"github.com/montanaflynn/stats"

	"tone_server/core/domain"
)

// encode builds the clustering matrix: the standardized readability column
// (when any record has one) followed by one-hot blocks for every categorical
// axis over its sorted observed values. Missing readability is imputed with
// the mean, which standardizes to 0; a missing category is an all-zero block.
func encode(records []domain.ToneAxes) [][]float64 {
	n := len(records)
	rows := make([][]float64, n)

	var readability []float64
	for _, r := range records {
		if r.Readability != nil {
			readability = append(readability, *r.Readability)
		}
	}
	includeReadability := len(readability) > 0

	var mean, std float64
	if includeReadability {
		mean, _ = stats.Mean(readability)
		std, _ = stats.StandardDeviationPopulation(readability)
		if std == 0 {
			std = 1
		}
	}

	type block struct {
		axis  domain.Axis
		index map[string]int
	}
	blocks := make([]block, 0, len(domain.CategoricalAxes))
	width := 0
	if includeReadability {
		width = 1
	}
	for _, axis := range domain.CategoricalAxes {
		var values []string
		seen := make(map[string]bool)
		for _, r := range records {
			v := r.Value(axis)
			if v != "" && !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		sort.Strings(values)
		idx := make(map[string]int, len(values))
		for i, v := range values {
			idx[v] = width + i
		}
		blocks = append(blocks, block{axis: axis, index: idx})
		width += len(values)
	}

	for i, r := range records {
		row := make([]float64, width)
		if includeReadability && r.Readability != nil {
			row[0] = (*r.Readability - mean) / std
		}
		for _, b := range blocks {
			if col, ok := b.index[r.Value(b.axis)]; ok {
				row[col] = 1
			}
		}
		rows[i] = row
	}
	return rows
}
