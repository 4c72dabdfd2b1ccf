package profile

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"tone_server/core/domain"
)

// clusterFeatures computes the per-cluster distribution statistics.
func clusterFeatures(members []domain.ToneAxes) domain.ClusterFeatures {
	var f domain.ClusterFeatures
	if len(members) == 0 {
		return f
	}

	f.ReadabilityStats = readabilityStats(members)

	for _, axis := range domain.PatternAxes {
		if p := axisPattern(members, axis); p != nil {
			f.SetPattern(axis, p)
		}
	}

	f.EmotionDirectness = crossTab(members, domain.AxisEmotion, domain.AxisDirectness)
	return f
}

func readabilityStats(members []domain.ToneAxes) *domain.ReadabilityStats {
	var values []float64
	for _, m := range members {
		if m.Readability != nil {
			values = append(values, *m.Readability)
		}
	}
	if len(values) == 0 {
		return nil
	}

	rs := &domain.ReadabilityStats{}
	rs.Mean, _ = stats.Mean(values)
	rs.Median, _ = stats.Median(values)
	if len(values) > 1 {
		rs.StdDev, _ = stats.StandardDeviationSample(values)
		rs.Variance, _ = stats.SampleVariance(values)
		lo, _ := stats.Min(values)
		hi, _ := stats.Max(values)
		rs.Range = hi - lo
	}
	rs.Quartiles = [3]float64{
		quantile(values, 0.25),
		quantile(values, 0.5),
		quantile(values, 0.75),
	}
	return rs
}

// quantile interpolates linearly between closest ranks, the same rule
// numpy and pandas apply by default.
func quantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// axisPattern returns the fractional value distribution of an axis, or nil
// when no member has a value.
func axisPattern(members []domain.ToneAxes, axis domain.Axis) *domain.AxisPattern {
	counts, order := tally(members, axis)
	if len(order) == 0 {
		return nil
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	p := &domain.AxisPattern{Distribution: make(map[string]float64, len(order))}
	for _, v := range order {
		frac := float64(counts[v]) / float64(total)
		p.Distribution[v] = frac
		if p.MostCommon == "" || counts[v] > counts[p.MostCommon] {
			p.MostCommon = v
			p.Frequency = frac
		}
	}
	return p
}

// crossTab counts rowAxis x colAxis over members having both values and
// normalizes each row to sum to 1.
func crossTab(members []domain.ToneAxes, rowAxis, colAxis domain.Axis) map[string]map[string]float64 {
	counts := make(map[string]map[string]int)
	rowTotals := make(map[string]int)
	for _, m := range members {
		r, c := m.Value(rowAxis), m.Value(colAxis)
		if r == "" || c == "" {
			continue
		}
		if counts[r] == nil {
			counts[r] = make(map[string]int)
		}
		counts[r][c]++
		rowTotals[r]++
	}
	if len(counts) == 0 {
		return nil
	}

	cols := make(map[string]bool)
	for _, row := range counts {
		for c := range row {
			cols[c] = true
		}
	}

	out := make(map[string]map[string]float64, len(counts))
	for r, row := range counts {
		out[r] = make(map[string]float64, len(cols))
		for c := range cols {
			out[r][c] = float64(row[c]) / float64(rowTotals[r])
		}
	}
	return out
}

// tally counts the non-empty values of an axis in first-seen order.
func tally(records []domain.ToneAxes, axis domain.Axis) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		v := r.Value(axis)
		if v == "" {
			continue
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	return counts, order
}

const (
	nameUltraHighReadability = "Ultra High Readability Informal"
	nameHighReadability      = "High Readability Informal"
	nameFormalBusiness       = "Formal Business Style"
	nameInformalDirect       = "Informal Direct Style"
)

var clusterDescriptions = map[string]string{
	nameUltraHighReadability: "Extremely high readability informal communication. No greetings, includes emojis, and uses neutral, objective language. Stands out for exceptionally high readability scores.",
	nameHighReadability:      "Highly readable informal style with emoji usage. No greetings, avoids passive voice, and maintains an objective, neutral tone. Features higher than average readability.",
	nameFormalBusiness:       "Professional, structured writing with formal tone. Almost always includes greetings, often uses passive voice, and avoids emoji use. Suitable for business and official communications.",
	nameInformalDirect:       "Casual, conversational tone without formalities. Typically doesn't use passive voice and may skip greetings. Prefers direct communication with normal readability.",
}

// nameCluster labels a cluster from its aggregated profile. Missing readability counts as 0.
func nameCluster(p domain.AggregatedProfile, th domain.Thresholds) (name, description string) {
	readability := 0.0
	if p.Readability != nil {
		readability = *p.Readability
	}

	switch {
	case readability > th.UltraHighReadability:
		name = nameUltraHighReadability
	case readability > th.HighReadability:
		name = nameHighReadability
	case p.Value(domain.AxisFormality) == domain.Formal || p.Value(domain.AxisPassiveVoice) == domain.Present:
		name = nameFormalBusiness
	default:
		name = nameInformalDirect
	}
	return name, clusterDescriptions[name]
}
