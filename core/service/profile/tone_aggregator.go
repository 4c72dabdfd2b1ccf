// Package profile aggregates per-email tone axes into a user style profile.
package profile

import (
	"math"
	"sort"

	"tone_server/core/domain"
	"tone_server/pkg/logger"
)

// Aggregator builds UserProfiles. It keeps no state between calls: a profile
// is always a pure function of the full record list.
type Aggregator struct {
	th  domain.Thresholds
	log *logger.Logger
}

func NewAggregator(th domain.Thresholds, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Default()
	}
	return &Aggregator{th: th, log: log}
}

// Aggregate summarizes records into a main profile plus automatically sized
// style clusters. It never fails: an unexpected internal error yields an
// empty profile.
func (a *Aggregator) Aggregate(records []domain.ToneAxes) (p domain.UserProfile) {
	if len(records) == 0 {
		return domain.EmptyUserProfile()
	}

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("[Aggregator.Aggregate] aggregation failed for %d records: %v", len(records), r)
			p = domain.EmptyUserProfile()
		}
	}()

	return domain.UserProfile{
		MainProfile:   AggregateToneAxes(records),
		StyleClusters: a.Cluster(records),
		EmailCount:    len(records),
	}
}

// AggregateToneAxes takes the majority value of each categorical axis (ties go
// to the value seen first) and averages readability over records that have it.
func AggregateToneAxes(records []domain.ToneAxes) domain.AggregatedProfile {
	if len(records) == 0 {
		return domain.AggregatedProfile{}
	}

	p := domain.AggregatedProfile{
		Values:        make(map[domain.Axis]string),
		Distributions: make(map[domain.Axis]map[string]float64),
		EmailCount:    len(records),
	}

	for _, axis := range domain.CategoricalAxes {
		counts, order := tally(records, axis)
		if len(order) == 0 {
			continue
		}

		total := 0
		for _, c := range counts {
			total += c
		}

		majority := order[0]
		dist := make(map[string]float64, len(order))
		for _, v := range order {
			if counts[v] > counts[majority] {
				majority = v
			}
			dist[v] = round(float64(counts[v])/float64(total)*100, 1)
		}
		p.Values[axis] = majority
		p.Distributions[axis] = dist
	}

	var sum float64
	var n int
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		if r.Readability == nil {
			continue
		}
		v := *r.Readability
		sum += v
		n++
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if n > 0 {
		mean := round(sum/float64(n), 2)
		lo, hi = round(lo, 2), round(hi, 2)
		p.Readability, p.ReadabilityMin, p.ReadabilityMax = &mean, &lo, &hi
	}

	return p
}

// Cluster groups records into style clusters sorted by size, largest first.
// Fewer than MinClusterRecords records yields no clusters.
func (a *Aggregator) Cluster(records []domain.ToneAxes) []domain.StyleCluster {
	clusters := []domain.StyleCluster{}
	if len(records) < a.th.MinClusterRecords {
		return clusters
	}

	x := encode(records)
	k := a.chooseK(x)

	res, err := kmeans(x, a.kmeansConfig(k))
	if err != nil {
		a.log.Warn("[Aggregator.Cluster] k-means with k=%d failed: %v", k, err)
		return clusters
	}

	members := make([][]domain.ToneAxes, k)
	for i, label := range res.labels {
		members[label] = append(members[label], records[i])
	}

	for id, group := range members {
		if len(group) == 0 {
			continue
		}
		prof := AggregateToneAxes(group)
		name, desc := nameCluster(prof, a.th)
		clusters = append(clusters, domain.StyleCluster{
			ID:          id,
			Size:        len(group),
			Percentage:  round(float64(len(group))/float64(len(records))*100, 1),
			Profile:     prof,
			Name:        name,
			Description: desc,
			Features:    clusterFeatures(group),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Size > clusters[j].Size
	})
	return clusters
}

// chooseK runs k-means for k=1..min(MaxClusters, N-1) and picks the inertia
// elbow, falling back to DefaultClusters when none is found.
func (a *Aggregator) chooseK(x [][]float64) int {
	n := len(x)
	maxK := min(a.th.MaxClusters, n-1)
	if maxK <= 1 {
		return min(2, n)
	}

	ks := make([]float64, 0, maxK)
	inertias := make([]float64, 0, maxK)
	for k := 1; k <= maxK; k++ {
		res, err := kmeans(x, a.kmeansConfig(k))
		if err != nil {
			a.log.Warn("[Aggregator.chooseK] k-means with k=%d failed: %v", k, err)
			return min(a.th.DefaultClusters, n)
		}
		ks = append(ks, float64(k))
		inertias = append(inertias, res.inertia)
	}

	elbow, err := findElbow(ks, inertias, a.th.ElbowSensitivity)
	if err != nil {
		a.log.Debug("[Aggregator.chooseK] %v, using k=%d", err, a.th.DefaultClusters)
		return min(a.th.DefaultClusters, n)
	}
	return min(int(elbow), n)
}

func (a *Aggregator) kmeansConfig(k int) kmeansConfig {
	return kmeansConfig{
		k:         k,
		seed:      a.th.KMeansSeed,
		nInit:     a.th.KMeansInit,
		maxIter:   a.th.KMeansMaxIter,
		tolerance: a.th.KMeansTolerance,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
