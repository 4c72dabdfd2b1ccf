package profile

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

type kmeansConfig struct {
	k         int
	seed      uint64
	nInit     int
	maxIter   int
	tolerance float64
}

type kmeansResult struct {
	labels  []int
	centers [][]float64
	inertia float64
}

// kmeans runs k-means++ seeded Lloyd iterations nInit times and keeps the
// run with the lowest inertia. The same seed always gives the same labels.
func kmeans(x [][]float64, cfg kmeansConfig) (*kmeansResult, error) {
	if len(x) == 0 {
		return nil, errors.New("kmeans: no samples")
	}
	if cfg.k < 1 || cfg.k > len(x) {
		return nil, errors.New("kmeans: k out of range")
	}
	if cfg.nInit < 1 {
		cfg.nInit = 1
	}

	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed))
	tol := cfg.tolerance * meanVariance(x)

	var best *kmeansResult
	for run := 0; run < cfg.nInit; run++ {
		res := lloyd(x, initCenters(x, cfg.k, rng), cfg.maxIter, tol)
		if best == nil || res.inertia < best.inertia {
			best = res
		}
	}
	return best, nil
}

// initCenters picks k centers with k-means++ weighting.
func initCenters(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(x[rng.IntN(len(x))]))

	d2 := make([]float64, len(x))
	for len(centers) < k {
		for i, p := range x {
			d2[i] = math.Inf(1)
			for _, c := range centers {
				if d := sqDist(p, c); d < d2[i] {
					d2[i] = d
				}
			}
		}

		total := floats.Sum(d2)
		if total == 0 {
			centers = append(centers, clone(x[rng.IntN(len(x))]))
			continue
		}

		target := rng.Float64() * total
		pick := len(x) - 1
		for i, d := range d2 {
			target -= d
			if target < 0 {
				pick = i
				break
			}
		}
		centers = append(centers, clone(x[pick]))
	}
	return centers
}

func lloyd(x [][]float64, centers [][]float64, maxIter int, tol float64) *kmeansResult {
	k := len(centers)
	dim := len(x[0])
	labels := make([]int, len(x))

	for iter := 0; iter < maxIter; iter++ {
		assign(x, centers, labels)

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range x {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(centers[c], sums[c])
			centers[c] = sums[c]
		}
		if shift <= tol {
			break
		}
	}

	inertia := assign(x, centers, labels)
	return &kmeansResult{labels: labels, centers: centers, inertia: inertia}
}

// assign labels every sample with its nearest center and returns the inertia.
func assign(x [][]float64, centers [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range x {
		best, bestDist := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
		inertia += bestDist
	}
	return inertia
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// meanVariance is the mean of the per-column population variances.
func meanVariance(x [][]float64) float64 {
	dim := len(x[0])
	if dim == 0 {
		return 0
	}
	n := float64(len(x))
	total := 0.0
	col := make([]float64, len(x))
	for j := 0; j < dim; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean := floats.Sum(col) / n
		for _, v := range col {
			total += (v - mean) * (v - mean)
		}
	}
	return total / n / float64(dim)
}
