package profile

import (
	"errors"
	"math"
)

var errNoElbow = errors.New("no elbow found")

// findElbow locates the knee of a convex, decreasing curve (inertia against k)
// with the Kneedle method and returns the x value at the knee.
func findElbow(x, y []float64, sensitivity float64) (float64, error) {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0, errNoElbow
	}

	xn, err := normalize(x)
	if err != nil {
		return 0, err
	}
	yn, err := normalize(y)
	if err != nil {
		return 0, err
	}

	// Convex decreasing: flip y so the knee becomes a local maximum of y - x.
	yMax := yn[0]
	for _, v := range yn {
		yMax = math.Max(yMax, v)
	}
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = (yMax - yn[i]) - xn[i]
	}

	maxima := relativeExtrema(diff, func(a, b float64) bool { return a >= b })
	minima := relativeExtrema(diff, func(a, b float64) bool { return a <= b })
	if len(maxima) == 0 {
		return 0, errNoElbow
	}

	step := 0.0
	for i := 1; i < n; i++ {
		step += xn[i] - xn[i-1]
	}
	step = math.Abs(step / float64(n-1))

	isMax := make(map[int]int, len(maxima))
	for pos, idx := range maxima {
		isMax[idx] = pos
	}
	isMin := make(map[int]bool, len(minima))
	for _, idx := range minima {
		isMin[idx] = true
	}

	threshold, thresholdIdx := 0.0, 0
	for i := maxima[0]; i < n-1; i++ {
		if xn[i] == 1.0 {
			break
		}
		if pos, ok := isMax[i]; ok {
			threshold = diff[maxima[pos]] - sensitivity*step
			thresholdIdx = i
		}
		if isMin[i] {
			threshold = 0
		}
		if diff[i+1] < threshold {
			return x[thresholdIdx], nil
		}
	}
	return 0, errNoElbow
}

func normalize(v []float64) ([]float64, error) {
	lo, hi := v[0], v[0]
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, errNoElbow
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		return nil, errNoElbow
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - lo) / (hi - lo)
	}
	return out, nil
}

// relativeExtrema returns the indices whose value satisfies cmp against both
// neighbours, with edges compared against themselves.
func relativeExtrema(v []float64, cmp func(a, b float64) bool) []int {
	var out []int
	last := len(v) - 1
	for i := range v {
		prev, next := i-1, i+1
		if prev < 0 {
			prev = 0
		}
		if next > last {
			next = last
		}
		if cmp(v[i], v[prev]) && cmp(v[i], v[next]) {
			out = append(out, i)
		}
	}
	return out
}
