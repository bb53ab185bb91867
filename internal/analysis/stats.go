package analysis

import (
	"math"
	"sort"
)

// outlierZ is the robust z-score cut-off used for NumericStats.Outliers.
const outlierZ = 3.5

func numericStats(rows []Row, name string) *NumericStats {
	var (
		n    int
		mean float64
		m2   float64
		vals []float64
	)
	st := &NumericStats{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, r := range rows {
		x, ok := toFloat(r[name])
		if !ok {
			continue
		}
		// Welford update
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
		st.Min = math.Min(st.Min, x)
		st.Max = math.Max(st.Max, x)
		vals = append(vals, x)
	}
	if n == 0 {
		return nil
	}
	st.Mean = mean
	if n > 1 {
		st.Std = math.Sqrt(m2 / float64(n-1))
	}
	med, mad := medianMAD(vals)
	if mad > 0 {
		for _, v := range vals {
			if math.Abs(0.6745*(v-med)/mad) > outlierZ {
				st.Outliers++
			}
		}
	}
	return st
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, quantile(dev, 0.5)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
