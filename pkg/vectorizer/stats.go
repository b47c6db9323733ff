package vectorizer

import "math"

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func skewness(xs []float64) float64 {
	sd := stddev(xs)
	if sd == 0 {
		return 0
	}
	m := mean(xs)
	var s3 float64
	for _, x := range xs {
		d := (x - m) / sd
		s3 += d * d * d
	}
	return s3 / float64(len(xs))
}

func correlation(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n < 2 {
		return 0
	}
	sx, sy := stddev(xs[:n]), stddev(ys[:n])
	if sx == 0 || sy == 0 {
		return 0
	}
	mx, my := mean(xs[:n]), mean(ys[:n])
	var cov float64
	for i := 0; i < n; i++ {
		cov += (xs[i] - mx) * (ys[i] - my)
	}
	return cov / float64(n) / (sx * sy)
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func signedLog1p(x float64) float64 {
	if x < 0 {
		return -math.Log1p(-x)
	}
	return math.Log1p(x)
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
