package sparse

// Dot returns w·x. Every index of x must be within len(w).
func Dot(w []float64, x Vector) float64 {
	var s float64
	for _, nd := range x {
		if nd.Index == Sentinel {
			break
		}
		s += w[nd.Index-1] * nd.Value
	}
	return s
}

// Axpy performs y += a*x.
func Axpy(a float64, x Vector, y []float64) {
	for _, nd := range x {
		if nd.Index == Sentinel {
			break
		}
		y[nd.Index-1] += a * nd.Value
	}
}

// Nrm2Sq returns the squared Euclidean norm of x.
func Nrm2Sq(x Vector) float64 {
	var s float64
	for _, nd := range x {
		if nd.Index == Sentinel {
			break
		}
		s += nd.Value * nd.Value
	}
	return s
}

// DotBounded is Dot that skips indices beyond len(w), as prediction does for unseen features.
func DotBounded(w []float64, x Vector) float64 {
	n := len(w)
	var s float64
	for _, nd := range x {
		if nd.Index == Sentinel {
			break
		}
		if nd.Index <= n {
			s += w[nd.Index-1] * nd.Value
		}
	}
	return s
}

// DotSparse returns x·y for two index-sorted vectors.
func DotSparse(x, y Vector) float64 {
	var s float64
	i, j := 0, 0
	for i < len(x) && j < len(y) && x[i].Index != Sentinel && y[j].Index != Sentinel {
		switch {
		case x[i].Index == y[j].Index:
			s += x[i].Value * y[j].Value
			i++
			j++
		case x[i].Index > y[j].Index:
			j++
		default:
			i++
		}
	}
	return s
}
