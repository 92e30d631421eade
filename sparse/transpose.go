package sparse

// Transpose returns a column-major copy with its own arena: X holds N column
// vectors whose node indices are 1-based row numbers. L, N, Bias and Y are kept.
func (p *Problem) Transpose() *Problem {
	colPtr := make([]int, p.N+1)
	nnz := 0
	for _, row := range p.X {
		for _, nd := range row {
			if nd.Index == Sentinel {
				break
			}
			nnz++
			colPtr[nd.Index]++
		}
	}
	for j := 1; j <= p.N; j++ {
		colPtr[j] += colPtr[j-1] + 1
	}

	space := make([]Node, nnz+p.N)
	cur := make([]int, p.N)
	copy(cur, colPtr[:p.N])
	for i, row := range p.X {
		for _, nd := range row {
			if nd.Index == Sentinel {
				break
			}
			k := nd.Index - 1
			space[cur[k]] = Node{Index: i + 1, Value: nd.Value}
			cur[k]++
		}
	}

	cols := &Problem{
		L:     p.L,
		N:     p.N,
		Bias:  p.Bias,
		Y:     append([]float64(nil), p.Y...),
		X:     make([]Vector, p.N),
		space: space,
	}
	for j := 0; j < p.N; j++ {
		space[cur[j]] = Node{Index: Sentinel}
		cols.X[j] = space[colPtr[j] : cur[j]+1 : cur[j]+1]
	}
	return cols
}
