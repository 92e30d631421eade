package linear

import "github.com/YuminosukeSato/golinear/sparse"

// classGroups is the label layout of a classification problem. perm lists the
// example indices grouped by class; class k occupies perm[start[k]:start[k]+count[k]].
type classGroups struct {
	labels []int
	start  []int
	count  []int
	perm   []int
}

func (g *classGroups) nrClass() int { return len(g.labels) }

// groupClasses orders labels by first occurrence, except that a {-1,+1}
// problem where -1 comes first is swapped so +1 is always labels[0].
// Labels are the integer truncation of y.
func groupClasses(prob *sparse.Problem) *classGroups {
	l := prob.L
	var labels, count []int
	pos := make(map[int]int)
	dataLabel := make([]int, l)

	for i := 0; i < l; i++ {
		this := int(prob.Y[i])
		j, ok := pos[this]
		if !ok {
			j = len(labels)
			pos[this] = j
			labels = append(labels, this)
			count = append(count, 0)
		}
		count[j]++
		dataLabel[i] = j
	}

	if len(labels) == 2 && labels[0] == -1 && labels[1] == 1 {
		labels[0], labels[1] = labels[1], labels[0]
		count[0], count[1] = count[1], count[0]
		for i := range dataLabel {
			dataLabel[i] = 1 - dataLabel[i]
		}
	}

	nrClass := len(labels)
	start := make([]int, nrClass)
	for i := 1; i < nrClass; i++ {
		start[i] = start[i-1] + count[i-1]
	}
	perm := make([]int, l)
	next := append([]int(nil), start...)
	for i := 0; i < l; i++ {
		perm[next[dataLabel[i]]] = i
		next[dataLabel[i]]++
	}

	return &classGroups{labels: labels, start: start, count: count, perm: perm}
}
