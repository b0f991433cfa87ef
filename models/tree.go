package models

import (
	"math/rand/v2"
	"sort"
)

// node is a single decision node. Leaves have feature -1 and carry the
// learning-rate scaled output in value.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(vec []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if vec[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// split describes the best axis-aligned cut found for a leaf.
type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

// leafState is a growable leaf: the rows it holds, its gradient sums, and
// the best split found for it (nil when the leaf cannot be split).
type leafState struct {
	nodeIdx int
	rows    []int
	best    *split
}

// growTree builds one regression tree leaf-wise: at each step the leaf with
// the highest split gain across the whole frontier is split, until the leaf
// budget is exhausted or no candidate clears the minimum gain.
// Split gains are accumulated into importance, indexed by feature.
func growTree(x [][]float64, grad, hess []float64, rows, features []int, opt *GBTOptions, importance []float64) *tree {
	t := &tree{}
	root := &leafState{nodeIdx: t.addLeaf(rows, grad, hess, opt), rows: rows}
	root.best = bestSplit(x, grad, hess, rows, features, opt)
	frontier := []*leafState{root}

	for leaves := 1; leaves < opt.NumLeaves; leaves++ {
		bestIdx := -1
		for i, leaf := range frontier {
			if leaf.best == nil {
				continue
			}
			if bestIdx < 0 || leaf.best.gain > frontier[bestIdx].best.gain {
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		leaf := frontier[bestIdx]
		sp := leaf.best
		importance[sp.feature] += sp.gain
		leftIdx := t.addLeaf(sp.left, grad, hess, opt)
		rightIdx := t.addLeaf(sp.right, grad, hess, opt)
		t.nodes[leaf.nodeIdx] = node{
			feature:   sp.feature,
			threshold: sp.threshold,
			left:      leftIdx,
			right:     rightIdx,
		}

		left := &leafState{nodeIdx: leftIdx, rows: sp.left}
		left.best = bestSplit(x, grad, hess, sp.left, features, opt)
		right := &leafState{nodeIdx: rightIdx, rows: sp.right}
		right.best = bestSplit(x, grad, hess, sp.right, features, opt)
		frontier[bestIdx] = left
		frontier = append(frontier, right)
	}
	return t
}

func (t *tree) addLeaf(rows []int, grad, hess []float64, opt *GBTOptions) int {
	var g, h float64
	for _, r := range rows {
		g += grad[r]
		h += hess[r]
	}
	t.nodes = append(t.nodes, node{
		feature: -1,
		left:    -1,
		right:   -1,
		value:   opt.LearningRate * leafOutput(g, h, opt),
	})
	return len(t.nodes) - 1
}

// leafOutput is the regularized optimal leaf value -soft(G, alpha)/(H + lambda).
func leafOutput(g, h float64, opt *GBTOptions) float64 {
	num := softThreshold(g, opt.Alpha)
	if num == 0 {
		return 0
	}
	return -num / (h + opt.Lambda)
}

func softThreshold(g, alpha float64) float64 {
	switch {
	case g > alpha:
		return g - alpha
	case g < -alpha:
		return g + alpha
	default:
		return 0
	}
}

func leafScore(g, h float64, opt *GBTOptions) float64 {
	num := softThreshold(g, opt.Alpha)
	return num * num / (h + opt.Lambda)
}

// bestSplit scans every candidate feature for the cut with the highest
// regularized gain, requiring MinDataInLeaf rows on each side. Returns nil
// when no cut clears MinGainToSplit.
func bestSplit(x [][]float64, grad, hess []float64, rows, features []int, opt *GBTOptions) *split {
	if len(rows) < 2*opt.MinDataInLeaf {
		return nil
	}
	var totalG, totalH float64
	for _, r := range rows {
		totalG += grad[r]
		totalH += hess[r]
	}
	parentScore := leafScore(totalG, totalH, opt)

	var best *split
	order := make([]int, len(rows))
	for _, f := range features {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool {
			return x[order[i]][f] < x[order[j]][f]
		})

		var leftG, leftH float64
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			leftG += grad[r]
			leftH += hess[r]
			if i+1 < opt.MinDataInLeaf || len(order)-i-1 < opt.MinDataInLeaf {
				continue
			}
			// ties cannot be separated by a threshold between equal values
			if x[order[i]][f] == x[order[i+1]][f] {
				continue
			}
			gain := 0.5 * (leafScore(leftG, leftH, opt) +
				leafScore(totalG-leftG, totalH-leftH, opt) -
				parentScore)
			if gain <= opt.MinGainToSplit {
				continue
			}
			if best == nil || gain > best.gain {
				best = &split{
					feature:   f,
					threshold: (x[order[i]][f] + x[order[i+1]][f]) / 2,
					gain:      gain,
					left:      append([]int(nil), order[:i+1]...),
					right:     append([]int(nil), order[i+1:]...),
				}
			}
		}
	}
	return best
}

// sampleIndices draws k of n indices without replacement, in ascending
// order for deterministic scans.
func sampleIndices(rng *rand.Rand, n int, fraction float64) []int {
	k := int(fraction * float64(n))
	if k < 1 {
		k = 1
	}
	if k >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := rng.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}
