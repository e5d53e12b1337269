package ml

import (
	"context"
	"slices"
)

const leaf = -1

// minGain ignores splits that only move rounding noise
const minGain = 1e-12

// Node is one node of a regression tree; Feature is -1 for leaves
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a CART regression tree grown on squared error
type Tree struct {
	MaxDepth       int       `json:"max_depth"`
	MinSamplesLeaf int       `json:"min_samples_leaf"`
	Nodes          []Node    `json:"nodes"`
	Gains          []float64 `json:"gains"`
	Features       int       `json:"features"`
}

// NewTree creates a tree with the given depth and leaf size limits
func NewTree(maxDepth, minSamplesLeaf int) *Tree {
	if minSamplesLeaf < 1 {
		minSamplesLeaf = 1
	}
	return &Tree{MaxDepth: maxDepth, MinSamplesLeaf: minSamplesLeaf}
}

// Fit grows the tree on every row
func (t *Tree) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if _, err := checkTraining(X, y); err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fitRows(ctx, X, y, idx)
}

func (t *Tree) fitRows(ctx context.Context, X [][]float64, y []float64, idx []int) error {
	t.Features = len(X[0])
	t.Nodes = t.Nodes[:0]
	t.Gains = make([]float64, t.Features)
	b := &treeBuilder{tree: t, X: X, y: y, ctx: ctx}
	b.grow(idx, 0)
	return b.err
}

// Predict returns the leaf value reached by each row
func (t *Tree) Predict(X [][]float64) ([]float64, error) {
	if len(t.Nodes) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, t.Features); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.predictRow(row)
	}
	return out, nil
}

func (t *Tree) predictRow(row []float64) float64 {
	n := 0
	for t.Nodes[n].Feature != leaf {
		node := t.Nodes[n]
		if row[node.Feature] <= node.Threshold {
			n = node.Left
		} else {
			n = node.Right
		}
	}
	return t.Nodes[n].Value
}

type treeBuilder struct {
	tree *Tree
	X    [][]float64
	y    []float64
	ctx  context.Context
	err  error
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	t := b.tree
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: leaf, Value: sum / float64(len(idx))})

	if b.err != nil {
		return id
	}
	if err := b.ctx.Err(); err != nil {
		b.err = err
		return id
	}
	if depth >= t.MaxDepth || len(idx) < 2*t.MinSamplesLeaf {
		return id
	}

	s, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}
	t.Gains[s.feature] += s.gain
	left := b.grow(s.left, depth+1)
	right := b.grow(s.right, depth+1)
	t.Nodes[id].Feature = s.feature
	t.Nodes[id].Threshold = s.threshold
	t.Nodes[id].Left = left
	t.Nodes[id].Right = right
	return id
}

// bestSplit scans every candidate feature for the threshold with the largest
// reduction of squared error
func (b *treeBuilder) bestSplit(idx []int, total float64) (split, bool) {
	t := b.tree
	n := float64(len(idx))
	parent := total * total / n
	best := split{gain: minGain}
	found := false

	order := slices.Clone(idx)
	for f := 0; f < t.Features; f++ {
		slices.SortFunc(order, func(i, j int) int {
			switch xi, xj := b.X[i][f], b.X[j][f]; {
			case xi < xj:
				return -1
			case xi > xj:
				return 1
			default:
				return 0
			}
		})

		var leftSum float64
		for k := 1; k < len(order); k++ {
			leftSum += b.y[order[k-1]]
			if k < t.MinSamplesLeaf || len(order)-k < t.MinSamplesLeaf {
				continue
			}
			lo, hi := b.X[order[k-1]][f], b.X[order[k]][f]
			if lo == hi {
				continue
			}
			nl, nr := float64(k), n-float64(k)
			rightSum := total - leftSum
			gain := leftSum*leftSum/nl + rightSum*rightSum/nr - parent
			if gain > best.gain {
				best = split{feature: f, threshold: (lo + hi) / 2, gain: gain}
				found = true
			}
		}
	}
	if !found {
		return split{}, false
	}
	for _, i := range idx {
		if b.X[i][best.feature] <= best.threshold {
			best.left = append(best.left, i)
		} else {
			best.right = append(best.right, i)
		}
	}
	return best, true
}

// normalise scales gains so that they sum to one
func normalise(gains []float64) []float64 {
	out := make([]float64, len(gains))
	var total float64
	for _, g := range gains {
		total += g
	}
	if total <= 0 {
		return out
	}
	for i, g := range gains {
		out[i] = g / total
	}
	return out
}

// FeatureImportances implements Importancer
func (t *Tree) FeatureImportances() []float64 {
	return normalise(t.Gains)
}
