package forecast

import (
	"fmt"
	"math"
)

// TreeNode is one node of a regression tree. A node with Leaf set is terminal;
// otherwise samples with x[Feature] < Threshold go Left, the rest go Right.
type TreeNode struct {
	Feature   int      `json:"feature" yaml:"feature"`
	Threshold float64  `json:"threshold" yaml:"threshold"`
	Left      int      `json:"left" yaml:"left"`
	Right     int      `json:"right" yaml:"right"`
	Leaf      *float64 `json:"leaf,omitempty" yaml:"leaf,omitempty"`
}

// Tree is stored flat; node 0 is the root and children always follow their parent.
type Tree struct {
	Nodes []TreeNode `json:"nodes" yaml:"nodes"`
}

func (t Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	for i, n := range t.Nodes {
		if n.Leaf != nil {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("%w: node %d uses feature %d of %d", ErrInvalidModel, i, n.Feature, numFeatures)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d has bad children %d/%d", ErrInvalidModel, i, n.Left, n.Right)
		}
	}
	return nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf != nil {
			return *n.Leaf
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// TreeEnsemble is a gradient-boosted regressor: BaseScore plus the leaf value
// reached in every tree. Learning rate is already folded into the leaves.
type TreeEnsemble struct {
	BaseScore   float64 `json:"base_score" yaml:"base_score"`
	NumFeatures int     `json:"num_features" yaml:"num_features"`
	Trees       []Tree  `json:"trees" yaml:"trees"`
}

func (e *TreeEnsemble) Validate() error {
	if e.NumFeatures <= 0 {
		return fmt.Errorf("%w: num_features must be positive", ErrInvalidModel)
	}
	for i, t := range e.Trees {
		if err := t.validate(e.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (e *TreeEnsemble) Predict(x []float64) (float64, error) {
	if len(x) != e.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrInvalidModel, len(x), e.NumFeatures)
	}
	for _, v := range x {
		if math.IsNaN(v) {
			return 0, fmt.Errorf("%w: NaN feature", ErrInvalidModel)
		}
	}
	y := e.BaseScore
	for _, t := range e.Trees {
		y += t.eval(x)
	}
	return y, nil
}

// Bagged averages several independently trained tree ensembles.
type Bagged struct {
	Members []TreeEnsemble `json:"members" yaml:"members"`
}

func (b *Bagged) Validate() error {
	if len(b.Members) == 0 {
		return fmt.Errorf("%w: bagged model has no members", ErrInvalidModel)
	}
	for i := range b.Members {
		if err := b.Members[i].Validate(); err != nil {
			return fmt.Errorf("member %d: %w", i, err)
		}
	}
	return nil
}

func (b *Bagged) Predict(x []float64) (float64, error) {
	if len(b.Members) == 0 {
		return 0, fmt.Errorf("%w: bagged model has no members", ErrInvalidModel)
	}
	var sum float64
	for i := range b.Members {
		y, err := b.Members[i].Predict(x)
		if err != nil {
			return 0, err
		}
		sum += y
	}
	return sum / float64(len(b.Members)), nil
}
