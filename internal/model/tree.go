package model

import (
	"errors"
	"fmt"
)

// leaf marks a node without children in the exported tree arrays.
const leaf = -1

// TreeArrays mirrors the parallel node arrays of a fitted decision tree.
type TreeArrays struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// DecisionTree is a binary decision tree classifier.
type DecisionTree struct {
	featureNames []string
	nFeatures    int
	classes      [2]int
	left         []int
	right        []int
	feature      []int
	threshold    []float64
	proba        [][2]float64
}

func newDecisionTree(a Artifact) (*DecisionTree, error) {
	if a.Tree == nil {
		return nil, errors.New("decision tree artifact has no tree")
	}
	if len(a.Classes) != 2 {
		return nil, fmt.Errorf("expected 2 classes, got %d", len(a.Classes))
	}
	tree := a.Tree
	n := len(tree.ChildrenLeft)
	if n == 0 {
		return nil, errors.New("decision tree has no nodes")
	}
	if len(tree.ChildrenRight) != n || len(tree.Feature) != n || len(tree.Threshold) != n || len(tree.Value) != n {
		return nil, fmt.Errorf("tree arrays differ in length (left=%d right=%d feature=%d threshold=%d value=%d)",
			n, len(tree.ChildrenRight), len(tree.Feature), len(tree.Threshold), len(tree.Value))
	}

	nFeatures, err := featureCount(a)
	if err != nil {
		return nil, err
	}

	dt := &DecisionTree{
		featureNames: append([]string(nil), a.FeatureNames...),
		nFeatures:    nFeatures,
		classes:      [2]int{a.Classes[0], a.Classes[1]},
		left:         tree.ChildrenLeft,
		right:        tree.ChildrenRight,
		feature:      tree.Feature,
		threshold:    tree.Threshold,
		proba:        make([][2]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := tree.ChildrenLeft[i], tree.ChildrenRight[i]
		if (l == leaf) != (r == leaf) {
			return nil, fmt.Errorf("node %d has a single child", i)
		}
		if l == leaf {
			p, err := leafProba(i, tree.Value[i])
			if err != nil {
				return nil, err
			}
			dt.proba[i] = p
			continue
		}
		// Children are stored after their parent; this also rules out cycles.
		if l <= i || l >= n || r <= i || r >= n {
			return nil, fmt.Errorf("node %d has out of range children (%d, %d)", i, l, r)
		}
		if f := tree.Feature[i]; f < 0 || f >= nFeatures {
			return nil, fmt.Errorf("node %d splits on feature %d, model has %d features", i, f, nFeatures)
		}
	}
	return dt, nil
}

func featureCount(a Artifact) (int, error) {
	names := len(a.FeatureNames)
	switch {
	case a.NFeatures > 0 && names > 0 && a.NFeatures != names:
		return 0, fmt.Errorf("n_features is %d but %d feature names given", a.NFeatures, names)
	case a.NFeatures > 0:
		return a.NFeatures, nil
	case names > 0:
		return names, nil
	}
	highest := -1
	for i, f := range a.Tree.Feature {
		if a.Tree.ChildrenLeft[i] != leaf && f > highest {
			highest = f
		}
	}
	if highest < 0 {
		return 0, errors.New("cannot infer feature count: no feature names and no splits")
	}
	return highest + 1, nil
}

func leafProba(node int, value []float64) ([2]float64, error) {
	if len(value) != 2 {
		return [2]float64{}, fmt.Errorf("leaf %d has %d class values, expected 2", node, len(value))
	}
	total := value[0] + value[1]
	if value[0] < 0 || value[1] < 0 || total <= 0 {
		return [2]float64{}, fmt.Errorf("leaf %d has invalid class values %v", node, value)
	}
	return [2]float64{value[0] / total, value[1] / total}, nil
}

// Type implements Classifier.
func (dt *DecisionTree) Type() string {
	return TypeDecisionTree
}

// NumFeatures implements Classifier.
func (dt *DecisionTree) NumFeatures() int {
	return dt.nFeatures
}

// FeatureNames implements Classifier.
func (dt *DecisionTree) FeatureNames() []string {
	return append([]string(nil), dt.featureNames...)
}

// Classes implements Classifier.
func (dt *DecisionTree) Classes() [2]int {
	return dt.classes
}

// PredictProba returns the class probabilities of the leaf each row lands in.
// Inputs are compared at float32 precision, like the trainer did.
func (dt *DecisionTree) PredictProba(X [][]float64) ([][2]float64, error) {
	out := make([][2]float64, len(X))
	for i, row := range X {
		if len(row) != dt.nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, but the model expects %d", ErrInference, i, len(row), dt.nFeatures)
		}
		node := 0
		for dt.left[node] != leaf {
			if float64(float32(row[dt.feature[node]])) <= dt.threshold[node] {
				node = dt.left[node]
			} else {
				node = dt.right[node]
			}
		}
		out[i] = dt.proba[node]
	}
	return out, nil
}
