package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TypeDecisionTree identifies a decision tree artifact.
const TypeDecisionTree = "decision_tree"

// ErrInference is wrapped by every error raised while scoring a matrix.
var ErrInference = errors.New("inference error")

// Classifier is a pre-trained binary classifier.
type Classifier interface {
	Type() string
	NumFeatures() int
	// FeatureNames may be empty when the artifact did not record them.
	FeatureNames() []string
	Classes() [2]int
	// PredictProba returns, per row, the negative and positive class probabilities.
	PredictProba(X [][]float64) ([][2]float64, error)
}

// Artifact is the JSON document a model is exported to.
type Artifact struct {
	ModelType    string      `json:"model_type"`
	FeatureNames []string    `json:"feature_names"`
	NFeatures    int         `json:"n_features"`
	Classes      []int       `json:"classes"`
	Tree         *TreeArrays `json:"tree"`
}

// Load decodes an artifact and builds the classifier it describes.
func Load(r io.Reader) (Classifier, error) {
	var artifact Artifact
	if err := json.NewDecoder(r).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	switch strings.TrimSpace(artifact.ModelType) {
	case TypeDecisionTree:
		return newDecisionTree(artifact)
	case "":
		return nil, errors.New("model artifact has no model_type")
	default:
		return nil, fmt.Errorf("unsupported model type %q", artifact.ModelType)
	}
}

// LoadFile reads the artifact stored at path.
func LoadFile(path string) (Classifier, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()
	clf, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clf, nil
}
