package inference

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"stroke-risk-api/internal/encoder"
	"stroke-risk-api/internal/features"
	"stroke-risk-api/internal/model"
	"stroke-risk-api/internal/util"
)

// Pipeline validates, transforms and scores prediction requests. It is
// immutable once built and safe for concurrent use.
type Pipeline struct {
	schema        *features.Schema
	validator     *features.Validator
	transformer   *features.Transformer
	encoder       *encoder.Binary
	model         model.Classifier
	referenceRows int
}

// ModelInfo describes the loaded model and the fitted encoder.
type ModelInfo struct {
	ModelType     string
	Classes       [2]int
	Columns       []string
	Numerical     []string
	Categorical   []string
	Codes         map[string][]encoder.Code
	UnknownPolicy encoder.UnknownPolicy
	ReferenceRows int
}

// New assembles a pipeline and checks that the model expects exactly the
// columns the transformer produces.
func New(schema *features.Schema, clf model.Classifier, enc *encoder.Binary, referenceRows int) (*Pipeline, error) {
	if clf == nil {
		return nil, &StartupError{Stage: StageModel, Err: errors.New("model is nil")}
	}
	validator, err := features.NewValidator(schema)
	if err != nil {
		return nil, &StartupError{Stage: StageSchema, Err: err}
	}
	if enc == nil {
		return nil, &StartupError{Stage: StageEncoder, Err: errors.New("encoder is nil")}
	}
	transformer, err := features.NewTransformer(schema, enc)
	if err != nil {
		return nil, &StartupError{Stage: StageSchema, Err: err}
	}
	if err := checkColumns(clf, transformer.Columns()); err != nil {
		return nil, &StartupError{Stage: StageSchema, Err: err}
	}
	return &Pipeline{
		schema:        schema,
		validator:     validator,
		transformer:   transformer,
		encoder:       enc,
		model:         clf,
		referenceRows: referenceRows,
	}, nil
}

func checkColumns(clf model.Classifier, columns []string) error {
	if clf.NumFeatures() != len(columns) {
		return fmt.Errorf("model expects %d features, encoder produces %d", clf.NumFeatures(), len(columns))
	}
	names := clf.FeatureNames()
	if len(names) == 0 {
		return nil
	}
	for i, name := range names {
		if name != columns[i] {
			return fmt.Errorf("model feature %d is %s, encoder produces %s", i, name, columns[i])
		}
	}
	return nil
}

// Predict scores every record in body. Either all records get a prediction
// or an error is returned.
func (p *Pipeline) Predict(body []byte) ([]Prediction, error) {
	timer := util.StartTimer()

	frame, err := p.validator.Validate(body)
	if err != nil {
		return nil, err
	}
	matrix, err := p.transformer.Transform(frame)
	if err != nil {
		return nil, err
	}
	probs, err := p.model.PredictProba(matrix)
	if err != nil {
		return nil, err
	}
	if len(probs) != len(matrix) {
		return nil, fmt.Errorf("%w: model returned %d results for %d records", model.ErrInference, len(probs), len(matrix))
	}

	logrus.WithFields(logrus.Fields{
		"records":    frame.Len(),
		"elapsed_ms": timer.ElapsedMs(),
	}).Debug("batch scored")
	return Format(probs), nil
}

// Info returns the metadata exposed by the model endpoint.
func (p *Pipeline) Info() ModelInfo {
	codes := make(map[string][]encoder.Code, len(p.schema.Categorical()))
	for _, name := range p.schema.Categorical() {
		codes[name] = p.encoder.Codes(name)
	}
	return ModelInfo{
		ModelType:     p.model.Type(),
		Classes:       p.model.Classes(),
		Columns:       p.transformer.Columns(),
		Numerical:     p.schema.Numerical(),
		Categorical:   p.schema.Categorical(),
		Codes:         codes,
		UnknownPolicy: p.encoder.Policy(),
		ReferenceRows: p.referenceRows,
	}
}
