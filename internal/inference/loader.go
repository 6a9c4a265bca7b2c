package inference

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"stroke-risk-api/internal/dataset"
	"stroke-risk-api/internal/encoder"
	"stroke-risk-api/internal/features"
	"stroke-risk-api/internal/model"
	"stroke-risk-api/internal/util"
)

// Startup stages reported by StartupError.
const (
	StageModel   = "model"
	StageDataset = "dataset"
	StageEncoder = "encoder"
	StageSchema  = "schema"
)

// StartupError is returned when the pipeline cannot be built. The service
// must not start serving after one.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// LoadOptions locates the artifacts the pipeline is built from.
type LoadOptions struct {
	ModelPath     string
	DatasetPath   string
	UnknownPolicy encoder.UnknownPolicy
}

// Load reads the model artifact and reference dataset, fits the encoder and
// assembles the stroke risk pipeline.
func Load(opts LoadOptions) (*Pipeline, error) {
	timer := util.StartTimer()

	clf, err := model.LoadFile(opts.ModelPath)
	if err != nil {
		return nil, &StartupError{Stage: StageModel, Err: err}
	}
	logrus.WithFields(logrus.Fields{
		"path":     opts.ModelPath,
		"type":     clf.Type(),
		"features": clf.NumFeatures(),
	}).Info("model loaded")

	table, err := dataset.Load(opts.DatasetPath)
	if err != nil {
		return nil, &StartupError{Stage: StageDataset, Err: err}
	}

	schema := features.StrokeSchema()
	enc, err := encoder.Fit(table, schema.Categorical(), opts.UnknownPolicy)
	if err != nil {
		return nil, &StartupError{Stage: StageEncoder, Err: err}
	}
	widths := logrus.Fields{}
	for _, name := range enc.Features() {
		widths[name] = enc.Width(name)
	}
	logrus.WithFields(logrus.Fields{
		"path":   opts.DatasetPath,
		"rows":   table.Len(),
		"policy": enc.Policy(),
	}).WithFields(widths).Info("encoder fitted")

	p, err := New(schema, clf, enc, table.Len())
	if err != nil {
		return nil, err
	}
	logrus.WithField("elapsed_ms", timer.ElapsedMs()).Info("pipeline ready")
	return p, nil
}
