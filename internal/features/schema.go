package features

import (
	"errors"
	"fmt"
)

// Kind distinguishes numerical from categorical features.
type Kind int

const (
	Numerical Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numerical:
		return "numerical"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Training-time column order of the stroke model.
var (
	strokeNumerical   = []string{"age", "hypertension", "heart_disease", "avg_glucose_level", "bmi"}
	strokeCategorical = []string{"gender", "ever_married", "work_type", "Residence_type", "smoking_status"}
)

// Schema fixes the expected features and the order they were trained in.
type Schema struct {
	numerical   []string
	categorical []string
	kinds       map[string]Kind
}

// NewSchema validates that both feature lists are non-empty, free of
// duplicates and disjoint.
func NewSchema(numerical, categorical []string) (*Schema, error) {
	if len(numerical) == 0 && len(categorical) == 0 {
		return nil, errors.New("schema has no features")
	}
	kinds := make(map[string]Kind, len(numerical)+len(categorical))
	add := func(name string, kind Kind) error {
		if name == "" {
			return errors.New("feature name is empty")
		}
		if existing, ok := kinds[name]; ok {
			return fmt.Errorf("feature %s declared twice (%s and %s)", name, existing, kind)
		}
		kinds[name] = kind
		return nil
	}
	for _, name := range numerical {
		if err := add(name, Numerical); err != nil {
			return nil, err
		}
	}
	for _, name := range categorical {
		if err := add(name, Categorical); err != nil {
			return nil, err
		}
	}
	return &Schema{
		numerical:   append([]string(nil), numerical...),
		categorical: append([]string(nil), categorical...),
		kinds:       kinds,
	}, nil
}

// StrokeSchema returns the schema of the stroke risk model.
func StrokeSchema() *Schema {
	s, err := NewSchema(strokeNumerical, strokeCategorical)
	if err != nil {
		panic(err)
	}
	return s
}

// Numerical returns the numerical features in training order.
func (s *Schema) Numerical() []string {
	return append([]string(nil), s.numerical...)
}

// Categorical returns the categorical features in training order.
func (s *Schema) Categorical() []string {
	return append([]string(nil), s.categorical...)
}

// Expected returns numerical followed by categorical features.
func (s *Schema) Expected() []string {
	out := make([]string, 0, len(s.numerical)+len(s.categorical))
	out = append(out, s.numerical...)
	return append(out, s.categorical...)
}

// Kind reports whether name is a declared feature and of which kind.
func (s *Schema) Kind(name string) (Kind, bool) {
	k, ok := s.kinds[name]
	return k, ok
}
