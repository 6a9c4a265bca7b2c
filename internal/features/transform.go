package features

import (
	"errors"
	"fmt"

	"stroke-risk-api/internal/encoder"
)

// Encoder is the categorical transform applied by a Transformer.
type Encoder interface {
	Features() []string
	Columns() []string
	Width(feature string) int
	Encode(dst []float64, feature string, v encoder.Value) ([]float64, error)
}

// Transformer turns a validated Frame into the model's feature matrix.
type Transformer struct {
	schema  *Schema
	encoder Encoder
	columns []string
}

// NewTransformer checks that enc was fit on exactly the schema's categorical
// features, in the same order.
func NewTransformer(schema *Schema, enc Encoder) (*Transformer, error) {
	if schema == nil {
		return nil, errors.New("schema is nil")
	}
	if enc == nil {
		return nil, errors.New("encoder is nil")
	}
	fitted := enc.Features()
	if len(fitted) != len(schema.categorical) {
		return nil, fmt.Errorf("encoder fitted on %d features, schema declares %d categorical", len(fitted), len(schema.categorical))
	}
	for i, name := range schema.categorical {
		if fitted[i] != name {
			return nil, fmt.Errorf("encoder feature %d is %s, expected %s", i, fitted[i], name)
		}
	}

	columns := make([]string, 0, len(schema.numerical)+len(enc.Columns()))
	columns = append(columns, schema.numerical...)
	columns = append(columns, enc.Columns()...)
	return &Transformer{schema: schema, encoder: enc, columns: columns}, nil
}

// Columns returns the matrix column names in the order the model was trained on.
func (t *Transformer) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Transform builds one row per record: numerical values followed by the
// binary codes of each categorical feature.
func (t *Transformer) Transform(f *Frame) ([][]float64, error) {
	if f == nil {
		return nil, errors.New("frame is nil")
	}
	matrix := make([][]float64, f.Len())
	for i := range matrix {
		row := make([]float64, 0, len(t.columns))
		for _, name := range t.schema.numerical {
			column := f.Numerical(name)
			if len(column) != f.Len() {
				return nil, fmt.Errorf("numerical column %s has %d values, expected %d", name, len(column), f.Len())
			}
			row = append(row, column[i])
		}
		for _, name := range t.schema.categorical {
			column := f.Categorical(name)
			if len(column) != f.Len() {
				return nil, fmt.Errorf("categorical column %s has %d values, expected %d", name, len(column), f.Len())
			}
			var err error
			row, err = t.encoder.Encode(row, name, column[i])
			if err != nil {
				return nil, err
			}
		}
		matrix[i] = row
	}
	return matrix, nil
}
