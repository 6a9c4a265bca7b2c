package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"stroke-risk-api/internal/encoder"
)

// InputsField is the request key holding the batch of records.
const InputsField = "inputs"

// ErrMalformedRequest is returned when the body does not have the expected envelope.
var ErrMalformedRequest = errors.New("malformed request")

// MissingFeatureError lists every required feature absent from the batch.
type MissingFeatureError struct {
	Features []string
}

func (e *MissingFeatureError) Error() string {
	return "missing features: " + strings.Join(e.Features, ", ")
}

// InvalidValueError reports a numerical feature whose value cannot be coerced.
type InvalidValueError struct {
	Feature string
	Record  int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s in record %d", e.Feature, e.Record)
}

var envelopeSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{InputsField},
	"properties": map[string]interface{}{
		InputsField: map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "object"},
		},
	},
}

// maxSchemaErrors bounds how many envelope errors end up in a message.
const maxSchemaErrors = 3

// Frame is a validated batch with one column per expected feature.
type Frame struct {
	rows        int
	numerical   map[string][]float64
	categorical map[string][]encoder.Value
}

// Len returns the number of records.
func (f *Frame) Len() int {
	return f.rows
}

// Numerical returns the coerced values of a numerical column.
func (f *Frame) Numerical(name string) []float64 {
	return f.numerical[name]
}

// Categorical returns the raw values of a categorical column.
func (f *Frame) Categorical(name string) []encoder.Value {
	return f.categorical[name]
}

// Validator checks request bodies against a Schema.
type Validator struct {
	schema   *Schema
	envelope *gojsonschema.Schema
}

// NewValidator compiles the request envelope for schema.
func NewValidator(schema *Schema) (*Validator, error) {
	if schema == nil {
		return nil, errors.New("schema is nil")
	}
	envelope, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &Validator{schema: schema, envelope: envelope}, nil
}

// Validate decodes body and returns the batch as a Frame.
func (v *Validator) Validate(body []byte) (*Frame, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", ErrMalformedRequest)
	}
	result, err := v.envelope.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: request body is not valid JSON", ErrMalformedRequest)
	}
	if !result.Valid() {
		var msgs []string
		for i, desc := range result.Errors() {
			if i == maxSchemaErrors {
				break
			}
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedRequest, strings.Join(msgs, "; "))
	}

	var envelope struct {
		Inputs []map[string]interface{} `json:"inputs"`
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the JSON object", ErrMalformedRequest)
	}
	return v.frame(envelope.Inputs)
}

func (v *Validator) frame(records []map[string]interface{}) (*Frame, error) {
	if missing := v.missingFeatures(records); len(missing) > 0 {
		return nil, &MissingFeatureError{Features: missing}
	}

	f := &Frame{
		rows:        len(records),
		numerical:   make(map[string][]float64, len(v.schema.numerical)),
		categorical: make(map[string][]encoder.Value, len(v.schema.categorical)),
	}
	for _, name := range v.schema.numerical {
		column := make([]float64, len(records))
		for i, record := range records {
			value, ok := toNumber(record[name])
			if !ok {
				return nil, &InvalidValueError{Feature: name, Record: i}
			}
			column[i] = value
		}
		f.numerical[name] = column
	}
	for _, name := range v.schema.categorical {
		column := make([]encoder.Value, len(records))
		for i, record := range records {
			column[i] = toCategory(record[name])
		}
		f.categorical[name] = column
	}
	return f, nil
}

// missingFeatures returns the features absent from at least one record, in
// schema order. An empty batch has no columns, so everything is missing.
func (v *Validator) missingFeatures(records []map[string]interface{}) []string {
	var missing []string
	for _, name := range v.schema.Expected() {
		if len(records) == 0 {
			missing = append(missing, name)
			continue
		}
		for _, record := range records {
			if _, ok := record[name]; !ok {
				missing = append(missing, name)
				break
			}
		}
	}
	return missing
}

func toNumber(raw interface{}) (float64, bool) {
	var (
		value float64
		err   error
	)
	switch x := raw.(type) {
	case json.Number:
		value, err = x.Float64()
	case float64:
		value = x
	case string:
		trimmed := strings.TrimSpace(x)
		if trimmed == "" {
			return 0, false
		}
		value, err = strconv.ParseFloat(trimmed, 64)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func toCategory(raw interface{}) encoder.Value {
	switch x := raw.(type) {
	case nil:
		return encoder.Value{Missing: true}
	case string:
		return encoder.Value{Text: x}
	case json.Number:
		return encoder.Value{Text: x.String()}
	case bool:
		return encoder.Value{Text: strconv.FormatBool(x)}
	default:
		payload, err := json.Marshal(x)
		if err != nil {
			return encoder.Value{Text: fmt.Sprint(x)}
		}
		return encoder.Value{Text: string(payload)}
	}
}
