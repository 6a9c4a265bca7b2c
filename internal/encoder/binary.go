package encoder

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// UnknownPolicy selects how values never seen during fitting are encoded.
type UnknownPolicy string

const (
	// PolicyZero encodes unseen values as the all-zero code.
	PolicyZero UnknownPolicy = "zero"
	// PolicyReject fails the transform with an UnknownCategoryError.
	PolicyReject UnknownPolicy = "reject"
)

// ParsePolicy converts a configuration string into an UnknownPolicy.
func ParsePolicy(value string) (UnknownPolicy, error) {
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyZero:
		return PolicyZero, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown category policy %q (want %q or %q)", value, PolicyZero, PolicyReject)
	}
}

// Value is a single categorical observation.
type Value struct {
	Text    string
	Missing bool
}

// Source supplies categorical columns to fit against.
type Source interface {
	Values(column string) ([]Value, error)
}

// UnknownCategoryError reports a value that was not present in the reference data.
type UnknownCategoryError struct {
	Feature string
	Value   string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for %s", e.Value, e.Feature)
}

// Code is one row of a fitted feature's lookup table.
type Code struct {
	Value   string `json:"value"`
	Missing bool   `json:"missing,omitempty"`
	Ordinal int    `json:"ordinal"`
	Bits    []int  `json:"bits"`
}

type mapping struct {
	feature  string
	values   []string
	ordinals map[string]int
	// missing is the ordinal assigned to missing cells seen during fit, 0 if none were seen.
	missing int
	width   int
}

// Binary is a fitted binary encoder. It is immutable after Fit returns.
type Binary struct {
	features []string
	mappings map[string]*mapping
	columns  []string
	policy   UnknownPolicy
}

// Fit builds the lookup tables for the given categorical features. Distinct
// values receive ordinals 1..k in order of first appearance; each ordinal is
// written in base two, most significant bit first, over ceil(log2(k))+1 columns.
func Fit(src Source, features []string, policy UnknownPolicy) (*Binary, error) {
	if src == nil {
		return nil, errors.New("encoder source is nil")
	}
	if len(features) == 0 {
		return nil, errors.New("no categorical features to fit")
	}
	if policy == "" {
		policy = PolicyZero
	}
	if policy != PolicyZero && policy != PolicyReject {
		return nil, fmt.Errorf("unsupported unknown category policy %q", policy)
	}

	b := &Binary{
		features: append([]string(nil), features...),
		mappings: make(map[string]*mapping, len(features)),
		policy:   policy,
	}
	for _, feature := range features {
		if _, dup := b.mappings[feature]; dup {
			return nil, fmt.Errorf("feature %s listed twice", feature)
		}
		values, err := src.Values(feature)
		if err != nil {
			return nil, fmt.Errorf("fit %s: %w", feature, err)
		}
		m := fitColumn(feature, values)
		if len(m.values) == 0 && m.missing == 0 {
			return nil, fmt.Errorf("fit %s: column has no values", feature)
		}
		b.mappings[feature] = m
		for i := 0; i < m.width; i++ {
			b.columns = append(b.columns, fmt.Sprintf("%s_%d", feature, i))
		}
	}
	return b, nil
}

func fitColumn(feature string, values []Value) *mapping {
	m := &mapping{feature: feature, ordinals: make(map[string]int)}
	next := 1
	for _, v := range values {
		if v.Missing {
			if m.missing == 0 {
				m.missing = next
				next++
			}
			continue
		}
		if _, ok := m.ordinals[v.Text]; ok {
			continue
		}
		m.ordinals[v.Text] = next
		m.values = append(m.values, v.Text)
		next++
	}
	m.width = requiredDigits(next - 1)
	return m
}

func requiredDigits(categories int) int {
	if categories <= 0 {
		return 0
	}
	return bits.Len(uint(categories-1)) + 1
}

func writeBits(dst []float64, ordinal, width int) []float64 {
	for i := width - 1; i >= 0; i-- {
		if ordinal > 0 && ordinal&(1<<uint(i)) != 0 {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}

// Features returns the fitted feature names in output order.
func (b *Binary) Features() []string {
	return append([]string(nil), b.features...)
}

// Columns returns the output column names, e.g. gender_0, gender_1.
func (b *Binary) Columns() []string {
	return append([]string(nil), b.columns...)
}

// Policy reports the unknown category policy the encoder was fit with.
func (b *Binary) Policy() UnknownPolicy {
	return b.policy
}

// Width returns the number of output columns for feature, 0 if it was not fitted.
func (b *Binary) Width(feature string) int {
	m, ok := b.mappings[feature]
	if !ok {
		return 0
	}
	return m.width
}

// Encode appends the code for v to dst.
func (b *Binary) Encode(dst []float64, feature string, v Value) ([]float64, error) {
	m, ok := b.mappings[feature]
	if !ok {
		return dst, fmt.Errorf("feature %s was not fitted", feature)
	}
	if v.Missing {
		return writeBits(dst, m.missing, m.width), nil
	}
	ordinal, ok := m.ordinals[v.Text]
	if !ok && b.policy == PolicyReject {
		return dst, &UnknownCategoryError{Feature: feature, Value: v.Text}
	}
	return writeBits(dst, ordinal, m.width), nil
}

// Codes returns the lookup table for feature in ordinal order.
func (b *Binary) Codes(feature string) []Code {
	m, ok := b.mappings[feature]
	if !ok {
		return nil
	}
	codes := make([]Code, 0, len(m.values)+1)
	total := len(m.values)
	if m.missing > 0 {
		total++
	}
	pos := 0
	for ordinal := 1; ordinal <= total; ordinal++ {
		code := Code{Ordinal: ordinal, Bits: toInts(writeBits(nil, ordinal, m.width))}
		if ordinal == m.missing {
			code.Missing = true
		} else {
			code.Value = m.values[pos]
			pos++
		}
		codes = append(codes, code)
	}
	return codes
}

func toInts(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
