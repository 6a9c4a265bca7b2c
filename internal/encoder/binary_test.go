package encoder

import (
	"errors"
	"reflect"
	"testing"
)

type mapSource map[string][]Value

func (m mapSource) Values(column string) ([]Value, error) {
	values, ok := m[column]
	if !ok {
		return nil, errors.New("no such column " + column)
	}
	return values, nil
}

func texts(items ...string) []Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = Value{Text: item}
	}
	return out
}

func TestRequiredDigits(t *testing.T) {
	tests := []struct {
		categories int
		expected   int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 3},
		{5, 4},
		{8, 4},
		{9, 5},
	}
	for _, tc := range tests {
		if got := requiredDigits(tc.categories); got != tc.expected {
			t.Fatalf("categories %d: expected %d digits got %d", tc.categories, tc.expected, got)
		}
	}
}

func TestFitAssignsCodesInFirstAppearanceOrder(t *testing.T) {
	src := mapSource{
		"work_type": texts("Private", "Self-employed", "Private", "Govt_job", "children"),
	}
	enc, err := Fit(src, []string{"work_type"}, PolicyZero)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	if got := enc.Columns(); !reflect.DeepEqual(got, []string{"work_type_0", "work_type_1", "work_type_2"}) {
		t.Fatalf("unexpected columns %v", got)
	}

	tests := []struct {
		value    string
		expected []float64
	}{
		{"Private", []float64{0, 0, 1}},
		{"Self-employed", []float64{0, 1, 0}},
		{"Govt_job", []float64{0, 1, 1}},
		{"children", []float64{1, 0, 0}},
		{"Never_worked", []float64{0, 0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			got, err := enc.Encode(nil, "work_type", Value{Text: tc.value})
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("expected %v got %v", tc.expected, got)
			}
		})
	}
}

func TestEncodeAppendsAcrossFeatures(t *testing.T) {
	src := mapSource{
		"gender":       texts("Male", "Female"),
		"ever_married": texts("Yes", "No", "Yes"),
	}
	enc, err := Fit(src, []string{"gender", "ever_married"}, PolicyZero)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	want := []string{"gender_0", "gender_1", "ever_married_0", "ever_married_1"}
	if got := enc.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}

	row, err := enc.Encode(nil, "gender", Value{Text: "Female"})
	if err != nil {
		t.Fatalf("encode gender: %v", err)
	}
	row, err = enc.Encode(row, "ever_married", Value{Text: "Yes"})
	if err != nil {
		t.Fatalf("encode ever_married: %v", err)
	}
	if !reflect.DeepEqual(row, []float64{1, 0, 0, 1}) {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestSingleCategoryUsesOneColumn(t *testing.T) {
	enc, err := Fit(mapSource{"flag": texts("only", "only")}, []string{"flag"}, PolicyZero)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if enc.Width("flag") != 1 {
		t.Fatalf("expected width 1 got %d", enc.Width("flag"))
	}
	got, _ := enc.Encode(nil, "flag", Value{Text: "only"})
	if !reflect.DeepEqual(got, []float64{1}) {
		t.Fatalf("unexpected code %v", got)
	}
}

func TestMissingValues(t *testing.T) {
	t.Run("missing seen during fit gets its own code", func(t *testing.T) {
		src := mapSource{"smoking_status": {{Text: "smokes"}, {Missing: true}, {Text: "never smoked"}}}
		enc, err := Fit(src, []string{"smoking_status"}, PolicyZero)
		if err != nil {
			t.Fatalf("fit: %v", err)
		}
		got, _ := enc.Encode(nil, "smoking_status", Value{Missing: true})
		if !reflect.DeepEqual(got, []float64{0, 1, 0}) {
			t.Fatalf("unexpected missing code %v", got)
		}
		got, _ = enc.Encode(nil, "smoking_status", Value{Text: "never smoked"})
		if !reflect.DeepEqual(got, []float64{0, 1, 1}) {
			t.Fatalf("unexpected code %v", got)
		}
		codes := enc.Codes("smoking_status")
		if len(codes) != 3 || !codes[1].Missing || codes[2].Value != "never smoked" {
			t.Fatalf("unexpected code table %+v", codes)
		}
	})

	t.Run("missing unseen during fit is zero even when rejecting", func(t *testing.T) {
		enc, err := Fit(mapSource{"gender": texts("Male", "Female")}, []string{"gender"}, PolicyReject)
		if err != nil {
			t.Fatalf("fit: %v", err)
		}
		got, err := enc.Encode(nil, "gender", Value{Missing: true})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if !reflect.DeepEqual(got, []float64{0, 0}) {
			t.Fatalf("unexpected code %v", got)
		}
	})
}

func TestRejectPolicy(t *testing.T) {
	enc, err := Fit(mapSource{"gender": texts("Male", "Female")}, []string{"gender"}, PolicyReject)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	_, err = enc.Encode(nil, "gender", Value{Text: "Other"})
	var unknown *UnknownCategoryError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCategoryError got %v", err)
	}
	if unknown.Feature != "gender" || unknown.Value != "Other" {
		t.Fatalf("unexpected error fields %+v", unknown)
	}
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      Source
		features []string
		policy   UnknownPolicy
	}{
		{"nil source", nil, []string{"gender"}, PolicyZero},
		{"no features", mapSource{}, nil, PolicyZero},
		{"missing column", mapSource{}, []string{"gender"}, PolicyZero},
		{"empty column", mapSource{"gender": nil}, []string{"gender"}, PolicyZero},
		{"duplicate feature", mapSource{"gender": texts("Male")}, []string{"gender", "gender"}, PolicyZero},
		{"bad policy", mapSource{"gender": texts("Male")}, []string{"gender"}, UnknownPolicy("ignore")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Fit(tc.src, tc.features, tc.policy); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in       string
		expected UnknownPolicy
		wantErr  bool
	}{
		{"", PolicyZero, false},
		{"zero", PolicyZero, false},
		{" Reject ", PolicyReject, false},
		{"drop", "", true},
	}
	for _, tc := range tests {
		got, err := ParsePolicy(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.expected {
			t.Fatalf("%q: expected %q got %q", tc.in, tc.expected, got)
		}
	}
}
