package api

import (
	"stroke-risk-api/internal/encoder"
	"stroke-risk-api/internal/inference"
)

// PredictionDTO is the API representation of one record's risk split.
type PredictionDTO struct {
	StrokeRiskPercentage   float64 `json:"stroke_risk_percentage"`
	NoStrokeRiskPercentage float64 `json:"no_stroke_risk_percentage"`
}

// PredictionsResponse is returned by the prediction endpoint.
type PredictionsResponse struct {
	Predictions []PredictionDTO `json:"predictions"`
}

// CategoryCodeDTO is one row of a categorical feature's code table.
type CategoryCodeDTO struct {
	Value   *string `json:"value"`
	Ordinal int     `json:"ordinal"`
	Bits    []int   `json:"bits"`
}

// ModelInfoDTO describes the loaded model and encoder.
type ModelInfoDTO struct {
	ModelType     string                       `json:"model_type"`
	Classes       []int                        `json:"classes"`
	Columns       []string                     `json:"columns"`
	Numerical     []string                     `json:"numerical_features"`
	Categorical   []string                     `json:"categorical_features"`
	Codes         map[string][]CategoryCodeDTO `json:"codes"`
	UnknownPolicy string                       `json:"unknown_policy"`
	ReferenceRows int                          `json:"reference_rows"`
}

func toPredictionDTO(p inference.Prediction) PredictionDTO {
	return PredictionDTO{
		StrokeRiskPercentage:   p.StrokeRisk,
		NoStrokeRiskPercentage: p.NoStrokeRisk,
	}
}

func toModelInfoDTO(info inference.ModelInfo) ModelInfoDTO {
	codes := make(map[string][]CategoryCodeDTO, len(info.Codes))
	for feature, table := range info.Codes {
		rows := make([]CategoryCodeDTO, len(table))
		for i, code := range table {
			rows[i] = toCategoryCodeDTO(code)
		}
		codes[feature] = rows
	}
	return ModelInfoDTO{
		ModelType:     info.ModelType,
		Classes:       info.Classes[:],
		Columns:       info.Columns,
		Numerical:     info.Numerical,
		Categorical:   info.Categorical,
		Codes:         codes,
		UnknownPolicy: string(info.UnknownPolicy),
		ReferenceRows: info.ReferenceRows,
	}
}

// Missing values are reported with a null value.
func toCategoryCodeDTO(code encoder.Code) CategoryCodeDTO {
	dto := CategoryCodeDTO{Ordinal: code.Ordinal, Bits: code.Bits}
	if !code.Missing {
		value := code.Value
		dto.Value = &value
	}
	return dto
}
