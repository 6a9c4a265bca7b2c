package inference

import "strconv"

// Prediction is the risk split for one record, in percent.
type Prediction struct {
	StrokeRisk   float64
	NoStrokeRisk float64
}

// Format converts class probabilities (index 1 is stroke) into percentages.
func Format(probs [][2]float64) []Prediction {
	out := make([]Prediction, len(probs))
	for i, p := range probs {
		out[i] = Prediction{
			StrokeRisk:   RoundPercent(p[1]),
			NoStrokeRisk: RoundPercent(p[0]),
		}
	}
	return out
}

// RoundPercent scales a probability to percent, rounded to two decimals.
func RoundPercent(p float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(p*100, 'f', 2, 64), 64)
	if err != nil {
		return p * 100
	}
	return v
}
