package ml

import (
	"cmp"
	"slices"
)

// FeatureImportance is one feature's share of a model's squared-error reduction
type FeatureImportance struct {
	Model      string  `json:"model"`
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TopImportances returns the top n features of a tree model, most important
// first. Models without importances yield nil.
func TopImportances(model Regressor, features []string, n int) []FeatureImportance {
	imp, ok := model.(Importancer)
	if !ok {
		return nil
	}
	values := imp.FeatureImportances()
	out := make([]FeatureImportance, 0, len(values))
	for j, v := range values {
		if j >= len(features) {
			break
		}
		out = append(out, FeatureImportance{Model: model.Name(), Feature: features[j], Importance: v})
	}
	slices.SortStableFunc(out, func(a, b FeatureImportance) int { return cmp.Compare(b.Importance, a.Importance) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
