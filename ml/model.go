package ml

// DelayClassifier is the read-only inference contract the HTTP layer sees.
type DelayClassifier interface {
	Predict(features [][]float64) ([]int, error)
}
