package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// LogisticRegression is a binary delay classifier: one weight per one-hot
// column, a bias and a fixed decision threshold. Read-only after Load, so
// any number of requests may call Predict concurrently.
type LogisticRegression struct {
	weights   []float64
	bias      float64
	threshold float64
	columns   []string
}

type logisticArtifact struct {
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Threshold float64   `json:"threshold"`
	Columns   []string  `json:"columns"`
}

// TrainConfig controls the gradient descent fit.
type TrainConfig struct {
	LearningRate float64
	Epochs       int
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.LearningRate <= 0 {
		c.LearningRate = 0.1
	}
	if c.Epochs <= 0 {
		c.Epochs = 500
	}
	return c
}

// Train fits the model with class-weighted logistic loss. The minority class
// gets the heavier weight (w1 = n0/n, w0 = n1/n) so the imbalanced delay
// label does not collapse to the majority prediction.
func (lr *LogisticRegression) Train(features [][]float64, labels []int, columns []string, config TrainConfig) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	width := len(features[0])
	if width == 0 || width != len(columns) {
		return errors.New("feature width and column schema mismatch")
	}

	var n0, n1 float64
	for _, label := range labels {
		if label == 1 {
			n1++
		} else {
			n0++
		}
	}
	total := n0 + n1
	if n0 == 0 || n1 == 0 {
		return errors.New("training data has a single class")
	}
	classWeight := [2]float64{n1 / total, n0 / total}

	config = config.withDefaults()
	weights := make([]float64, width)
	bias := 0.0

	for epoch := 0; epoch < config.Epochs; epoch++ {
		gradW := make([]float64, width)
		gradB := 0.0
		for i, row := range features {
			if len(row) != width {
				return fmt.Errorf("row %d has width %d, want %d", i, len(row), width)
			}
			p := sigmoid(dot(weights, row) + bias)
			residual := (p - float64(labels[i])) * classWeight[labels[i]]
			for j, x := range row {
				gradW[j] += residual * x
			}
			gradB += residual
		}
		scale := config.LearningRate / total
		for j := range weights {
			weights[j] -= scale * gradW[j]
		}
		bias -= scale * gradB
	}

	lr.weights = weights
	lr.bias = bias
	lr.threshold = 0.5
	lr.columns = append([]string(nil), columns...)
	return nil
}

// Predict labels a whole batch in one call, preserving input order.
func (lr *LogisticRegression) Predict(features [][]float64) ([]int, error) {
	if len(lr.weights) == 0 {
		return nil, errors.New("model not trained")
	}
	labels := make([]int, len(features))
	for i, row := range features {
		if len(row) != len(lr.weights) {
			return nil, fmt.Errorf("row %d has width %d, want %d", i, len(row), len(lr.weights))
		}
		if sigmoid(dot(lr.weights, row)+lr.bias) >= lr.threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// Columns returns the one-hot schema the model was trained on.
func (lr *LogisticRegression) Columns() []string {
	return append([]string(nil), lr.columns...)
}

// Weights exposes a copy of the fitted coefficients, used by the trainer to
// rank feature importance.
func (lr *LogisticRegression) Weights() []float64 {
	return append([]float64(nil), lr.weights...)
}

func (lr *LogisticRegression) Save(path string) error {
	if len(lr.weights) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.MarshalIndent(logisticArtifact{
		Weights:   lr.weights,
		Bias:      lr.bias,
		Threshold: lr.threshold,
		Columns:   lr.columns,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact logisticArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return err
	}
	if len(artifact.Weights) == 0 || len(artifact.Weights) != len(artifact.Columns) {
		return errors.New("model artifact is corrupt")
	}
	if artifact.Threshold <= 0 || artifact.Threshold >= 1 {
		return errors.New("model artifact has invalid threshold")
	}
	lr.weights = artifact.Weights
	lr.bias = artifact.Bias
	lr.threshold = artifact.Threshold
	lr.columns = artifact.Columns
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
