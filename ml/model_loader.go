package ml

import (
	"errors"
	"fmt"
)

// LoadModel reads a serialized classifier and verifies its column schema
// against the shipped vocabulary. A mismatch is a configuration error and
// must abort startup, not surface at request time.
func LoadModel(modelType, path string, vocab *Vocabulary) (*LogisticRegression, error) {
	switch modelType {
	case "logistic":
		model := &LogisticRegression{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		if err := checkSchema(model.Columns(), vocab.Columns); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}

func checkSchema(modelColumns, vocabColumns []string) error {
	if len(modelColumns) != len(vocabColumns) {
		return fmt.Errorf("model has %d feature columns, vocabulary has %d", len(modelColumns), len(vocabColumns))
	}
	for i, col := range modelColumns {
		if col != vocabColumns[i] {
			return fmt.Errorf("feature column %d mismatch: model %q, vocabulary %q", i, col, vocabColumns[i])
		}
	}
	return nil
}
