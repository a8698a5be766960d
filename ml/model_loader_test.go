package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func saveTrainedModel(t *testing.T, columns []string) string {
	t.Helper()
	features := make([][]float64, 0, 4)
	labels := []int{0, 0, 1, 1}
	for i := range labels {
		row := make([]float64, len(columns))
		if labels[i] == 1 {
			row[0] = 1
		}
		features = append(features, row)
	}
	model := &LogisticRegression{}
	if err := model.Train(features, labels, columns, TrainConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestLoadModelMatchingSchema(t *testing.T) {
	columns := []string{"OPERA_Grupo LATAM", "TIPOVUELO_I"}
	path := saveTrainedModel(t, columns)

	model, err := LoadModel("logistic", path, &Vocabulary{Columns: columns})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.Columns()) != 2 {
		t.Fatalf("unexpected columns: %v", model.Columns())
	}
}

func TestLoadModelColumnCountMismatch(t *testing.T) {
	path := saveTrainedModel(t, []string{"OPERA_Grupo LATAM", "TIPOVUELO_I"})

	vocab := &Vocabulary{Columns: []string{"OPERA_Grupo LATAM"}}
	if _, err := LoadModel("logistic", path, vocab); err == nil {
		t.Fatal("expected error for column count mismatch")
	}
}

func TestLoadModelColumnOrderMismatch(t *testing.T) {
	path := saveTrainedModel(t, []string{"OPERA_Grupo LATAM", "TIPOVUELO_I"})

	// Same set, different order: the artifact's weight positions no longer
	// line up with the vocabulary's one-hot positions.
	vocab := &Vocabulary{Columns: []string{"TIPOVUELO_I", "OPERA_Grupo LATAM"}}
	if _, err := LoadModel("logistic", path, vocab); err == nil {
		t.Fatal("expected error for reordered columns")
	}
}

func TestLoadModelUnsupportedType(t *testing.T) {
	path := saveTrainedModel(t, []string{"MES_7"})

	vocab := &Vocabulary{Columns: []string{"MES_7"}}
	if _, err := LoadModel("tree", path, vocab); err == nil {
		t.Fatal("expected error for unsupported model type")
	}
}

func TestLoadRejectsCorruptArtifact(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"not json":           `{"weights": [0.5`,
		"no weights":         `{"weights": [], "bias": 0, "threshold": 0.5, "columns": []}`,
		"width mismatch":     `{"weights": [0.5], "bias": 0, "threshold": 0.5, "columns": ["a", "b"]}`,
		"threshold too high": `{"weights": [0.5], "bias": 0, "threshold": 1.5, "columns": ["a"]}`,
		"threshold non-prob": `{"weights": [0.5], "bias": 0, "threshold": 0, "columns": ["a"]}`,
	}
	i := 0
	for name, payload := range cases {
		path := filepath.Join(dir, "model"+string(rune('a'+i))+".json")
		i++
		if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		model := &LogisticRegression{}
		if err := model.Load(path); err == nil {
			t.Fatalf("%s: expected load error", name)
		}
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	vocab := &Vocabulary{Columns: []string{"MES_7"}}
	if _, err := LoadModel("logistic", filepath.Join(t.TempDir(), "absent.json"), vocab); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
