package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Vocabulary is the fixed set of categorical values the model was trained
// against, plus the ordered one-hot column schema. It ships as a versioned
// JSON artifact next to the model and is loaded once at startup; the service
// never infers it from traffic.
type Vocabulary struct {
	Version     int      `json:"version"`
	Airlines    []string `json:"airlines"`
	FlightTypes []string `json:"flight_types"`
	Months      []int    `json:"months"`
	Columns     []string `json:"columns"`

	airlineSet map[string]bool
	typeSet    map[string]bool
	monthSet   map[int]bool
	columnIdx  map[string]int
}

func LoadVocabulary(path string) (*Vocabulary, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vocab Vocabulary
	if err := json.Unmarshal(payload, &vocab); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if err := vocab.buildIndex(); err != nil {
		return nil, err
	}
	return &vocab, nil
}

func (v *Vocabulary) buildIndex() error {
	if len(v.Airlines) == 0 || len(v.FlightTypes) == 0 || len(v.Months) == 0 {
		return errors.New("vocabulary is incomplete")
	}
	if len(v.Columns) == 0 {
		return errors.New("vocabulary has no feature columns")
	}
	v.airlineSet = make(map[string]bool, len(v.Airlines))
	for _, airline := range v.Airlines {
		v.airlineSet[normalizeCategory(airline)] = true
	}
	v.typeSet = make(map[string]bool, len(v.FlightTypes))
	for _, ft := range v.FlightTypes {
		v.typeSet[ft] = true
	}
	v.monthSet = make(map[int]bool, len(v.Months))
	for _, m := range v.Months {
		v.monthSet[m] = true
	}
	v.columnIdx = make(map[string]int, len(v.Columns))
	for i, col := range v.Columns {
		v.columnIdx[normalizeCategory(col)] = i
	}
	return nil
}

// Validate checks a single record against the trained vocabulary. An unseen
// value is unrepresentable by the feature schema and must be rejected, never
// silently zero-filled.
func (v *Vocabulary) Validate(record FlightRecord) error {
	if !v.monthSet[record.Month] {
		return &ValidationError{Field: "MES", Value: strconv.Itoa(record.Month)}
	}
	if !v.typeSet[record.FlightType] {
		return &ValidationError{Field: "TIPOVUELO", Value: record.FlightType}
	}
	if !v.airlineSet[normalizeCategory(record.Airline)] {
		return &ValidationError{Field: "OPERA", Value: record.Airline}
	}
	return nil
}

// ColumnIndex reports the position of a one-hot column in the trained
// schema, or -1 when the column was not selected at training time.
func (v *Vocabulary) ColumnIndex(name string) int {
	if idx, ok := v.columnIdx[normalizeCategory(name)]; ok {
		return idx
	}
	return -1
}

func (v *Vocabulary) Save(path string) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// normalizeCategory folds composed and decomposed forms of accented airline
// names ("Aerolíneas Argentinas") so JSON clients cannot miss the whitelist
// over a unicode encoding detail.
func normalizeCategory(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
