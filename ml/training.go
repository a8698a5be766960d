package ml

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TrainingSet is the full one-hot frame over every categorical value
// observed in the raw data, before column selection.
type TrainingSet struct {
	Columns []string
	X       [][]float64
	Y       []int
}

// BuildTrainingSet derives the delay label from each record's raw
// timestamps and one-hot encodes OPERA, TIPOVUELO and MES over all observed
// values. Column order is deterministic: prefix groups in OPERA, TIPOVUELO,
// MES order, values sorted within each group.
func BuildTrainingSet(records []FlightRecord) (*TrainingSet, error) {
	if len(records) == 0 {
		return nil, errors.New("no training records")
	}

	airlines := make(map[string]bool)
	flightTypes := make(map[string]bool)
	months := make(map[int]bool)
	for _, record := range records {
		airlines[record.Airline] = true
		flightTypes[record.FlightType] = true
		months[record.Month] = true
	}

	columns := make([]string, 0, len(airlines)+len(flightTypes)+len(months))
	for _, airline := range sortedKeys(airlines) {
		columns = append(columns, "OPERA_"+airline)
	}
	for _, ft := range sortedKeys(flightTypes) {
		columns = append(columns, "TIPOVUELO_"+ft)
	}
	for _, month := range sortedInts(months) {
		columns = append(columns, fmt.Sprintf("MES_%d", month))
	}
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}

	x := make([][]float64, len(records))
	y := make([]int, len(records))
	for i, record := range records {
		label, err := record.Label()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		row := make([]float64, len(columns))
		for _, col := range recordColumns(record) {
			row[index[col]] = 1
		}
		x[i] = row
		y[i] = label
	}

	return &TrainingSet{Columns: columns, X: x, Y: y}, nil
}

// TopColumns ranks the full frame by coefficient magnitude of a preliminary
// fit and keeps the n most influential columns, preserving their rank order.
func TopColumns(ts *TrainingSet, n int, config TrainConfig) ([]string, error) {
	if n <= 0 || n > len(ts.Columns) {
		return append([]string(nil), ts.Columns...), nil
	}
	probe := &LogisticRegression{}
	if err := probe.Train(ts.X, ts.Y, ts.Columns, config); err != nil {
		return nil, fmt.Errorf("probe fit: %w", err)
	}
	weights := probe.Weights()

	order := make([]int, len(ts.Columns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return abs(weights[order[a]]) > abs(weights[order[b]])
	})

	selected := make([]string, n)
	for i := 0; i < n; i++ {
		selected[i] = ts.Columns[order[i]]
	}
	return selected, nil
}

// Select projects the frame onto a fixed column schema.
func (ts *TrainingSet) Select(columns []string) (*TrainingSet, error) {
	index := make(map[string]int, len(ts.Columns))
	for i, col := range ts.Columns {
		index[col] = i
	}
	picks := make([]int, len(columns))
	for i, col := range columns {
		src, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("column %q not in training frame", col)
		}
		picks[i] = src
	}

	x := make([][]float64, len(ts.X))
	for i, row := range ts.X {
		projected := make([]float64, len(picks))
		for j, src := range picks {
			projected[j] = row[src]
		}
		x[i] = projected
	}
	return &TrainingSet{Columns: append([]string(nil), columns...), X: x, Y: ts.Y}, nil
}

// VocabularyFromRecords captures the trained categorical sets plus the
// selected column schema as a shippable artifact.
func VocabularyFromRecords(records []FlightRecord, columns []string) (*Vocabulary, error) {
	airlines := make(map[string]bool)
	flightTypes := make(map[string]bool)
	months := make(map[int]bool)
	for _, record := range records {
		airlines[record.Airline] = true
		flightTypes[record.FlightType] = true
		months[record.Month] = true
	}

	vocab := &Vocabulary{
		Version:     1,
		Airlines:    sortedKeys(airlines),
		FlightTypes: sortedKeys(flightTypes),
		Months:      sortedInts(months),
		Columns:     append([]string(nil), columns...),
	}
	if err := vocab.buildIndex(); err != nil {
		return nil, err
	}
	return vocab, nil
}

// DatasetProfile summarizes the derived time features of a training dataset:
// delay rate, high-season share and flight counts per period-of-day bucket.
type DatasetProfile struct {
	Flights        int
	DelayRate      float64
	HighSeasonRate float64
	Periods        map[string]int
}

// ProfileDataset computes the profile over raw records. Rows with an
// unparseable Fecha-I are skipped rather than failing the run.
func ProfileDataset(records []FlightRecord) DatasetProfile {
	profile := DatasetProfile{Periods: make(map[string]int)}
	var highSeason, delayed int
	for _, record := range records {
		scheduled, err := time.Parse(TimestampLayout, record.Scheduled)
		if err != nil {
			continue
		}
		profile.Flights++
		profile.Periods[PeriodOfDay(scheduled)]++
		if IsHighSeason(scheduled) {
			highSeason++
		}
		if label, err := record.Label(); err == nil && label == 1 {
			delayed++
		}
	}
	if profile.Flights > 0 {
		profile.HighSeasonRate = float64(highSeason) / float64(profile.Flights)
		profile.DelayRate = float64(delayed) / float64(profile.Flights)
	}
	return profile
}

// Evaluate reports accuracy, precision and recall of the positive (delay)
// class on a held-out split.
func Evaluate(model DelayClassifier, testX [][]float64, testY []int) (accuracy, precision, recall float64, err error) {
	if len(testX) == 0 {
		return 0, 0, 0, errors.New("empty test set")
	}
	predicted, err := model.Predict(testX)
	if err != nil {
		return 0, 0, 0, err
	}

	var correct, truePositive, predictedPositive, actualPositive int
	for i, label := range predicted {
		if label == testY[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if testY[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	accuracy = float64(correct) / float64(len(testX))
	if predictedPositive > 0 {
		precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		recall = float64(truePositive) / float64(actualPositive)
	}
	return accuracy, precision, recall, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedInts(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ParseMonth accepts the MES column as it appears in raw CSVs.
func ParseMonth(s string) (int, error) {
	month, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse MES: %w", err)
	}
	return month, nil
}
