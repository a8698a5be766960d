package ml

import (
	"fmt"
	"time"
)

const (
	// TimestampLayout is the format of Fecha-I and Fecha-O in the raw dataset.
	TimestampLayout = "2006-01-02 15:04:05"

	// delayThresholdMinutes separates on-time from delayed flights.
	delayThresholdMinutes = 15.0
)

// FlightRecord is one row of input. Scheduled and Operated are only present
// in the training dataset; prediction requests carry the three categorical
// fields alone.
type FlightRecord struct {
	Airline    string `json:"OPERA"`
	FlightType string `json:"TIPOVUELO"`
	Month      int    `json:"MES"`
	Scheduled  string `json:"Fecha-I,omitempty"`
	Operated   string `json:"Fecha-O,omitempty"`
}

// BuildFeatures turns an ordered batch of records into fixed-width one-hot
// vectors aligned to the trained column schema. It fails on the first record
// with a value outside the vocabulary. Pure function, safe for concurrent
// callers.
func BuildFeatures(vocab *Vocabulary, records []FlightRecord) ([][]float64, error) {
	vectors := make([][]float64, len(records))
	for i, record := range records {
		if err := vocab.Validate(record); err != nil {
			return nil, err
		}
		vector := make([]float64, len(vocab.Columns))
		for _, col := range recordColumns(record) {
			if idx := vocab.ColumnIndex(col); idx >= 0 {
				vector[idx] = 1
			}
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// recordColumns names the one-hot columns a record activates, using the
// OPERA_/TIPOVUELO_/MES_ prefixes of the training frame.
func recordColumns(record FlightRecord) []string {
	return []string{
		"OPERA_" + record.Airline,
		"TIPOVUELO_" + record.FlightType,
		fmt.Sprintf("MES_%d", record.Month),
	}
}

// PeriodOfDay buckets a scheduled time into mañana (05:00-11:59),
// tarde (12:00-18:59) or noche (19:00-04:59).
func PeriodOfDay(t time.Time) string {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "mañana"
	case hour >= 12 && hour < 19:
		return "tarde"
	default:
		return "noche"
	}
}

// IsHighSeason reports whether a date falls in the peak travel windows:
// 15 Dec - 3 Mar, 15 Jul - 31 Jul, 11 Sep - 30 Sep.
func IsHighSeason(t time.Time) bool {
	month := int(t.Month())
	day := t.Day()
	switch month {
	case 12:
		return day >= 15
	case 1, 2:
		return true
	case 3:
		return day <= 3
	case 7:
		return day >= 15
	case 9:
		return day >= 11
	default:
		return false
	}
}

// MinutesDiff returns the gap between scheduled and operational time
// in minutes. Positive means the flight left late.
func MinutesDiff(scheduled, operated time.Time) float64 {
	return operated.Sub(scheduled).Minutes()
}

// DelayLabel is 1 when the gap exceeds the 15-minute threshold.
func DelayLabel(minDiff float64) int {
	if minDiff > delayThresholdMinutes {
		return 1
	}
	return 0
}

// Label derives the binary delay label from a record's raw timestamps.
func (r FlightRecord) Label() (int, error) {
	scheduled, err := time.Parse(TimestampLayout, r.Scheduled)
	if err != nil {
		return 0, fmt.Errorf("parse Fecha-I: %w", err)
	}
	operated, err := time.Parse(TimestampLayout, r.Operated)
	if err != nil {
		return 0, fmt.Errorf("parse Fecha-O: %w", err)
	}
	return DelayLabel(MinutesDiff(scheduled, operated)), nil
}
