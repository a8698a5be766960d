package pipeline

import (
	"errors"
	"fmt"
	"time"

	"flightdelay/ml"
)

// CleaningRule rejects or passes a single record.
type CleaningRule interface {
	Apply(record ml.FlightRecord) error
	Name() string
}

// CleaningStats counts the outcome of one cleaning pass.
type CleaningStats struct {
	TotalProcessed int            `json:"total_processed"`
	Passed         int            `json:"passed"`
	Rejected       int            `json:"rejected"`
	Issues         map[string]int `json:"issues"`
	LastClean      time.Time      `json:"last_clean"`
}

// FlightCleaner applies its rules in order and drops duplicates.
type FlightCleaner struct {
	rules []CleaningRule
}

// NewFlightCleaner builds a cleaner with the default rule set.
func NewFlightCleaner() *FlightCleaner {
	return &FlightCleaner{rules: []CleaningRule{
		timestampRule{},
		monthRangeRule{},
		flightTypeRule{},
		airlineRule{},
	}}
}

// AddRule appends a custom rule after the defaults.
func (fc *FlightCleaner) AddRule(rule CleaningRule) {
	fc.rules = append(fc.rules, rule)
}

// Clean filters the raw records, preserving input order among survivors.
func (fc *FlightCleaner) Clean(records []ml.FlightRecord) ([]ml.FlightRecord, CleaningStats) {
	stats := CleaningStats{
		Issues:    make(map[string]int),
		LastClean: time.Now(),
	}
	seen := make(map[ml.FlightRecord]bool, len(records))

	var cleaned []ml.FlightRecord
	for _, record := range records {
		stats.TotalProcessed++

		if seen[record] {
			stats.Rejected++
			stats.Issues["duplicate"]++
			continue
		}
		seen[record] = true

		rejected := false
		for _, rule := range fc.rules {
			if err := rule.Apply(record); err != nil {
				stats.Rejected++
				stats.Issues[rule.Name()]++
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}

		stats.Passed++
		cleaned = append(cleaned, record)
	}
	return cleaned, stats
}

type timestampRule struct{}

func (timestampRule) Name() string { return "timestamp" }

func (timestampRule) Apply(record ml.FlightRecord) error {
	if _, err := time.Parse(ml.TimestampLayout, record.Scheduled); err != nil {
		return fmt.Errorf("bad Fecha-I: %w", err)
	}
	if _, err := time.Parse(ml.TimestampLayout, record.Operated); err != nil {
		return fmt.Errorf("bad Fecha-O: %w", err)
	}
	return nil
}

type monthRangeRule struct{}

func (monthRangeRule) Name() string { return "month_range" }

func (monthRangeRule) Apply(record ml.FlightRecord) error {
	if record.Month < 1 || record.Month > 12 {
		return fmt.Errorf("month %d out of range", record.Month)
	}
	return nil
}

type flightTypeRule struct{}

func (flightTypeRule) Name() string { return "flight_type" }

func (flightTypeRule) Apply(record ml.FlightRecord) error {
	if record.FlightType != "I" && record.FlightType != "N" {
		return fmt.Errorf("unknown flight type %q", record.FlightType)
	}
	return nil
}

type airlineRule struct{}

func (airlineRule) Name() string { return "airline" }

func (airlineRule) Apply(record ml.FlightRecord) error {
	if record.Airline == "" {
		return errors.New("empty airline")
	}
	return nil
}
