package ml

import (
	"errors"
	"testing"
	"time"
)

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	vocab := &Vocabulary{
		Version:     1,
		Airlines:    []string{"Aerolíneas Argentinas", "Copa Air", "Grupo LATAM", "Latin American Wings", "Sky Airline"},
		FlightTypes: []string{"I", "N"},
		Months:      []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Columns: []string{
			"OPERA_Latin American Wings",
			"MES_7",
			"MES_10",
			"OPERA_Grupo LATAM",
			"MES_12",
			"TIPOVUELO_I",
			"MES_4",
			"MES_11",
			"OPERA_Sky Airline",
			"OPERA_Copa Air",
		},
	}
	if err := vocab.buildIndex(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return vocab
}

func TestBuildFeaturesOneHot(t *testing.T) {
	vocab := testVocabulary(t)
	records := []FlightRecord{
		{Airline: "Grupo LATAM", FlightType: "I", Month: 7},
		{Airline: "Sky Airline", FlightType: "N", Month: 3},
	}

	vectors, err := BuildFeatures(vocab, records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != len(records) {
		t.Fatalf("expected %d vectors, got %d", len(records), len(vectors))
	}

	// First record hits OPERA_Grupo LATAM, TIPOVUELO_I and MES_7.
	if sum(vectors[0]) != 3 {
		t.Fatalf("expected 3 active columns, got %v", vectors[0])
	}
	// Second record: TIPOVUELO_N and MES_3 are valid input but not part of
	// the trained schema, only OPERA_Sky Airline remains.
	if sum(vectors[1]) != 1 {
		t.Fatalf("expected 1 active column, got %v", vectors[1])
	}

	if vectors[0][vocab.ColumnIndex("OPERA_Grupo LATAM")] != 1 {
		t.Fatal("expected OPERA_Grupo LATAM to be set")
	}
	if vectors[0][vocab.ColumnIndex("TIPOVUELO_I")] != 1 {
		t.Fatal("expected TIPOVUELO_I to be set")
	}
}

func TestBuildFeaturesRejectsUnknownCategory(t *testing.T) {
	vocab := testVocabulary(t)

	cases := []struct {
		name   string
		record FlightRecord
		field  string
	}{
		{"unknown airline", FlightRecord{Airline: "UNKNOWN_CODE", FlightType: "I", Month: 3}, "OPERA"},
		{"unknown flight type", FlightRecord{Airline: "Grupo LATAM", FlightType: "X", Month: 3}, "TIPOVUELO"},
		{"month out of range", FlightRecord{Airline: "Grupo LATAM", FlightType: "I", Month: 13}, "MES"},
		{"zero month", FlightRecord{Airline: "Grupo LATAM", FlightType: "I", Month: 0}, "MES"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildFeatures(vocab, []FlightRecord{tc.record})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestBuildFeaturesFailFast(t *testing.T) {
	vocab := testVocabulary(t)
	records := []FlightRecord{
		{Airline: "Grupo LATAM", FlightType: "I", Month: 3},
		{Airline: "UNKNOWN_CODE", FlightType: "I", Month: 3},
	}

	vectors, err := BuildFeatures(vocab, records)
	if err == nil {
		t.Fatal("expected error")
	}
	if vectors != nil {
		t.Fatal("expected no partial output")
	}
}

func TestPeriodOfDay(t *testing.T) {
	cases := []struct {
		hour   int
		period string
	}{
		{5, "mañana"},
		{11, "mañana"},
		{12, "tarde"},
		{18, "tarde"},
		{19, "noche"},
		{23, "noche"},
		{0, "noche"},
		{4, "noche"},
	}
	for _, tc := range cases {
		ts := time.Date(2017, 3, 1, tc.hour, 30, 0, 0, time.UTC)
		if got := PeriodOfDay(ts); got != tc.period {
			t.Fatalf("hour %d: expected %s, got %s", tc.hour, tc.period, got)
		}
	}
}

func TestIsHighSeason(t *testing.T) {
	cases := []struct {
		date string
		want bool
	}{
		{"2017-12-15 10:00:00", true},
		{"2017-12-14 10:00:00", false},
		{"2017-01-20 10:00:00", true},
		{"2017-03-03 10:00:00", true},
		{"2017-03-04 10:00:00", false},
		{"2017-07-15 10:00:00", true},
		{"2017-07-14 10:00:00", false},
		{"2017-09-11 10:00:00", true},
		{"2017-09-10 10:00:00", false},
		{"2017-05-20 10:00:00", false},
	}
	for _, tc := range cases {
		ts, err := time.Parse(TimestampLayout, tc.date)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := IsHighSeason(ts); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.date, tc.want, got)
		}
	}
}

func TestDelayLabel(t *testing.T) {
	record := FlightRecord{
		Scheduled: "2017-01-01 10:00:00",
		Operated:  "2017-01-01 10:20:00",
	}
	label, err := record.Label()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected delay, got %d", label)
	}

	record.Operated = "2017-01-01 10:15:00"
	label, err = record.Label()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected on time at exactly 15 minutes, got %d", label)
	}
}

func sum(vector []float64) float64 {
	total := 0.0
	for _, v := range vector {
		total += v
	}
	return total
}
