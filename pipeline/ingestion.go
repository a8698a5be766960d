// Package pipeline turns the raw flight CSV into clean training records.
// It only runs inside the trainer; the prediction service never touches it.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"flightdelay/ml"
)

// IngestionStats summarizes one dataset read.
type IngestionStats struct {
	TotalRows   int       `json:"total_rows"`
	SkippedRows int       `json:"skipped_rows"`
	LastIngest  time.Time `json:"last_ingest"`
}

// requiredColumns are the CSV headers the trainer needs. Extra dataset
// columns (destination, flight number, ...) are ignored.
var requiredColumns = []string{"Fecha-I", "Fecha-O", "OPERA", "TIPOVUELO", "MES"}

// ReadFlights loads the raw dataset. Rows whose MES column fails to parse
// are counted as skipped rather than aborting the whole read; structural
// problems (missing headers, malformed CSV) abort.
func ReadFlights(path string) ([]ml.FlightRecord, IngestionStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, IngestionStats{}, err
	}
	defer file.Close()
	return readFlights(file)
}

func readFlights(r io.Reader) ([]ml.FlightRecord, IngestionStats, error) {
	stats := IngestionStats{LastIngest: time.Now()}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, stats, fmt.Errorf("dataset is missing column %s", name)
		}
	}

	var records []ml.FlightRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("row %d: %w", stats.TotalRows+2, err)
		}
		stats.TotalRows++

		if len(row) < len(header) {
			stats.SkippedRows++
			continue
		}
		month, err := ml.ParseMonth(row[index["MES"]])
		if err != nil {
			stats.SkippedRows++
			continue
		}
		records = append(records, ml.FlightRecord{
			Airline:    row[index["OPERA"]],
			FlightType: row[index["TIPOVUELO"]],
			Month:      month,
			Scheduled:  row[index["Fecha-I"]],
			Operated:   row[index["Fecha-O"]],
		})
	}

	return records, stats, nil
}
