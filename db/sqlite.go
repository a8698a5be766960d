package db

import (
	"database/sql"
	"errors"
	"time"

	"flightdelay/ml"
	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

var ErrNotInitialized = errors.New("database not initialized")

// InitDB opens the SQLite database and creates the audit tables. The
// service runs fine without it; callers treat failures here as a warning.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        airline VARCHAR(80),
        flight_type VARCHAR(4),
        month INTEGER,
        predicted_label INTEGER,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50),
        data_points INTEGER,
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME
    );
    `

	_, err = database.Exec(query)
	return err
}

// CloseDB closes the database handle if one was opened.
func CloseDB() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// SavePredictions records one audit row per predicted flight. Only the
// categorical inputs and the label are stored, never raw timestamp rows.
func SavePredictions(records []ml.FlightRecord, labels []int) error {
	if database == nil {
		return ErrNotInitialized
	}
	if len(records) != len(labels) {
		return errors.New("records and labels size mismatch")
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
        INSERT INTO predictions (airline, flight_type, month, predicted_label)
        VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, record := range records {
		if _, err := stmt.Exec(record.Airline, record.FlightType, record.Month, labels[i]); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// TrainingRun is one row of the training log.
type TrainingRun struct {
	ModelName  string
	DataPoints int
	Accuracy   float64
	Precision  float64
	Recall     float64
	TrainedAt  time.Time
}

// SaveTrainingRun appends a training run to the log.
func SaveTrainingRun(run TrainingRun) error {
	if database == nil {
		return ErrNotInitialized
	}
	_, err := database.Exec(`
        INSERT INTO training_log (model_name, data_points, accuracy, precision, recall, trained_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		run.ModelName, run.DataPoints, run.Accuracy, run.Precision, run.Recall, run.TrainedAt)
	return err
}

// QueryRecentPredictions returns the latest audit rows, newest first.
func QueryRecentPredictions(limit int) ([]ml.FlightRecord, []int, error) {
	if database == nil {
		return nil, nil, ErrNotInitialized
	}
	rows, err := database.Query(`
        SELECT airline, flight_type, month, predicted_label
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var records []ml.FlightRecord
	var labels []int
	for rows.Next() {
		var record ml.FlightRecord
		var label int
		if err := rows.Scan(&record.Airline, &record.FlightType, &record.Month, &label); err != nil {
			return nil, nil, err
		}
		records = append(records, record)
		labels = append(labels, label)
	}
	return records, labels, rows.Err()
}
