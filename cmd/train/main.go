package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"flightdelay/db"
	"flightdelay/logger"
	"flightdelay/ml"
	"flightdelay/pipeline"
)

func main() {
	dataPath := flag.String("data", "", "raw flight dataset (CSV)")
	modelPath := flag.String("model_path", "./data/model.json", "model output path")
	vocabPath := flag.String("vocab_path", "./data/vocabulary.json", "vocabulary output path")
	dbPath := flag.String("db_path", "", "optional sqlite path for the training log")
	topFeatures := flag.Int("top_features", 10, "number of one-hot columns to keep")
	testRatio := flag.Float64("test_ratio", 0.2, "held-out fraction")
	learningRate := flag.Float64("learning_rate", 0.1, "gradient descent step size")
	epochs := flag.Int("epochs", 500, "gradient descent epochs")
	logLevel := flag.String("log_level", "info", "log level")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: *logLevel})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *dataPath == "" {
		log.Fatal("data is required")
	}

	records, ingestStats, err := pipeline.ReadFlights(*dataPath)
	if err != nil {
		log.Fatal("failed to read dataset", zap.Error(err))
	}
	log.Info("dataset loaded",
		zap.Int("rows", ingestStats.TotalRows),
		zap.Int("skipped", ingestStats.SkippedRows))

	cleaner := pipeline.NewFlightCleaner()
	records, cleanStats := cleaner.Clean(records)
	log.Info("dataset cleaned",
		zap.Int("passed", cleanStats.Passed),
		zap.Int("rejected", cleanStats.Rejected),
		zap.Any("issues", cleanStats.Issues))
	if len(records) == 0 {
		log.Fatal("no usable records after cleaning")
	}

	profile := ml.ProfileDataset(records)
	log.Info("dataset profile",
		zap.Float64("delay_rate", profile.DelayRate),
		zap.Float64("high_season_rate", profile.HighSeasonRate),
		zap.Any("period_counts", profile.Periods))

	trainConfig := ml.TrainConfig{LearningRate: *learningRate, Epochs: *epochs}

	fullSet, err := ml.BuildTrainingSet(records)
	if err != nil {
		log.Fatal("failed to build training set", zap.Error(err))
	}
	columns, err := ml.TopColumns(fullSet, *topFeatures, trainConfig)
	if err != nil {
		log.Fatal("failed to select feature columns", zap.Error(err))
	}
	log.Info("feature columns selected", zap.Strings("columns", columns))

	selected, err := fullSet.Select(columns)
	if err != nil {
		log.Fatal("failed to project training set", zap.Error(err))
	}

	trainX, trainY, testX, testY := splitDataset(selected.X, selected.Y, *testRatio)

	model := &ml.LogisticRegression{}
	if err := model.Train(trainX, trainY, columns, trainConfig); err != nil {
		log.Fatal("failed to train model", zap.Error(err))
	}

	accuracy, precision, recall, err := ml.Evaluate(model, testX, testY)
	if err != nil {
		log.Fatal("failed to evaluate model", zap.Error(err))
	}
	log.Info("evaluation",
		zap.Float64("accuracy", accuracy),
		zap.Float64("precision", precision),
		zap.Float64("recall", recall),
		zap.Int("train_rows", len(trainX)),
		zap.Int("test_rows", len(testX)))

	vocab, err := ml.VocabularyFromRecords(records, columns)
	if err != nil {
		log.Fatal("failed to build vocabulary", zap.Error(err))
	}

	for _, dir := range []string{filepath.Dir(*modelPath), filepath.Dir(*vocabPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("failed to create output dir", zap.Error(err))
		}
	}
	if err := model.Save(*modelPath); err != nil {
		log.Fatal("failed to save model", zap.Error(err))
	}
	if err := vocab.Save(*vocabPath); err != nil {
		log.Fatal("failed to save vocabulary", zap.Error(err))
	}

	if *dbPath != "" {
		if err := db.InitDB(*dbPath); err != nil {
			log.Warn("training log disabled", zap.Error(err))
		} else {
			defer db.CloseDB()
			err := db.SaveTrainingRun(db.TrainingRun{
				ModelName:  "logistic",
				DataPoints: len(records),
				Accuracy:   accuracy,
				Precision:  precision,
				Recall:     recall,
				TrainedAt:  time.Now(),
			})
			if err != nil {
				log.Warn("failed to record training run", zap.Error(err))
			}
		}
	}

	fmt.Printf("model saved to %s, vocabulary to %s\n", *modelPath, *vocabPath)
}

func splitDataset(features [][]float64, labels []int, testRatio float64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	indices := rnd.Perm(len(features))

	split := int(float64(len(features)) * (1 - testRatio))
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}
