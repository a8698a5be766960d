package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"flightdelay/db"
	qhttp "flightdelay/http"
	"flightdelay/logger"
	"flightdelay/ml"
	"flightdelay/monitoring"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log   logger.Config `yaml:"log"`
	Model struct {
		Type           string `yaml:"type"`
		Path           string `yaml:"path"`
		VocabularyPath string `yaml:"vocabulary_path"`
		CacheSize      int    `yaml:"cache_size"`
	} `yaml:"model"`
	Metrics struct {
		StreamIntervalSeconds int `yaml:"stream_interval_seconds"`
	} `yaml:"metrics"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		panic(err)
	}

	log, err := logger.New(config.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	qhttp.SetLogger(log)

	// 2. Prediction audit storage is optional; the service predicts without it.
	if config.Database.Path != "" {
		if err := db.InitDB(config.Database.Path); err != nil {
			log.Warn("prediction audit disabled", zap.Error(err))
		} else {
			defer db.CloseDB()
			log.Info("database initialized", zap.String("path", config.Database.Path))
		}
	}

	// 3. Load the model and its vocabulary once; both are read-only for the
	// lifetime of the process.
	vocab, err := ml.LoadVocabulary(config.Model.VocabularyPath)
	if err != nil {
		log.Fatal("failed to load vocabulary", zap.Error(err))
	}
	model, err := ml.LoadModel(config.Model.Type, config.Model.Path, vocab)
	if err != nil {
		log.Fatal("failed to load model", zap.Error(err))
	}
	qhttp.SetVocabulary(vocab)
	qhttp.SetModel(model)
	log.Info("model loaded",
		zap.String("path", config.Model.Path),
		zap.Int("feature_columns", len(vocab.Columns)))

	if config.Model.CacheSize > 0 {
		if err := qhttp.InitPredictionCache(config.Model.CacheSize); err != nil {
			log.Warn("prediction cache disabled", zap.Error(err))
		}
	}

	// 4. Metrics stream
	hub := monitoring.NewHub(log)
	go hub.Run()
	streamInterval := 5 * time.Second
	if config.Metrics.StreamIntervalSeconds > 0 {
		streamInterval = time.Duration(config.Metrics.StreamIntervalSeconds) * time.Second
	}
	go hub.StreamMetrics(monitoring.Default(), streamInterval)
	qhttp.SetMetricsHub(hub)

	// 5. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           config.Http.Port,
		Timeout:        time.Duration(config.Http.TimeoutSeconds) * time.Second,
		AllowedOrigins: config.Http.AllowedOrigins,
	})
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := server.Stop(); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}
	hub.Stop()
	log.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
