package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"flightdelay/db"
	"flightdelay/ml"
	"flightdelay/monitoring"
)

// PredictRequest is the typed boundary for the loosely-shaped JSON clients
// send; the feature pipeline never sees untyped maps.
type PredictRequest struct {
	Flights []ml.FlightRecord `json:"flights"`
}

// PredictionResult is one element of the response list, order-preserving
// with the input batch.
type PredictionResult struct {
	Predict int `json:"predict"`
}

var (
	model   ml.DelayClassifier
	vocab   *ml.Vocabulary
	logger  = zap.NewNop()
	metrics = monitoring.Default()

	predictionCache *lru.Cache[string, []int]

	// savePredictions is swappable in tests.
	savePredictions = db.SavePredictions
)

// SetModel installs the classifier. Called once at startup, before the
// server accepts traffic; the model is read-only afterwards.
func SetModel(m ml.DelayClassifier) {
	model = m
}

// SetVocabulary installs the trained vocabulary artifact.
func SetVocabulary(v *ml.Vocabulary) {
	vocab = v
}

// SetLogger replaces the no-op default.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// InitPredictionCache enables the batch response cache. Sound because the
// model is deterministic and stateless across calls.
func InitPredictionCache(size int) error {
	cache, err := lru.New[string, []int](size)
	if err != nil {
		return err
	}
	predictionCache = cache
	return nil
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /predict", handlePredict)
	mux.HandleFunc("GET /metrics", handleMetrics)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, metrics.Snapshot())
}

// handlePredict validates the whole batch against the trained vocabulary,
// then runs a single batched inference call. A batch either fully validates
// and fully predicts, or fails as a whole.
func handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RecordRequest(time.Since(start))
	}()

	if model == nil || vocab == nil {
		respondError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	var request PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(request.Flights) == 0 {
		respondError(w, http.StatusBadRequest, "flights is required")
		return
	}

	key := batchKey(request.Flights)
	if predictionCache != nil {
		if labels, ok := predictionCache.Get(key); ok {
			metrics.RecordCacheHit()
			respondJSON(w, http.StatusOK, toResults(labels))
			return
		}
	}

	features, err := ml.BuildFeatures(vocab, request.Flights)
	if err != nil {
		var verr *ml.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordValidationReject()
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	labels, err := model.Predict(features)
	if err != nil {
		metrics.RecordModelError()
		logger.Error("inference failed", zap.Int("batch_size", len(request.Flights)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "inference failed")
		return
	}
	metrics.RecordPredictions(len(labels))

	if predictionCache != nil {
		predictionCache.Add(key, labels)
	}
	if err := savePredictions(request.Flights, labels); err != nil && !errors.Is(err, db.ErrNotInitialized) {
		logger.Warn("prediction audit write failed", zap.Error(err))
	}

	respondJSON(w, http.StatusOK, toResults(labels))
}

func toResults(labels []int) []PredictionResult {
	results := make([]PredictionResult, len(labels))
	for i, label := range labels {
		results[i] = PredictionResult{Predict: label}
	}
	return results
}

// batchKey canonicalizes the categorical triples of a batch. Records are
// keyed in order, so permuted batches are distinct entries.
func batchKey(flights []ml.FlightRecord) string {
	var b strings.Builder
	for _, flight := range flights {
		fmt.Fprintf(&b, "%s\x1f%s\x1f%d\x1e", flight.Airline, flight.FlightType, flight.Month)
	}
	return b.String()
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
