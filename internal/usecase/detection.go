package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/meddetect/internal/classifier"
	"github.com/example/meddetect/internal/condition"
	"github.com/example/meddetect/internal/logging"
	"github.com/example/meddetect/internal/repository"
)

const resultTTL = 5 * time.Minute

// DetectionRepository defines the persistence operation needed for detection logs.
type DetectionRepository interface {
	InsertDetection(ctx context.Context, requestID string, log *repository.DetectionLog) error
}

// DetectionUseCase serves classifications and records detection logs.
type DetectionUseCase struct {
	repo    DetectionRepository
	cache   Cache
	metrics *Metrics
	logger  *zap.Logger
}

type cachedClassification struct {
	Key        string `json:"key"`
	Confidence int    `json:"confidence"`
}

// NewDetectionUseCase constructs a new use case instance. cache may be nil.
func NewDetectionUseCase(repo DetectionRepository, cache Cache, metrics *Metrics, logger *zap.Logger) *DetectionUseCase {
	return &DetectionUseCase{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		logger:  logger.Named("detection_usecase"),
	}
}

// Classify returns the classification for imageData. Results are cached by
// payload digest; cache failures are logged and otherwise ignored.
func (uc *DetectionUseCase) Classify(ctx context.Context, requestID, imageData string) (classifier.Result, error) {
	if imageData == "" {
		uc.metrics.ClassificationErrors.WithLabelValues("missing_input").Inc()
		return classifier.Result{}, classifier.ErrMissingInput
	}

	opLogger := logging.WithOperation(uc.logger, "usecase.classify", requestID)
	key := cacheKey(imageData)

	if result, ok := uc.fromCache(ctx, opLogger, key); ok {
		uc.metrics.Classifications.WithLabelValues(result.Key).Inc()
		return result, nil
	}

	result, err := classifier.Classify(imageData)
	if err != nil {
		uc.metrics.ClassificationErrors.WithLabelValues("classify").Inc()
		return classifier.Result{}, logging.NewOperationError("usecase.classify", requestID, err)
	}
	uc.metrics.Classifications.WithLabelValues(result.Key).Inc()

	uc.toCache(ctx, opLogger, key, result)
	opLogger.Debug("classified payload",
		zap.String("condition", result.Key),
		zap.Int("confidence", result.Confidence),
		zap.Int("payload_bytes", len(imageData)),
	)
	return result, nil
}

// LogDetection inserts a detection log row.
func (uc *DetectionUseCase) LogDetection(ctx context.Context, requestID string, log *repository.DetectionLog) error {
	err := uc.repo.InsertDetection(ctx, requestID, log)
	uc.metrics.PersistenceWrites.WithLabelValues(log.TableName(), resultLabel(err)).Inc()
	if err != nil {
		return logging.NewOperationError("usecase.log_detection", requestID, err)
	}
	return nil
}

func (uc *DetectionUseCase) fromCache(ctx context.Context, opLogger *zap.Logger, key string) (classifier.Result, bool) {
	if uc.cache == nil {
		return classifier.Result{}, false
	}

	raw, err := uc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			uc.metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		} else {
			uc.metrics.CacheOperations.WithLabelValues("get", "error").Inc()
			opLogger.Warn("failed to read cache", zap.Error(err))
		}
		return classifier.Result{}, false
	}

	var payload cachedClassification
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		uc.metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		opLogger.Warn("failed to decode cached result", zap.Error(err))
		return classifier.Result{}, false
	}

	rec, ok := condition.Lookup(payload.Key)
	if !ok {
		uc.metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		opLogger.Warn("cached result names unknown condition", zap.String("condition", payload.Key))
		return classifier.Result{}, false
	}

	uc.metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return classifier.Result{
		Key:             rec.Key,
		CancerType:      rec.DisplayName,
		Confidence:      payload.Confidence,
		Description:     rec.Description,
		Recommendations: rec.Recommendations,
	}, true
}

func (uc *DetectionUseCase) toCache(ctx context.Context, opLogger *zap.Logger, key string, result classifier.Result) {
	if uc.cache == nil {
		return
	}

	serialized, err := json.Marshal(cachedClassification{Key: result.Key, Confidence: result.Confidence})
	if err != nil {
		opLogger.Warn("failed to serialize classification", zap.Error(err))
		return
	}

	err = uc.cache.Set(ctx, key, string(serialized), resultTTL)
	uc.metrics.CacheOperations.WithLabelValues("set", resultLabel(err)).Inc()
	if err != nil {
		opLogger.Warn("failed to cache classification", zap.Error(err))
	}
}

func cacheKey(imageData string) string {
	sum := sha1.Sum([]byte(imageData))
	return "classification:" + hex.EncodeToString(sum[:])
}
