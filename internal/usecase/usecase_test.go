package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/meddetect/internal/classifier"
	"github.com/example/meddetect/internal/logging"
	"github.com/example/meddetect/internal/repository"
)

type stubRepository struct {
	detections []*repository.DetectionLog
	contacts   []*repository.ContactMessage
	err        error
}

func (s *stubRepository) InsertDetection(ctx context.Context, requestID string, log *repository.DetectionLog) error {
	s.detections = append(s.detections, log)
	return s.err
}

func (s *stubRepository) InsertContactMessage(ctx context.Context, requestID string, msg *repository.ContactMessage) error {
	s.contacts = append(s.contacts, msg)
	return s.err
}

type stubCache struct {
	values  map[string]string
	getErr  error
	setErr  error
	getKeys []string
	setKeys []string
}

func newStubCache() *stubCache {
	return &stubCache{values: make(map[string]string)}
}

func (s *stubCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	s.getKeys = append(s.getKeys, key)
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestClassifyRejectsEmptyPayload(t *testing.T) {
	metrics := newTestMetrics(t)
	uc := NewDetectionUseCase(&stubRepository{}, newStubCache(), metrics, zap.NewNop())

	_, err := uc.Classify(context.Background(), "req-1", "")
	require.ErrorIs(t, err, classifier.ErrMissingInput)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClassificationErrors.WithLabelValues("missing_input")))
}

func TestClassifyCachesResult(t *testing.T) {
	cache := newStubCache()
	metrics := newTestMetrics(t)
	uc := NewDetectionUseCase(&stubRepository{}, cache, metrics, zap.NewNop())

	first, err := uc.Classify(context.Background(), "req-1", "A")
	require.NoError(t, err)
	assert.Equal(t, "Breast Cancer", first.CancerType)
	assert.Equal(t, 80, first.Confidence)
	require.Len(t, cache.setKeys, 1)

	second, err := uc.Classify(context.Background(), "req-2", "A")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, cache.setKeys, 1, "hit must not rewrite the cache")
	assert.Equal(t, cache.getKeys[0], cache.getKeys[1])

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Classifications.WithLabelValues("breast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheOperations.WithLabelValues("get", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheOperations.WithLabelValues("get", "miss")))
}

func TestClassifyIgnoresCacheFailures(t *testing.T) {
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	metrics := newTestMetrics(t)
	uc := NewDetectionUseCase(&stubRepository{}, cache, metrics, zap.NewNop())

	got, err := uc.Classify(context.Background(), "req-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Brain Tumor", got.CancerType)
	assert.Equal(t, 77, got.Confidence)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheOperations.WithLabelValues("get", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheOperations.WithLabelValues("set", "error")))
}

func TestClassifyRecomputesOnCorruptCacheEntry(t *testing.T) {
	cache := newStubCache()
	cache.values[cacheKey("A")] = `{"key":"appendix","confidence":99}`
	uc := NewDetectionUseCase(&stubRepository{}, cache, newTestMetrics(t), zap.NewNop())

	got, err := uc.Classify(context.Background(), "req-1", "A")
	require.NoError(t, err)
	assert.Equal(t, "breast", got.Key)
	assert.Equal(t, 80, got.Confidence)
}

func TestClassifyWithoutCache(t *testing.T) {
	uc := NewDetectionUseCase(&stubRepository{}, nil, newTestMetrics(t), zap.NewNop())

	got, err := uc.Classify(context.Background(), "", "abc")
	require.NoError(t, err)
	assert.Equal(t, 89, got.Confidence)
}

func TestLogDetectionWrapsRepositoryError(t *testing.T) {
	repo := &stubRepository{err: errors.New("db down")}
	metrics := newTestMetrics(t)
	uc := NewDetectionUseCase(repo, nil, metrics, zap.NewNop())

	err := uc.LogDetection(context.Background(), "req-9", &repository.DetectionLog{DetectedCancerType: "Lymphoma"})
	require.Error(t, err)

	var opErr *logging.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "usecase.log_detection", opErr.Operation)
	assert.Equal(t, "req-9", opErr.RequestID)
	assert.Len(t, repo.detections, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistenceWrites.WithLabelValues("cancer_detections", "error")))
}

func TestContactSubmitStoresNullPhone(t *testing.T) {
	repo := &stubRepository{}
	metrics := newTestMetrics(t)
	uc := NewContactUseCase(repo, metrics, zap.NewNop())

	empty := ""
	msg := &repository.ContactMessage{Name: "Jane", Email: "jane@example.com", Phone: &empty, Subject: "Hi", Message: "Hello"}
	require.NoError(t, uc.Submit(context.Background(), "req-1", msg))

	require.Len(t, repo.contacts, 1)
	assert.Nil(t, repo.contacts[0].Phone)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistenceWrites.WithLabelValues("contact_messages", "ok")))
}

func TestContactSubmitReturnsOperationError(t *testing.T) {
	repo := &stubRepository{err: errors.New("constraint violation")}
	uc := NewContactUseCase(repo, newTestMetrics(t), zap.NewNop())

	err := uc.Submit(context.Background(), "req-2", &repository.ContactMessage{Name: "Jane"})
	assert.Equal(t, "usecase.submit_contact", logging.OperationOf(err))
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, cache.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err = cache.Get(ctx, "short")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheClose(t *testing.T) {
	cache := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	require.NoError(t, cache.Close())

	_, err := cache.Get(context.Background(), "k")
	require.ErrorIs(t, err, redis.ErrClosed)
}

func TestNewMetricsRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	require.Error(t, err)
}
