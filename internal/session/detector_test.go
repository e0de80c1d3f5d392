package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/example/meddetect/internal/classifier"
	"github.com/example/meddetect/internal/client"
)

type stubClassifier struct {
	err     error
	release chan struct{}
	started chan struct{}
	calls   int
	mu      sync.Mutex
}

func (s *stubClassifier) Classify(ctx context.Context, imageData string) (classifier.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return classifier.Result{}, s.err
	}
	return classifier.Classify(imageData)
}

type stubRecorder struct {
	mu      sync.Mutex
	entries []client.DetectionLogEntry
	ctxErrs []error
	err     error
}

func (s *stubRecorder) InsertDetection(ctx context.Context, entry client.DetectionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.err
}

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestAnalyzeWithoutImage(t *testing.T) {
	s := NewDetectorSession(&stubClassifier{}, nil, nil)

	st, err := s.Analyze(context.Background())
	require.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, Idle{}, st)
}

func TestSelectImage(t *testing.T) {
	s := NewDetectorSession(&stubClassifier{}, nil, nil)

	assert.Equal(t, ImageSelected{Image: "A"}, s.SelectImage("A"))
	assert.Equal(t, "image_selected", s.State().Phase())
	assert.Equal(t, Idle{}, s.SelectImage(""))
}

func TestAnalyzeSuccessRecordsDetection(t *testing.T) {
	defer goleak.VerifyNone(t)

	recorder := &stubRecorder{}
	s := NewDetectorSession(&stubClassifier{}, recorder, nil)
	s.SelectImage("A")

	st, err := s.Analyze(context.Background())
	require.NoError(t, err)

	succeeded, ok := st.(Succeeded)
	require.True(t, ok, "got %T", st)
	assert.Equal(t, "A", succeeded.Image)
	assert.Equal(t, "Breast Cancer", succeeded.Result.CancerType)
	assert.Equal(t, 80, succeeded.Result.Confidence)

	s.Wait()
	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "base64_image", entry.ImageURL)
	assert.Equal(t, "Breast Cancer", entry.DetectedCancerType)
	assert.Equal(t, 80, entry.ConfidenceScore)
	assert.Equal(t, succeeded.Result.Description, entry.AdditionalInfo.Description)
	assert.Equal(t, succeeded.Result.Recommendations, entry.AdditionalInfo.Recommendations)
}

func TestRecordingFailureKeepsResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	recorder := &stubRecorder{err: errors.New("insert failed")}
	s := NewDetectorSession(&stubClassifier{}, recorder, nil)
	s.SelectImage("hello")

	_, err := s.Analyze(context.Background())
	require.NoError(t, err)
	s.Wait()

	st, ok := s.State().(Succeeded)
	require.True(t, ok)
	assert.Equal(t, "Brain Tumor", st.Result.CancerType)
	assert.Len(t, recorder.entries, 1)
}

func TestRecordingOutlivesCallerContext(t *testing.T) {
	recorder := &stubRecorder{}
	release := make(chan struct{})
	blocking := &blockingRecorder{inner: recorder, release: release}
	s := NewDetectorSession(&stubClassifier{}, blocking, nil)
	s.SelectImage("A")

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Analyze(ctx)
	require.NoError(t, err)
	cancel()
	close(release)
	s.Wait()

	require.Len(t, recorder.ctxErrs, 1)
	assert.NoError(t, recorder.ctxErrs[0])
}

type blockingRecorder struct {
	inner   *stubRecorder
	release chan struct{}
}

func (b *blockingRecorder) InsertDetection(ctx context.Context, entry client.DetectionLogEntry) error {
	<-b.release
	return b.inner.InsertDetection(ctx, entry)
}

func TestAnalyzeFailure(t *testing.T) {
	recorder := &stubRecorder{}
	s := NewDetectorSession(&stubClassifier{err: errors.New("Analysis failed. Please try again.")}, recorder, nil)
	s.SelectImage("A")

	st, err := s.Analyze(context.Background())
	require.Error(t, err)
	assert.Equal(t, Failed{Image: "A", Message: "Analysis failed. Please try again."}, st)

	s.Wait()
	assert.Empty(t, recorder.entries)
}

func TestAnalyzeFailureDefaultMessage(t *testing.T) {
	s := NewDetectorSession(&stubClassifier{err: emptyError{}}, nil, nil)
	s.SelectImage("A")

	st, err := s.Analyze(context.Background())
	require.Error(t, err)
	assert.Equal(t, Failed{Image: "A", Message: "An error occurred during analysis"}, st)
}

func TestAnalyzeIsSingleFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	stub := &stubClassifier{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewDetectorSession(stub, nil, nil)
	s.SelectImage("A")

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		done <- err
	}()

	select {
	case <-stub.started:
	case <-time.After(2 * time.Second):
		t.Fatal("analysis did not start")
	}
	assert.Equal(t, Analyzing{Image: "A"}, s.State())

	st, err := s.Analyze(context.Background())
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, Analyzing{Image: "A"}, st)

	close(stub.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "succeeded", s.State().Phase())
}

func TestSelectionDuringAnalysisDiscardsResult(t *testing.T) {
	stub := &stubClassifier{started: make(chan struct{}, 1), release: make(chan struct{})}
	recorder := &stubRecorder{}
	s := NewDetectorSession(stub, recorder, nil)
	s.SelectImage("A")

	done := make(chan State, 1)
	go func() {
		st, _ := s.Analyze(context.Background())
		done <- st
	}()
	<-stub.started

	s.SelectImage("B")
	close(stub.release)

	assert.Equal(t, ImageSelected{Image: "B"}, <-done)
	assert.Equal(t, ImageSelected{Image: "B"}, s.State())
	s.Wait()
	assert.Empty(t, recorder.entries)
}

func TestReanalyzeAfterOutcome(t *testing.T) {
	stub := &stubClassifier{err: errors.New("down")}
	s := NewDetectorSession(stub, nil, nil)
	s.SelectImage("A")

	_, err := s.Analyze(context.Background())
	require.Error(t, err)

	stub.err = nil
	st, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "succeeded", st.Phase())

	first := st.(Succeeded).Result
	st, err = s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, st.(Succeeded).Result)
	assert.Equal(t, 3, stub.calls)
}
