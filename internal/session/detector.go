// Package session holds the client-side state machines for one upload and
// classification attempt and for the contact form.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/example/meddetect/internal/classifier"
	"github.com/example/meddetect/internal/client"
)

const defaultAnalysisError = "An error occurred during analysis"

var (
	// ErrNoImage is returned by Analyze before an image has been selected.
	ErrNoImage = errors.New("no image selected")
	// ErrBusy is returned while a request from the same session is in flight.
	ErrBusy = errors.New("request already in progress")
)

// Classifier sends an encoded image for classification.
type Classifier interface {
	Classify(ctx context.Context, imageData string) (classifier.Result, error)
}

// DetectionRecorder stores detection logs.
type DetectionRecorder interface {
	InsertDetection(ctx context.Context, entry client.DetectionLogEntry) error
}

// State is one of Idle, ImageSelected, Analyzing, Succeeded or Failed.
type State interface {
	Phase() string
	state()
}

// Idle holds nothing.
type Idle struct{}

// ImageSelected holds an encoded image ready for analysis.
type ImageSelected struct{ Image string }

// Analyzing holds the image currently being classified.
type Analyzing struct{ Image string }

// Succeeded holds the image and its classification.
type Succeeded struct {
	Image  string
	Result classifier.Result
}

// Failed holds the image and the message shown to the user.
type Failed struct {
	Image   string
	Message string
}

func (Idle) Phase() string          { return "idle" }
func (ImageSelected) Phase() string { return "image_selected" }
func (Analyzing) Phase() string     { return "analyzing" }
func (Succeeded) Phase() string     { return "succeeded" }
func (Failed) Phase() string        { return "failed" }

func (Idle) state()          {}
func (ImageSelected) state() {}
func (Analyzing) state()     {}
func (Succeeded) state()     {}
func (Failed) state()        {}

// DetectorSession drives a single client through image selection and
// classification. At most one classification is in flight at a time.
type DetectorSession struct {
	classifier Classifier
	recorder   DetectionRecorder
	logger     *zap.Logger

	mu         sync.Mutex
	current    State
	generation uint64

	writes sync.WaitGroup
}

// NewDetectorSession creates a session in the Idle state. recorder may be nil,
// in which case detections are not logged.
func NewDetectorSession(c Classifier, recorder DetectionRecorder, logger *zap.Logger) *DetectorSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectorSession{
		classifier: c,
		recorder:   recorder,
		logger:     logger.Named("detector_session"),
		current:    Idle{},
	}
}

// State returns the current state.
func (s *DetectorSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SelectImage replaces the held image and clears any result or error. An
// in-flight classification for the previous image is discarded on arrival.
func (s *DetectorSession) SelectImage(image string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if image == "" {
		s.current = Idle{}
	} else {
		s.current = ImageSelected{Image: image}
	}
	return s.current
}

// Analyze classifies the held image and returns the resulting state.
func (s *DetectorSession) Analyze(ctx context.Context) (State, error) {
	s.mu.Lock()
	var image string
	switch st := s.current.(type) {
	case Idle:
		s.mu.Unlock()
		return st, ErrNoImage
	case Analyzing:
		s.mu.Unlock()
		return st, ErrBusy
	case ImageSelected:
		image = st.Image
	case Succeeded:
		image = st.Image
	case Failed:
		image = st.Image
	}
	s.current = Analyzing{Image: image}
	gen := s.generation
	s.mu.Unlock()

	result, err := s.classifier.Classify(ctx, image)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// A new image was picked while this request was in flight.
		return s.current, nil
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = defaultAnalysisError
		}
		s.logger.Info("analysis failed", zap.Error(err))
		s.current = Failed{Image: image, Message: msg}
		return s.current, err
	}

	s.current = Succeeded{Image: image, Result: result}
	s.recordDetection(ctx, result)
	return s.current, nil
}

// Wait blocks until all dispatched detection log writes have finished.
func (s *DetectorSession) Wait() {
	s.writes.Wait()
}

// recordDetection dispatches the detection log write without waiting for it.
// Its outcome is logged and never reflected in the session state.
func (s *DetectorSession) recordDetection(ctx context.Context, result classifier.Result) {
	if s.recorder == nil {
		return
	}

	entry := client.DetectionLogEntry{
		ImageURL:           client.PlaceholderImageURL,
		DetectedCancerType: result.CancerType,
		ConfidenceScore:    result.Confidence,
		AdditionalInfo: client.AdditionalInfo{
			Description:     result.Description,
			Recommendations: result.Recommendations,
		},
	}
	writeCtx := context.WithoutCancel(ctx)

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := s.recorder.InsertDetection(writeCtx, entry); err != nil {
			s.logger.Warn("failed to record detection", zap.Error(err))
			return
		}
		s.logger.Debug("detection recorded", zap.String("cancer_type", entry.DetectedCancerType))
	}()
}
