// Package client talks to the classification endpoint and the persistence
// tables over HTTP, using the configured base URL and access credential.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/meddetect/internal/classifier"
	"github.com/example/meddetect/internal/logging"
)

const (
	detectPath          = "/functions/v1/detect-cancer"
	detectionsTablePath = "/rest/v1/cancer_detections"
	contactTablePath    = "/rest/v1/contact_messages"

	// PlaceholderImageURL is stored in place of a real image reference;
	// uploaded images are not kept anywhere.
	PlaceholderImageURL = "base64_image"

	// AnalysisFailedMessage is shown for any unsuccessful classification response.
	AnalysisFailedMessage = "Analysis failed. Please try again."
)

var (
	// ErrTransport marks failures to reach the service at all.
	ErrTransport = errors.New("transport failure")
	// ErrServerFault marks 5xx responses.
	ErrServerFault = errors.New("server fault")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Operation == "client.classify" {
		return AnalysisFailedMessage
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
}

// Is maps status codes onto the error taxonomy.
func (e *APIError) Is(target error) bool {
	switch target {
	case classifier.ErrMissingInput:
		return e.StatusCode == http.StatusBadRequest && e.Operation == "client.classify"
	case ErrServerFault:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// DetectionLogEntry is the row written after a successful classification.
type DetectionLogEntry struct {
	ImageURL           string         `json:"image_url"`
	DetectedCancerType string         `json:"detected_cancer_type"`
	ConfidenceScore    int            `json:"confidence_score"`
	AdditionalInfo     AdditionalInfo `json:"additional_info"`
}

// AdditionalInfo is the free-form payload stored with a detection log.
type AdditionalInfo struct {
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

// ContactMessage is a contact form submission. A nil Phone is sent as null.
type ContactMessage struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Subject string  `json:"subject"`
	Message string  `json:"message"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for baseURL authenticated with apiKey. Requests carry
// no deadline of their own; callers bound them through ctx.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("client")
	return c
}

// HTTPClient exposes the underlying *http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Classify sends imageData to the classification endpoint.
func (c *Client) Classify(ctx context.Context, imageData string) (classifier.Result, error) {
	var result classifier.Result
	if err := c.post(ctx, "client.classify", detectPath, map[string]string{"imageData": imageData}, &result); err != nil {
		return classifier.Result{}, err
	}
	return result, nil
}

// InsertDetection writes a detection log row.
func (c *Client) InsertDetection(ctx context.Context, entry DetectionLogEntry) error {
	return c.post(ctx, "client.insert_detection", detectionsTablePath, entry, nil)
}

// InsertContactMessage writes a contact message row.
func (c *Client) InsertContactMessage(ctx context.Context, msg ContactMessage) error {
	return c.post(ctx, "client.insert_contact_message", contactTablePath, msg, nil)
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return logging.NewOperationError(operation, "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return logging.NewOperationError(operation, "", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("operation", operation), zap.Error(err))
		return logging.NewOperationError(operation, "", fmt.Errorf("%w: %w", ErrTransport, err))
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get("X-Request-ID")
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return logging.NewOperationError(operation, requestID, fmt.Errorf("%w: %w", ErrTransport, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Operation: operation, StatusCode: resp.StatusCode}
		var envelope struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Message = envelope.Error
			apiErr.Details = envelope.Details
		}
		c.logger.Warn("unsuccessful response",
			zap.String("operation", operation),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("error", apiErr.Message),
			zap.String("details", apiErr.Details),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return logging.NewOperationError(operation, requestID, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
