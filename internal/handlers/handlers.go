package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/example/meddetect/internal/classifier"
	"github.com/example/meddetect/internal/logging"
	"github.com/example/meddetect/internal/repository"
)

// MaxBodySize bounds request bodies; image payloads arrive as data URLs.
const MaxBodySize = 20 << 20

// Route paths mirror the hosted backend the browser client was written against.
const (
	DetectPath          = "/functions/v1/detect-cancer"
	DetectionsTablePath = "/rest/v1/cancer_detections"
	ContactTablePath    = "/rest/v1/contact_messages"
)

// Classifier produces a classification for an encoded image payload.
type Classifier interface {
	Classify(ctx context.Context, requestID, imageData string) (classifier.Result, error)
}

// DetectionLogger persists detection logs.
type DetectionLogger interface {
	LogDetection(ctx context.Context, requestID string, log *repository.DetectionLog) error
}

// ContactSubmitter persists contact messages.
type ContactSubmitter interface {
	Submit(ctx context.Context, requestID string, msg *repository.ContactMessage) error
}

// Dependencies are the collaborators the routes delegate to.
type Dependencies struct {
	Classifier Classifier
	Detections DetectionLogger
	Contacts   ContactSubmitter
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type classifyRequest struct {
	ImageData string `json:"imageData"`
}

type detectionInsertRequest struct {
	ImageURL           string          `json:"image_url"`
	DetectedCancerType string          `json:"detected_cancer_type"`
	ConfidenceScore    int             `json:"confidence_score"`
	AdditionalInfo     json.RawMessage `json:"additional_info"`
}

type contactInsertRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Subject string  `json:"subject"`
	Message string  `json:"message"`
}

type handler struct {
	deps   Dependencies
	logger *zap.Logger
}

// RegisterRoutes wires the middleware chain and HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, deps Dependencies, extra ...gin.HandlerFunc) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{deps: deps, logger: logger.Named("handlers")}

	router.Use(RequestID(), Recovery(logger), CORS())
	router.Use(extra...)
	router.Use(RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	router.POST(DetectPath, h.detect)
	router.POST(DetectionsTablePath, h.insertDetection)
	router.POST(ContactTablePath, h.insertContact)
}

func (h *handler) detect(c *gin.Context) {
	requestID := c.GetString(requestIDKey)

	var req classifyRequest
	if err := bindJSON(c, &req); err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "Image payload too large"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to analyze image", Details: err.Error()})
		return
	}

	result, err := h.deps.Classifier.Classify(c.Request.Context(), requestID, req.ImageData)
	if err != nil {
		if errors.Is(err, classifier.ErrMissingInput) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "No image data provided"})
			return
		}
		logging.WithOperation(h.logger, "handlers.detect", requestID).Error("classification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to analyze image", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) insertDetection(c *gin.Context) {
	requestID := c.GetString(requestIDKey)

	var req detectionInsertRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid detection payload", Details: err.Error()})
		return
	}

	log := &repository.DetectionLog{
		ImageURL:           req.ImageURL,
		DetectedCancerType: req.DetectedCancerType,
		ConfidenceScore:    req.ConfidenceScore,
	}
	if len(req.AdditionalInfo) > 0 && string(req.AdditionalInfo) != "null" {
		log.AdditionalInfo = datatypes.JSON(req.AdditionalInfo)
	}

	if err := h.deps.Detections.LogDetection(c.Request.Context(), requestID, log); err != nil {
		logging.WithOperation(h.logger, "handlers.insert_detection", requestID).Error("insert failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to store detection", Details: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": log.ID})
}

func (h *handler) insertContact(c *gin.Context) {
	requestID := c.GetString(requestIDKey)

	var req contactInsertRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid contact payload", Details: err.Error()})
		return
	}

	msg := &repository.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.deps.Contacts.Submit(c.Request.Context(), requestID, msg); err != nil {
		logging.WithOperation(h.logger, "handlers.insert_contact", requestID).Error("insert failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to send message", Details: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": msg.ID})
}

func bindJSON(c *gin.Context, dst any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodySize)
	return c.ShouldBindJSON(dst)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
