package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/meddetect/internal/logging"
	"github.com/example/meddetect/internal/repository"
)

// ContactRepository defines the persistence operation needed for contact messages.
type ContactRepository interface {
	InsertContactMessage(ctx context.Context, requestID string, msg *repository.ContactMessage) error
}

// ContactUseCase stores contact form submissions.
type ContactUseCase struct {
	repo    ContactRepository
	metrics *Metrics
	logger  *zap.Logger
}

// NewContactUseCase constructs a new use case instance.
func NewContactUseCase(repo ContactRepository, metrics *Metrics, logger *zap.Logger) *ContactUseCase {
	return &ContactUseCase{repo: repo, metrics: metrics, logger: logger.Named("contact_usecase")}
}

// Submit inserts msg once. Empty phone numbers are stored as NULL.
func (uc *ContactUseCase) Submit(ctx context.Context, requestID string, msg *repository.ContactMessage) error {
	if msg.Phone != nil && *msg.Phone == "" {
		msg.Phone = nil
	}

	err := uc.repo.InsertContactMessage(ctx, requestID, msg)
	uc.metrics.PersistenceWrites.WithLabelValues(msg.TableName(), resultLabel(err)).Inc()
	if err != nil {
		return logging.NewOperationError("usecase.submit_contact", requestID, err)
	}

	logging.WithOperation(uc.logger, "usecase.submit_contact", requestID).Info("contact message stored", zap.String("id", msg.ID))
	return nil
}
