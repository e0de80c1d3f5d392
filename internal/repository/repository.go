package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/meddetect/internal/logging"
)

// Repository persists detection logs and contact messages. It only inserts;
// nothing in the service reads these tables back.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a repository over db.
func New(db *gorm.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger.Named("repository")}
}

// AutoMigrate ensures both tables exist.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&DetectionLog{}, &ContactMessage{}); err != nil {
		return logging.NewOperationError("repository.auto_migrate", "", err)
	}
	return nil
}

// InsertDetection writes a single detection log row.
func (r *Repository) InsertDetection(ctx context.Context, requestID string, log *DetectionLog) error {
	return r.insert(ctx, "repository.insert_detection", requestID, log)
}

// InsertContactMessage writes a single contact message row.
func (r *Repository) InsertContactMessage(ctx context.Context, requestID string, msg *ContactMessage) error {
	return r.insert(ctx, "repository.insert_contact_message", requestID, msg)
}

func (r *Repository) insert(ctx context.Context, operation, requestID string, value any) error {
	if err := r.db.WithContext(ctx).Create(value).Error; err != nil {
		wrapped := logging.NewOperationError(operation, requestID, err)
		logging.WithOperation(r.logger, operation, requestID).Error("insert failed", zap.Error(err))
		return wrapped
	}
	return nil
}
