package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DetectionLog is a persisted classification outcome.
type DetectionLog struct {
	ID                 string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ImageURL           string         `gorm:"column:image_url;type:text;not null" json:"image_url"`
	DetectedCancerType string         `gorm:"column:detected_cancer_type;type:text;not null" json:"detected_cancer_type"`
	ConfidenceScore    int            `gorm:"column:confidence_score;not null" json:"confidence_score"`
	AdditionalInfo     datatypes.JSON `gorm:"column:additional_info;type:jsonb" json:"additional_info"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the default table name.
func (DetectionLog) TableName() string {
	return "cancer_detections"
}

// BeforeCreate assigns an id when the caller did not.
func (d *DetectionLog) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// ContactMessage is a persisted contact form submission.
type ContactMessage struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:text;not null" json:"name"`
	Email     string    `gorm:"column:email;type:text;not null" json:"email"`
	Phone     *string   `gorm:"column:phone;type:text" json:"phone"`
	Subject   string    `gorm:"column:subject;type:text;not null" json:"subject"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the default table name.
func (ContactMessage) TableName() string {
	return "contact_messages"
}

// BeforeCreate assigns an id when the caller did not.
func (m *ContactMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
