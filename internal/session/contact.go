package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/meddetect/internal/client"
)

// DefaultResetDelay is how long a success status stays visible.
const DefaultResetDelay = 5 * time.Second

const defaultSendError = "Failed to send message"

// ErrRequiredField is returned when a required form field is blank.
var ErrRequiredField = errors.New("required field is empty")

// Status is the outcome indicator shown next to the contact form.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ContactFields are the values typed into the form.
type ContactFields struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// ContactSnapshot is a point-in-time view of the form.
type ContactSnapshot struct {
	Fields       ContactFields
	Status       Status
	ErrorMessage string
	Submitting   bool
}

// ContactSender stores contact messages.
type ContactSender interface {
	InsertContactMessage(ctx context.Context, msg client.ContactMessage) error
}

// ContactForm tracks one contact form. Successful submissions clear the
// fields; the success status reverts to idle after the reset delay.
type ContactForm struct {
	sender     ContactSender
	resetDelay time.Duration
	logger     *zap.Logger

	mu         sync.Mutex
	fields     ContactFields
	status     Status
	errMessage string
	submitting bool
	resetTimer *time.Timer
	generation uint64
}

// NewContactForm creates an empty form. A non-positive resetDelay uses DefaultResetDelay.
func NewContactForm(sender ContactSender, resetDelay time.Duration, logger *zap.Logger) *ContactForm {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactForm{
		sender:     sender,
		resetDelay: resetDelay,
		logger:     logger.Named("contact_form"),
		status:     StatusIdle,
	}
}

// SetFields replaces the form values.
func (f *ContactForm) SetFields(fields ContactFields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

// Snapshot returns the current form values and status.
func (f *ContactForm) Snapshot() ContactSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ContactSnapshot{
		Fields:       f.fields,
		Status:       f.status,
		ErrorMessage: f.errMessage,
		Submitting:   f.submitting,
	}
}

// Submit validates and sends the form once. There is no retry; a failed
// submission keeps the fields so the user can send again.
func (f *ContactForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	fields := f.fields
	if err := validate(fields); err != nil {
		f.mu.Unlock()
		return err
	}
	f.submitting = true
	f.status = StatusIdle
	f.errMessage = ""
	f.generation++
	gen := f.generation
	f.stopTimerLocked()
	f.mu.Unlock()

	msg := client.ContactMessage{
		Name:    fields.Name,
		Email:   fields.Email,
		Subject: fields.Subject,
		Message: fields.Message,
	}
	if fields.Phone != "" {
		phone := fields.Phone
		msg.Phone = &phone
	}

	err := f.sender.InsertContactMessage(ctx, msg)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		f.status = StatusError
		f.errMessage = err.Error()
		if f.errMessage == "" {
			f.errMessage = defaultSendError
		}
		f.logger.Info("contact submission failed", zap.Error(err))
		return err
	}

	f.status = StatusSuccess
	f.fields = ContactFields{}
	f.resetTimer = time.AfterFunc(f.resetDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation == gen && f.status == StatusSuccess {
			f.status = StatusIdle
		}
	})
	return nil
}

// Close stops a pending status reset.
func (f *ContactForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimerLocked()
}

func (f *ContactForm) stopTimerLocked() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
}

func validate(fields ContactFields) error {
	required := []struct {
		name  string
		value string
	}{
		{"name", fields.Name},
		{"email", fields.Email},
		{"subject", fields.Subject},
		{"message", fields.Message},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", ErrRequiredField, r.name)
		}
	}
	return nil
}
