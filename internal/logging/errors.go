package logging

import (
	"errors"
	"strings"
)

// OperationError records which operation failed and, for request-scoped
// work, the request id, so a log line or HTTP details field can point back
// to the call that produced it.
type OperationError struct {
	Operation string
	RequestID string
	Err       error
}

// Error renders "<operation> (request_id=<id>): <cause>", dropping the
// request part for work that is not tied to a request. A nil receiver or a
// missing cause yields an empty string.
func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.Operation)
	if e.RequestID != "" {
		b.WriteString(" (request_id=")
		b.WriteString(e.RequestID)
		b.WriteByte(')')
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap exposes the cause so sentinels such as client.ErrTransport stay
// reachable through errors.Is.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError tags err with the operation and request it belongs to.
// It returns nil for a nil err so call sites can wrap unconditionally.
func NewOperationError(operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, RequestID: requestID, Err: err}
}

// OperationOf reports the innermost operation name recorded in err's chain,
// or "unknown" when none was recorded.
func OperationOf(err error) string {
	name := "unknown"
	for err != nil {
		var opErr *OperationError
		if !errors.As(err, &opErr) {
			break
		}
		name = opErr.Operation
		err = opErr.Err
	}
	return name
}
