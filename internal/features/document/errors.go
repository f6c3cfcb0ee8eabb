package document

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrEmptySubmission = errors.New("timesheet has no entries to submit")
	ErrMissingReceipt  = errors.New("reimbursable expense requires a receipt reference")
)

// InvalidStateError is returned when a document is not in its submittable
// state. It carries the status observed so the caller can act on it.
type InvalidStateError struct {
	Type   DocumentType
	Status DocumentStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s with status '%s' cannot be submitted", e.Type, e.Status)
}
