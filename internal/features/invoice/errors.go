package invoice

import "errors"

var (
	ErrNotFound      = errors.New("invoice not found")
	ErrAlreadyPaid   = errors.New("invoice is already paid")
	ErrStillDraft    = errors.New("invoice has not been sent yet")
	ErrNotYetOverdue = errors.New("invoice is not overdue yet")
	ErrNoRecipient   = errors.New("no recipient email on linked contact or company")
	ErrNoStepDue     = errors.New("no reminder step is due for this invoice")

	// ErrReminderConflict means a concurrent send logged the same step
	// first; the caller lost cleanly and nothing was sent twice.
	ErrReminderConflict = errors.New("reminder step was already sent")
)
