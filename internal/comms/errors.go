package comms

import "errors"

var (
	ErrNotFound           = errors.New("communication not found")
	ErrQuotaExceeded      = errors.New("communication quota exhausted for event")
	ErrNoRegistrants      = errors.New("event has no registrants")
	ErrNoValidRecipients  = errors.New("no registrants with a deliverable address")
	ErrNoRetryableRecords = errors.New("no failed records eligible for retry")
	ErrNotRetryable       = errors.New("communication is not in a retryable state")
)
