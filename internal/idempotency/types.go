package idempotency

import "time"

// Claim states.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Record is one claim as persisted in the claims table.
type Record struct {
	Key       string    `dynamodbav:"claim_key"` // PK
	Status    string    `dynamodbav:"status"`
	Reference string    `dynamodbav:"reference,omitempty"`
	Outcome   string    `dynamodbav:"outcome,omitempty"` // JSON of the finished result, replayed to duplicates
	Note      string    `dynamodbav:"note,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

// Finished reports whether the claim holds a final outcome.
func (r *Record) Finished() bool {
	return r != nil && r.Status == StatusDone
}
