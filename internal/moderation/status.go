package moderation

// Status is the authoritative moderation decision state of an entry.
type Status string

const (
	StatusPending       Status = "pending"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusFlagged       Status = "flagged"
)

// Valid reports whether s is one of the known moderation statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPendingReview, StatusApproved, StatusRejected, StatusFlagged:
		return true
	default:
		return false
	}
}

// Final reports whether s is a terminal decision rather than a queue state.
func (s Status) Final() bool {
	return s == StatusApproved || s == StatusRejected
}
