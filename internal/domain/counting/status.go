package counting

// SessionStatus represents the lifecycle state of a count session
type SessionStatus string

const (
	SessionStatusOpen       SessionStatus = "open"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusApproved   SessionStatus = "approved"
)

// nextStatus is the transition table. Each state has exactly one successor;
// approved has none.
var nextStatus = map[SessionStatus]SessionStatus{
	SessionStatusOpen:       SessionStatusInProgress,
	SessionStatusInProgress: SessionStatusCompleted,
	SessionStatusCompleted:  SessionStatusApproved,
}

// IsValid checks if the status is a known SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusOpen, SessionStatusInProgress, SessionStatusCompleted, SessionStatusApproved:
		return true
	}
	return false
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// Next returns the successor state, or false for the terminal state
func (s SessionStatus) Next() (SessionStatus, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

// CanTransitionTo checks if the status can move to target
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// IsTerminal returns true for approved
func (s SessionStatus) IsTerminal() bool {
	_, ok := nextStatus[s]
	return s.IsValid() && !ok
}

// AcceptsCounts returns true while counts may still be recorded
func (s SessionStatus) AcceptsCounts() bool {
	return s == SessionStatusOpen || s == SessionStatusInProgress
}

// SessionStatuses lists all statuses in lifecycle order
func SessionStatuses() []SessionStatus {
	return []SessionStatus{
		SessionStatusOpen,
		SessionStatusInProgress,
		SessionStatusCompleted,
		SessionStatusApproved,
	}
}
