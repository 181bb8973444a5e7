package domain

import "time"

// Role identifies the author of a message within a session.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ValidRole reports whether r belongs to the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	default:
		return false
	}
}

// Message is one immutable turn in a conversation session. Messages are
// strictly ordered by Position within their session and never mutated after
// insertion.
type Message struct {
	ID        string
	SessionID string
	Role      Role
	Content   string
	Position  int64
	CreatedAt time.Time
}

// SessionSummary is a lightweight index entry over stored sessions.
type SessionSummary struct {
	SessionID    string
	MessageCount int64
	LastActivity time.Time
}
