// internal/models/action_log.go
package models

import "time"

// Terminal actions staff can take against a draft.
const (
	ActionDeclined = "declined"
	ActionRemoved  = "removed"
)

// ActionLogEntry is an immutable audit record of a staff decline/remove
// decision. Entries are append-only: no update or delete path exists.
type ActionLogEntry struct {
	ID            int64     `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Action        string    `json:"action"`
	Reason        string    `json:"reason"`
	ActionedBy    string    `json:"actionedBy"`
	ActionedAt    time.Time `json:"actionedAt"`
}

// IsValidAction reports whether action is a recognized terminal action.
func IsValidAction(action string) bool {
	return action == ActionDeclined || action == ActionRemoved
}
