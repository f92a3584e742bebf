// internal/workers/actions/record-terminal-action/models.go
package recordterminalaction

type Input struct {
	ApplicationID string `json:"applicationId"`
	Action        string `json:"action"` // declined | removed
	Reason        string `json:"reason"`
	ActionedBy    string `json:"actionedBy"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Action        string `json:"action"`
	Status        string `json:"status"`
	ActionedAt    string `json:"actionedAt"` // ISO 8601
	Notified      bool   `json:"notified"`
}
