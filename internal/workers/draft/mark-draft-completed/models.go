// internal/workers/draft/mark-draft-completed/models.go
package markdraftcompleted

type Input struct {
	ApplicationID   string `json:"applicationId"`
	ExpectedVersion int    `json:"expectedVersion"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Completed     bool   `json:"completed"`
	Progress      int    `json:"progress"`
	CurrentTab    string `json:"currentTab"`
	Version       int    `json:"version"`
	AlreadyDone   bool   `json:"alreadyDone"`
	CompletedAt   string `json:"completedAt"` // ISO 8601
}
