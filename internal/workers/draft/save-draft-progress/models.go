// internal/workers/draft/save-draft-progress/models.go
package savedraftprogress

type Input struct {
	ApplicationID   string                 `json:"applicationId"`
	CurrentTab      string                 `json:"currentTab"`
	Direction       string                 `json:"direction"` // next | previous | stay
	Payload         map[string]interface{} `json:"payload"`
	ExpectedVersion int                    `json:"expectedVersion"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	SavedTab      string `json:"savedTab"`
	CurrentTab    string `json:"currentTab"` // tab after navigation
	Progress      int    `json:"progress"`
	Version       int    `json:"version"`
	UpdatedAt     string `json:"updatedAt"` // ISO 8601
}
