// internal/workers/routing/score-bank-candidates/models.go
package scorebankcandidates

import "merchant-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	MinScore      int    `json:"minScore"` // 0 returns all candidates
}

type Output struct {
	ApplicationID string                 `json:"applicationId"`
	Candidates    []models.BankCandidate `json:"candidates"`
	FromCache     bool                   `json:"fromCache"`
	ScoredAt      string                 `json:"scoredAt"` // ISO 8601
}
