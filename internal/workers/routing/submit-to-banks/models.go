// internal/workers/routing/submit-to-banks/models.go
package submittobanks

type Input struct {
	ApplicationID string   `json:"applicationId"`
	BankIDs       []string `json:"bankIds"`
}

// Submission statuses per bank
const (
	StatusSubmitted   = "submitted"
	StatusManualQueue = "manual_queue"
	StatusFailed      = "failed"
)

type BankResult struct {
	BankID    string `json:"bankId"`
	BankName  string `json:"bankName"`
	Score     int    `json:"score"` // compatibility score snapshotted at submit time
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Output struct {
	ApplicationID string       `json:"applicationId"`
	Results       []BankResult `json:"results"`
	SubmittedAt   string       `json:"submittedAt"` // ISO 8601
}

// bankSubmission is the request body sent to a partner bank API.
type bankSubmission struct {
	ApplicationID   string                 `json:"applicationId"`
	MerchantName    string                 `json:"merchantName"`
	MerchantEmail   string                 `json:"merchantEmail"`
	ApplicationData map[string]interface{} `json:"applicationData"`
	CallbackURL     string                 `json:"callbackUrl,omitempty"`
}

// bankResponse is the acknowledgment returned by a partner bank API.
type bankResponse struct {
	Reference string `json:"reference"`
	Accepted  bool   `json:"accepted"`
}
