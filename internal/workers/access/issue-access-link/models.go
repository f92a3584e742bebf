// internal/workers/access/issue-access-link/models.go
package issueaccesslink

type Input struct {
	ApplicationID string `json:"applicationId"`
	Resend        bool   `json:"resend"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	AccessLink    string `json:"accessLink"`
	OTPExpiresAt  string `json:"otpExpiresAt"` // ISO 8601
	EmailSent     bool   `json:"emailSent"`
	MessageID     string `json:"messageId,omitempty"`
}
