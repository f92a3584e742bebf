// internal/workers/access/validate-access-otp/models.go
package validateaccessotp

import "merchant-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	OTP           string `json:"otp"`
}

// Output carries the full draft on success: validation is how a merchant
// resumes, so the caller gets everything needed to re-render the form.
type Output struct {
	ApplicationID    string                                   `json:"applicationId"`
	Valid            bool                                     `json:"valid"`
	SessionToken     string                                   `json:"sessionToken,omitempty"`
	SessionExpiresAt string                                   `json:"sessionExpiresAt,omitempty"` // ISO 8601
	MerchantName     string                                   `json:"merchantName,omitempty"`
	MerchantEmail    string                                   `json:"merchantEmail,omitempty"`
	ApplicationData  map[models.StepID]map[string]interface{} `json:"applicationData,omitempty"`
	CurrentTab       string                                   `json:"currentTab,omitempty"`
	Progress         int                                      `json:"progress"`
	Completed        bool                                     `json:"completed"`
	Version          int                                      `json:"version,omitempty"`
}
