// internal/workers/draft/create-draft/models.go
package createdraft

type Input struct {
	MerchantName  string `json:"merchantName"`
	MerchantEmail string `json:"merchantEmail"`
	BusinessType  string `json:"businessType"`
	MonthlyVolume string `json:"monthlyVolume"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	CurrentTab    string `json:"currentTab"`
	Progress      int    `json:"progress"`
	Version       int    `json:"version"`
	AccessLink    string `json:"accessLink"`
	OTPExpiresAt  string `json:"otpExpiresAt"` // ISO 8601
	CreatedAt     string `json:"createdAt"`    // ISO 8601
}
