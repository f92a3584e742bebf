// internal/models/draft.go
package models

import "time"

// StepID identifies one of the seven fixed application form steps.
type StepID string

const (
	StepBusiness   StepID = "business"
	StepOwnership  StepID = "ownership"
	StepOperations StepID = "operations"
	StepMarketing  StepID = "marketing"
	StepFinancial  StepID = "financial"
	StepProcessing StepID = "processing"
	StepDocuments  StepID = "documents"
)

// StepOrder is the fixed traversal order of the application form.
var StepOrder = []StepID{
	StepBusiness,
	StepOwnership,
	StepOperations,
	StepMarketing,
	StepFinancial,
	StepProcessing,
	StepDocuments,
}

// Draft status markers. An empty status means the draft is active.
const (
	StatusDeclined = "declined"
	StatusRemoved  = "removed"
)

// Navigation directions accepted by the save-draft-progress worker.
const (
	DirectionNext     = "next"
	DirectionPrevious = "previous"
	DirectionStay     = "stay"
)

// Draft is a persisted, partially- or fully-filled merchant application.
type Draft struct {
	ID              string                            `json:"id"`
	MerchantName    string                            `json:"merchantName"`
	MerchantEmail   string                            `json:"merchantEmail"`
	ApplicationData map[StepID]map[string]interface{} `json:"applicationData"`
	Progress        int                               `json:"progress"`
	CurrentTab      StepID                            `json:"currentTab"`
	Completed       bool                              `json:"completed"`
	OTP             string                            `json:"-"`
	ExpiresAt       time.Time                         `json:"expiresAt"`
	Status          string                            `json:"status,omitempty"`
	ActionReason    string                            `json:"actionReason,omitempty"`
	ActionedBy      string                            `json:"actionedBy,omitempty"`
	ActionedAt      *time.Time                        `json:"actionedAt,omitempty"`
	Version         int                               `json:"version"`
	CreatedAt       time.Time                         `json:"createdAt"`
	UpdatedAt       time.Time                         `json:"updatedAt"`
}

// IsTerminal reports whether the draft has been declined or removed.
func (d *Draft) IsTerminal() bool {
	return d.Status == StatusDeclined || d.Status == StatusRemoved
}

// StepIndex returns the position of step in StepOrder, or -1 for unknown steps.
func StepIndex(step StepID) int {
	for i, s := range StepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// IsValidStep reports whether step is one of the seven known identifiers.
func IsValidStep(step StepID) bool {
	return StepIndex(step) >= 0
}

// ProgressForStep computes the displayed percentage for a step:
// round((index+1)/7 * 100). The first step yields 14, the last 100.
func ProgressForStep(step StepID) int {
	idx := StepIndex(step)
	if idx < 0 {
		return 0
	}
	return progressForIndex(idx)
}

func progressForIndex(idx int) int {
	n := len(StepOrder)
	// round to nearest integer percent
	return (100*(idx+1) + n/2) / n
}
