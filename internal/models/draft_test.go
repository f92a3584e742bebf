// internal/models/draft_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressForStep(t *testing.T) {
	tests := []struct {
		step StepID
		want int
	}{
		{StepBusiness, 14},
		{StepOwnership, 29},
		{StepOperations, 43},
		{StepMarketing, 57},
		{StepFinancial, 71},
		{StepProcessing, 86},
		{StepDocuments, 100},
		{StepID("unknown"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			assert.Equal(t, tt.want, ProgressForStep(tt.step))
		})
	}
}

func TestStepIndex(t *testing.T) {
	assert.Equal(t, 0, StepIndex(StepBusiness))
	assert.Equal(t, 6, StepIndex(StepDocuments))
	assert.Equal(t, -1, StepIndex(StepID("banking")))
}

func TestIsValidStep(t *testing.T) {
	for _, step := range StepOrder {
		assert.True(t, IsValidStep(step), "expected %s to be valid", step)
	}
	assert.False(t, IsValidStep(StepID("")))
	assert.False(t, IsValidStep(StepID("Business")))
}

func TestDraft_IsTerminal(t *testing.T) {
	assert.False(t, (&Draft{}).IsTerminal())
	assert.False(t, (&Draft{Status: "active"}).IsTerminal())
	assert.True(t, (&Draft{Status: StatusDeclined}).IsTerminal())
	assert.True(t, (&Draft{Status: StatusRemoved}).IsTerminal())
}
