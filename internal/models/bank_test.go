// internal/models/bank_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBank(t *testing.T) {
	bank := FindBank("first-national")
	require.NotNil(t, bank)
	assert.Equal(t, "First National Merchant Services", bank.Name)
	assert.Equal(t, 92, bank.CompatibilityScore)
	assert.True(t, bank.APIAvailable)

	assert.Nil(t, FindBank("no-such-bank"))
}

func TestPartnerBanks_ManualBanksHaveNoSubmitURL(t *testing.T) {
	for _, bank := range PartnerBanks {
		if bank.APIAvailable {
			assert.NotEmpty(t, bank.SubmitURL, "API bank %s must have a submit URL", bank.ID)
		} else {
			assert.Empty(t, bank.SubmitURL, "manual bank %s must not have a submit URL", bank.ID)
		}
	}
}

func TestIsValidAction(t *testing.T) {
	assert.True(t, IsValidAction(ActionDeclined))
	assert.True(t, IsValidAction(ActionRemoved))
	assert.False(t, IsValidAction("approved"))
	assert.False(t, IsValidAction(""))
}
