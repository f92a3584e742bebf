// internal/models/bank.go
package models

// BankCandidate is a reference entry for a partner acquiring bank with a
// static compatibility score. Read-only reference data; a submission snapshots
// the scores it was shown rather than re-reading this list later.
type BankCandidate struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	CompatibilityScore int    `json:"compatibilityScore"`
	Notes              string `json:"notes"`
	APIAvailable       bool   `json:"apiAvailable"`
	SubmitURL          string `json:"submitUrl,omitempty"`
}

// PartnerBanks is the static candidate list surfaced by the routing workers.
var PartnerBanks = []BankCandidate{
	{
		ID:                 "first-national",
		Name:               "First National Merchant Services",
		CompatibilityScore: 92,
		Notes:              "Strong fit for retail and restaurant MCCs",
		APIAvailable:       true,
		SubmitURL:          "https://partners.firstnational.example.com/v1/applications",
	},
	{
		ID:                 "harborstone",
		Name:               "Harborstone Acquiring",
		CompatibilityScore: 87,
		Notes:              "Fast underwriting for sub-$100k monthly volume",
		APIAvailable:       true,
		SubmitURL:          "https://api.harborstone.example.com/applications",
	},
	{
		ID:                 "meridian-trust",
		Name:               "Meridian Trust Bank",
		CompatibilityScore: 78,
		Notes:              "Requires two years of processing history",
		APIAvailable:       false,
	},
	{
		ID:                 "citadel-pay",
		Name:               "Citadel Payment Bank",
		CompatibilityScore: 71,
		Notes:              "High-risk verticals accepted with reserve",
		APIAvailable:       true,
		SubmitURL:          "https://gateway.citadelpay.example.com/v2/merchant-apps",
	},
	{
		ID:                 "oakline",
		Name:               "Oakline Community Bank",
		CompatibilityScore: 64,
		Notes:              "Manual intake only, 5-7 business day turnaround",
		APIAvailable:       false,
	},
}

// FindBank returns the candidate with the given id, or nil.
func FindBank(id string) *BankCandidate {
	for i := range PartnerBanks {
		if PartnerBanks[i].ID == id {
			return &PartnerBanks[i]
		}
	}
	return nil
}
