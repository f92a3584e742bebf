// internal/workers/draft/save-draft-progress/validation.go
package savedraftprogress

import (
	"fmt"
	"strings"

	"merchant-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Per-step payload schemas. Saves are partial by design, so no field is
// required; the schemas only reject values of the wrong shape.
var stepSchemas = map[models.StepID]string{
	models.StepBusiness: `{
		"type": "object",
		"properties": {
			"legalName":     {"type": "string"},
			"dbaName":       {"type": "string"},
			"businessType":  {"type": "string"},
			"ein":           {"type": "string"},
			"phone":         {"type": "string"},
			"website":       {"type": "string"}
		}
	}`,
	models.StepOwnership: `{
		"type": "object",
		"properties": {
			"owners": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"fullName":         {"type": "string"},
						"ownershipPercent": {"type": "number"},
						"ssnLast4":         {"type": "string"}
					}
				}
			}
		}
	}`,
	models.StepOperations: `{
		"type": "object",
		"properties": {
			"mcc":             {"type": "string"},
			"productsSold":    {"type": "string"},
			"fulfillmentDays": {"type": "number"},
			"refundPolicy":    {"type": "string"}
		}
	}`,
	models.StepMarketing: `{
		"type": "object",
		"properties": {
			"channels":      {"type": "array", "items": {"type": "string"}},
			"cardPresent":   {"type": "boolean"},
			"ecommerceURL":  {"type": "string"}
		}
	}`,
	models.StepFinancial: `{
		"type": "object",
		"properties": {
			"bankName":         {"type": "string"},
			"routingNumber":    {"type": "string"},
			"accountNumber":    {"type": "string"},
			"annualRevenue":    {"type": "number"}
		}
	}`,
	models.StepProcessing: `{
		"type": "object",
		"properties": {
			"monthlyVolume":      {"type": "number"},
			"averageTicket":      {"type": "number"},
			"highTicket":         {"type": "number"},
			"currentProcessor":   {"type": "string"}
		}
	}`,
	models.StepDocuments: `{
		"type": "object",
		"properties": {
			"acknowledged": {"type": "boolean"},
			"documentIds":  {"type": "array", "items": {"type": "string"}}
		}
	}`,
}

// validatePayload checks a step payload against its schema. A nil payload is
// valid (pure navigation saves carry no field data).
func validatePayload(step models.StepID, payload map[string]interface{}) error {
	if payload == nil {
		return nil
	}

	schema, ok := stepSchemas[step]
	if !ok {
		return fmt.Errorf("no schema for step %q", step)
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("payload invalid for step %q: %s", step, strings.Join(msgs, "; "))
	}

	return nil
}
