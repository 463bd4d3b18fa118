// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// triggerSchema validates the body of a POST /v1/missions/{id}/match
// request. The mission id rides in the path; the body only carries
// optional re-trigger flags.
var triggerSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"force": map[string]interface{}{
			"type":        "boolean",
			"description": "re-notify nurses already notified for this mission",
		},
		"reason": map[string]interface{}{
			"type":      "string",
			"maxLength": 256,
		},
	},
	"additionalProperties": false,
}

// ValidateTriggerPayload checks a decoded trigger body against the schema.
func ValidateTriggerPayload(body map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(triggerSchema)
	documentLoader := gojsonschema.NewGoLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("trigger validation failed: %v", errs)
	}

	return nil
}
