// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// applicationDataSchema guards the submission worker against malformed job
// variables before an attempt is started. Screening answers are free-form
// strings keyed by question id.
const applicationDataSchema = `{
	"type": "object",
	"required": ["firstName", "lastName", "email", "resumeFileKey"],
	"properties": {
		"resumeFileKey":  {"type": "string", "minLength": 1},
		"resumeFilePath": {"type": "string"},
		"coverLetter":    {"type": "string"},
		"firstName":      {"type": "string", "minLength": 1, "maxLength": 100},
		"lastName":       {"type": "string", "minLength": 1, "maxLength": 100},
		"email":          {"type": "string", "pattern": "^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\\.[a-zA-Z]{2,}$"},
		"phone":          {"type": "string"},
		"linkedinUrl":    {"type": "string"},
		"portfolioUrl":   {"type": "string"},
		"screeningAnswers": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		}
	}
}`

var applicationDataLoader = gojsonschema.NewStringLoader(applicationDataSchema)

// ValidateApplicationData checks a raw applicationData document against the
// schema and returns per-field errors.
func ValidateApplicationData(doc map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(applicationDataLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out, nil
}
