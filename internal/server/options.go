package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/plainlegal/plainlegal/internal/pipeline"
)

// uploadOptionsSchema guards the optional "options" multipart part.
// Unknown keys are rejected so typos fail loudly instead of silently
// falling back to defaults.
const uploadOptionsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"model":             {"type": "string", "minLength": 1},
		"max_section_chars": {"type": "integer", "minimum": 200, "maximum": 100000},
		"max_output_tokens": {"type": "integer", "minimum": 1, "maximum": 8192},
		"continue_on_error": {"type": "boolean"},
		"concurrency":       {"type": "integer", "minimum": 1, "maximum": 32}
	}
}`

var optionsSchema = jsonschema.MustCompileString("upload-options.json", uploadOptionsSchema)

// UploadOptions is the client-facing knob set for one job.
type UploadOptions struct {
	Model           string `json:"model,omitempty"`
	MaxSectionChars int    `json:"max_section_chars,omitempty"`
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"`
	ContinueOnError bool   `json:"continue_on_error,omitempty"`
	Concurrency     int    `json:"concurrency,omitempty"`
}

// ParseUploadOptions validates raw JSON against the schema and decodes it.
// Empty input yields the zero value (all server defaults apply).
func ParseUploadOptions(raw []byte) (UploadOptions, error) {
	var opts UploadOptions
	if len(bytes.TrimSpace(raw)) == 0 {
		return opts, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return opts, fmt.Errorf("options is not valid JSON: %w", err)
	}
	if err := optionsSchema.Validate(v); err != nil {
		return opts, fmt.Errorf("options rejected: %w", err)
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("options decode: %w", err)
	}
	return opts, nil
}

// Pipeline maps the client options onto pipeline options. Zero values
// defer to the pipeline and gateway defaults.
func (o UploadOptions) Pipeline() pipeline.Options {
	return pipeline.Options{
		MaxSectionChars: o.MaxSectionChars,
		Model:           o.Model,
		MaxOutputTokens: o.MaxOutputTokens,
		Concurrency:     o.Concurrency,
		ContinueOnError: o.ContinueOnError,
	}
}
