package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaText string

const schemaURL = "rules.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString(schemaURL, schemaText)
})

// Schema returns the JSON schema of the rules document.
func Schema() string { return schemaText }

// validateSchema checks a JSON encoded rules document against the schema.
func validateSchema(doc []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile rules schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return &ConfigError{Err: err}
	}

	if err := s.Validate(v); err != nil {
		return &ConfigError{Path: "schema", Err: err}
	}

	return nil
}
