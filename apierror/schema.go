package apierror

import "github.com/invopop/jsonschema"

// ResponseSchema returns the JSON Schema describing the structured error body
// emitted at VerbosityTypeOnly and VerbosityFull. Intended for embedding in
// API documentation.
func ResponseSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(&body{})
}
