package invoke

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// SchemaValidator is the out-of-scope JSON Schema collaborator: loading and
// compiling schema documents is someone else's concern, the engine only
// needs ValidateJSON(schema, instance).
type SchemaValidator interface {
	ValidateJSON(schema, instance json.RawMessage) error
}

// GoJSONSchemaValidator is the default SchemaValidator, backed by
// gojsonschema.
type GoJSONSchemaValidator struct{}

// ValidateJSON implements SchemaValidator.
func (GoJSONSchemaValidator) ValidateJSON(schema, instance json.RawMessage) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(instance)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return dscerror.Schema(err.Error())
	}
	if !result.Valid() {
		return dscerror.Schema(formatValidationErrors(result.Errors()))
	}
	return nil
}

func formatValidationErrors(errs []gojsonschema.ResultError) string {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s: %s", e.Field(), e.Description())
	}
	return msg
}
