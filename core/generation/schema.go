package generation

import (
	"github.com/invopop/jsonschema"
)

// SceneSchema reflects the verbose wire shape into a JSON schema suitable
// for schema-constrained generation requests. Inlined (no $ref) because the
// hosted constrained-decoding endpoints only accept self-contained schemas.
func SceneSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(SceneResponse{})
}
