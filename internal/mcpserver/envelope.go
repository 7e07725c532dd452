package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/nsstate/ipystate/internal/change"
)

// envelopeSchema is the fixed JSON Schema an outbound change envelope must
// satisfy before an MCP tool result is allowed to carry it. It only shapes
// the transport-facing metadata (id, kind, variable declarations, removed
// name) — the serialized payload bytes named in spec §6 stay opaque and are
// deliberately absent from this schema.
const envelopeSchema = `{
  "type": "object",
  "required": ["id", "kind"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "kind": {"type": "string", "enum": ["primitive", "component", "remove"]},
    "all_vars": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "type_name"],
        "properties": {
          "name": {"type": "string"},
          "type_name": {"type": "string"}
        }
      }
    },
    "serialized_vars": {
      "type": "array",
      "items": {"type": "string"}
    },
    "non_serialized_vars": {
      "type": "array",
      "items": {"type": "string"}
    },
    "removed_name": {"type": "string"}
  }
}`

var envelopeSchemaLoader = gojsonschema.NewStringLoader(envelopeSchema)

// VarDeclDTO is the wire-facing projection of serializer.VarDecl.
type VarDeclDTO struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
}

// Envelope is the schema-validated, payload-opaque projection of one
// change.AtomicChange, built by Transfer via a sink (see sink.go). Only the
// envelope — never PrimitivePayload or SerializedVar.Chunk — crosses into an
// MCP tool result.
type Envelope struct {
	ID                string       `json:"id"`
	Kind              string       `json:"kind"`
	AllVars           []VarDeclDTO `json:"all_vars,omitempty"`
	SerializedVars    []string     `json:"serialized_vars,omitempty"`
	NonSerializedVars []string     `json:"non_serialized_vars,omitempty"`
	RemovedName       string       `json:"removed_name,omitempty"`
}

// kindString renders a change.Kind as the lowercase string the schema and
// wire format use.
func kindString(k change.Kind) string {
	switch k {
	case change.KindPrimitive:
		return "primitive"
	case change.KindComponent:
		return "component"
	case change.KindRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// newEnvelope builds an Envelope from a change.TransferPayload.
func newEnvelope(id string, p change.TransferPayload) Envelope {
	allVars := make([]VarDeclDTO, 0, len(p.AllVars))
	for _, v := range p.AllVars {
		allVars = append(allVars, VarDeclDTO{Name: v.Name, TypeName: v.TypeName})
	}

	serializedNames := make([]string, 0, len(p.SerializedVars))
	for _, sv := range p.SerializedVars {
		serializedNames = append(serializedNames, sv.Name)
	}

	return Envelope{
		ID:                id,
		Kind:              kindString(p.Kind),
		AllVars:           allVars,
		SerializedVars:    serializedNames,
		NonSerializedVars: p.NonSerializedVars,
		RemovedName:       p.RemovedName,
	}
}

// validateEnvelope checks e against envelopeSchema, returning a descriptive
// error naming every schema violation found.
func validateEnvelope(e Envelope) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	result, err := gojsonschema.Validate(envelopeSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate envelope: %w", err)
	}

	if !result.Valid() {
		return fmt.Errorf("envelope %q failed schema validation: %v", e.ID, result.Errors())
	}

	return nil
}
