package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/plantworks/oee-cli/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

// compiledSchema compiles the embedded observation schema exactly once.
var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource("observation.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, eris.Wrap(err, "ingest: add schema resource")
	}
	schema, err := compiler.Compile("observation.schema.json")
	if err != nil {
		return nil, eris.Wrap(err, "ingest: compile schema")
	}
	return schema, nil
})

// ParseJSON validates the document against the embedded JSON Schema, then
// strict-decodes it into the engine input.
func ParseJSON(data []byte) (*model.AnalysisInput, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, eris.Wrap(err, "ingest: decode json document")
	}
	if err := schema.Validate(payload); err != nil {
		return nil, eris.Wrap(err, "ingest: document shape")
	}

	var doc observationDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "ingest: decode json document")
	}
	return doc.toInput()
}

// LoadJSON reads and parses an observation document from disk.
func LoadJSON(path string) (*model.AnalysisInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return ParseJSON(data)
}
