/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package report

import (
	"bytes"
	_ "embed"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Marshal serializes a TriagedArtifact to its canonical JSON form (spec
// §6: "Serialization must round-trip losslessly through a self-describing
// format; JSON is the reference format").
func Marshal(a *TriagedArtifact) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// Unmarshal parses JSON produced by Marshal back into a TriagedArtifact.
func Unmarshal(data []byte) (*TriagedArtifact, error) {
	var a TriagedArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("report: unmarshal: %w", err)
	}
	return &a, nil
}

//go:embed schema.json
var schemaDoc []byte

var compiledSchema *jsonschema.Schema

func schema() (*jsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("triaged-artifact.json", bytes.NewReader(schemaDoc)); err != nil {
		return nil, fmt.Errorf("report: add schema resource: %w", err)
	}
	s, err := c.Compile("triaged-artifact.json")
	if err != nil {
		return nil, fmt.Errorf("report: compile schema: %w", err)
	}
	compiledSchema = s
	return s, nil
}

// Validate checks marshaled JSON against the embedded JSON Schema for
// schema_version "1.2" (spec §6).
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("report: decode for validation: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("report: schema validation failed: %w", err)
	}
	return nil
}
