package chunk

import (
	"encoding/json"
	"fmt"
)

// Language is the source language this chunker understands.
const Language = "python"

// Type identifies one of the six chunk kinds. The set is closed: every
// chunk carries exactly one of these values and one matching metadata
// variant.
type Type string

const (
	TypePackage   Type = "package"
	TypeClass     Type = "class"
	TypeMethod    Type = "method"
	TypeFunction  Type = "function"
	TypeImports   Type = "imports"
	TypeConstants Type = "constants"
)

// Types lists all chunk types in a stable order.
func Types() []Type {
	return []Type{TypePackage, TypeClass, TypeMethod, TypeFunction, TypeImports, TypeConstants}
}

// Location is a file-relative line span. Package chunks span multiple
// files and carry no location.
type Location struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// LineRange marks one statement span inside a file. Imports and Constants
// chunks record one range per owned statement because their statements
// need not be contiguous.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chunk is the atomic retrievable unit.
type Chunk struct {
	ID       string    `json:"id"`
	Type     Type      `json:"type"`
	Name     string    `json:"name"`
	Content  string    `json:"content"`
	Location *Location `json:"location,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// Qualified returns the name used for cross-file resolution and display:
// methods are qualified by their owning class, everything else by its
// plain name.
func (c Chunk) Qualified() string {
	if m, ok := c.Metadata.(MethodMeta); ok && m.Class != "" {
		return m.Class + "." + c.Name
	}
	return c.Name
}

// Purpose returns the docstring-derived (or synthesized) purpose line of
// the chunk's metadata, empty when the variant carries none.
func (c Chunk) Purpose() string {
	switch m := c.Metadata.(type) {
	case PackageMeta:
		return m.Purpose
	case ClassMeta:
		return m.Purpose
	case MethodMeta:
		return m.Purpose
	case FunctionMeta:
		return m.Purpose
	case ImportsMeta:
		return m.Purpose
	case ConstantsMeta:
		return m.Purpose
	}
	return ""
}

// chunkEnvelope mirrors Chunk with raw metadata so UnmarshalJSON can
// dispatch on the type tag before decoding the variant.
type chunkEnvelope struct {
	ID       string          `json:"id"`
	Type     Type            `json:"type"`
	Name     string          `json:"name"`
	Content  string          `json:"content"`
	Location *Location       `json:"location,omitempty"`
	Metadata json.RawMessage `json:"metadata"`
}

func (c *Chunk) UnmarshalJSON(data []byte) error {
	var env chunkEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	meta, err := DecodeMetadata(env.Type, env.Metadata)
	if err != nil {
		return fmt.Errorf("chunk %s: %w", env.ID, err)
	}

	c.ID = env.ID
	c.Type = env.Type
	c.Name = env.Name
	c.Content = env.Content
	c.Location = env.Location
	c.Metadata = meta
	return nil
}

// DecodeMetadata decodes the metadata variant matching the chunk type.
// The tagged-variant set is closed, so an unknown type is an error rather
// than a passthrough.
func DecodeMetadata(t Type, raw []byte) (Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}

	switch t {
	case TypePackage:
		var m PackageMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode package metadata: %w", err)
		}
		return m, nil
	case TypeClass:
		var m ClassMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode class metadata: %w", err)
		}
		return m, nil
	case TypeMethod:
		var m MethodMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode method metadata: %w", err)
		}
		return m, nil
	case TypeFunction:
		var m FunctionMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode function metadata: %w", err)
		}
		return m, nil
	case TypeImports:
		var m ImportsMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode imports metadata: %w", err)
		}
		return m, nil
	case TypeConstants:
		var m ConstantsMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode constants metadata: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown chunk type %q", t)
}
