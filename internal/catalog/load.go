package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Root is the on-disk catalog file shape.
type Root struct {
	NpcBlips   bool         `json:"npcBlips,omitempty" yaml:"npcBlips,omitempty"`
	Encounters []Definition `json:"encounters" yaml:"encounters"`
}

// LoadFile reads a YAML catalog file, validates it against the embedded
// schema, and builds the catalog.
func LoadFile(path string) (*Catalog, *Root, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(raw)
}

// Load parses and validates raw YAML catalog bytes.
func Load(raw []byte) (*Catalog, *Root, error) {
	var loose any
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validateSchema(loose); err != nil {
		return nil, nil, fmt.Errorf("catalog schema: %w", err)
	}

	var root Root
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, nil, fmt.Errorf("decode catalog: %w", err)
	}
	cat, err := New(root.Encounters)
	if err != nil {
		return nil, nil, err
	}
	return cat, &root, nil
}

func validateSchema(doc any) error {
	// Round-trip through encoding/json so the validator sees plain JSON types
	// rather than YAML-decoded ones.
	buf, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(buf, &v); err != nil {
		return err
	}
	schema, err := jsonschema.CompileString("catalog.schema.json", catalogSchema)
	if err != nil {
		return err
	}
	return schema.Validate(v)
}

const catalogSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["encounters"],
  "properties": {
    "npcBlips": {"type": "boolean"},
    "encounters": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "label", "type", "npc"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "label": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "type": {"enum": ["cleanup", "delivery", "assassination"]},
          "cooldownSeconds": {"type": "integer", "minimum": 0},
          "cancelIncurCooldown": {"type": "boolean"},
          "npc": {
            "type": "object",
            "required": ["id", "model", "coords"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "model": {"type": "string", "minLength": 1}
            }
          },
          "reward": {
            "type": "object",
            "properties": {
              "cash": {"type": "integer", "minimum": 0},
              "items": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["name"],
                  "properties": {
                    "name": {"type": "string", "minLength": 1},
                    "count": {"type": "integer", "minimum": 1}
                  }
                }
              }
            }
          },
          "cleanup": {
            "type": "object",
            "required": ["area", "radius", "props", "count"],
            "properties": {
              "count": {"type": "integer", "minimum": 1},
              "radius": {"type": "number", "minimum": 0},
              "spawnMode": {"enum": ["random", "positions", "preset"]},
              "props": {"type": "array", "minItems": 1, "items": {"type": "string"}}
            }
          },
          "delivery": {
            "type": "object",
            "required": ["destination", "timeSeconds", "item"],
            "properties": {
              "timeSeconds": {"type": "integer", "minimum": 1}
            }
          },
          "assassination": {
            "type": "object",
            "required": ["area", "radius", "targets"],
            "properties": {
              "targets": {
                "type": "array",
                "minItems": 1,
                "items": {
                  "type": "object",
                  "required": ["model", "spawn"]
                }
              }
            }
          }
        }
      }
    }
  }
}`
