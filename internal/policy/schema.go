package policy

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaJSON is the structural contract every policy document must meet
// before it is decoded.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["policy_version", "world", "mission_template", "gamification"],
  "properties": {
    "policy_version": {"type": "string", "pattern": "^v[0-9]+\\.[0-9]+\\.[0-9]+$"},
    "world": {"type": "string", "minLength": 1},
    "start_difficulty": {"enum": ["easy", "medium", "hard"]},
    "mission_template": {
      "type": "object",
      "required": ["lives_start", "questions"],
      "properties": {
        "lives_start": {"type": "integer", "minimum": 0},
        "life_cap": {"type": "integer", "minimum": 0},
        "questions": {
          "type": "object",
          "required": ["standard"],
          "properties": {
            "standard": {"type": "integer", "minimum": 1},
            "risk_at": {"type": "array", "items": {"type": "integer", "minimum": 1}},
            "team_at": {"type": "array", "items": {"type": "integer", "minimum": 1}}
          }
        },
        "challenge_fallback": {"type": "boolean"}
      }
    },
    "risk_guard": {
      "type": "object",
      "properties": {
        "max_attempts": {"type": "integer", "minimum": 1},
        "cooldown_ms": {"type": "integer", "minimum": 0}
      }
    },
    "gamification": {
      "type": "object",
      "required": ["base_points"],
      "properties": {
        "base_points": {
          "type": "object",
          "required": ["standard", "risk", "team"],
          "properties": {
            "standard": {"type": "integer", "minimum": 0},
            "risk": {"type": "integer", "minimum": 0},
            "team": {"type": "integer", "minimum": 0}
          }
        },
        "bonus_minigame": {
          "type": "object",
          "properties": {
            "points": {"type": "integer", "minimum": 0},
            "life_plus": {"type": "integer", "minimum": 0}
          }
        }
      }
    },
    "story": {
      "type": "object",
      "properties": {
        "briefing": {"type": "string"},
        "debrief_success": {"type": "string"},
        "debrief_fail": {"type": "string"},
        "cliffhanger": {"type": "string"}
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(schemaJSON), &def); err != nil {
			compileErr = fmt.Errorf("parse policy schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://policy.json", def); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("schema://policy.json")
	})
	return compiledSchema, compileErr
}

// validate checks raw against the policy schema.
func validate(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("policy is not valid JSON: %w", err)
	}
	s, err := compiled()
	if err != nil {
		return err
	}
	if err := s.Validate(parsed); err != nil {
		return fmt.Errorf("policy schema validation failed: %w", err)
	}
	return nil
}
