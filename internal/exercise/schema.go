package exercise

// moduleSchema is the JSON Schema every module file must satisfy
const moduleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["module", "exercises"],
  "additionalProperties": false,
  "properties": {
    "module": {"type": "integer", "minimum": 1},
    "exercises": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": false,
      "properties": {
        "guided": {"$ref": "#/definitions/exercise"},
        "challenge": {"$ref": "#/definitions/exercise"}
      }
    }
  },
  "definitions": {
    "exercise": {
      "type": "object",
      "required": ["title", "difficulty", "description", "steps"],
      "additionalProperties": false,
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "difficulty": {"enum": ["Beginner", "Intermediate", "Advanced"]},
        "description": {"type": "string"},
        "steps": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/definitions/step"}
        }
      }
    },
    "step": {
      "type": "object",
      "required": ["title", "instruction", "scenario", "hint"],
      "additionalProperties": false,
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "instruction": {"type": "string"},
        "scenario": {"type": "string"},
        "hint": {"type": "string"},
        "rule": {
          "type": "object",
          "required": ["kind"],
          "additionalProperties": false,
          "properties": {
            "kind": {"enum": ["any_of", "count_at_least", "all_of", "default_length"]},
            "keywords": {"type": "array", "items": {"type": "string", "minLength": 1}},
            "min": {"type": "integer", "minimum": 1}
          }
        }
      }
    }
  }
}`
