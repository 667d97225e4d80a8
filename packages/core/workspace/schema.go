package workspace

// workspaceSchema is the JSON Schema (draft-07) every workspace document must satisfy.
const workspaceSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["requests", "environments"],
  "additionalProperties": false,
  "definitions": {
    "keyValue": {
      "type": "object",
      "required": ["key"],
      "additionalProperties": false,
      "properties": {
        "key": {"type": "string", "minLength": 1},
        "value": {"type": "string"},
        "enabled": {"type": "boolean"}
      }
    },
    "keyValues": {
      "type": "array",
      "items": {"$ref": "#/definitions/keyValue"}
    }
  },
  "properties": {
    "requests": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "method", "url"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "method": {
            "type": "string",
            "pattern": "^(?i)(GET|HEAD|POST|PUT|PATCH|DELETE|OPTIONS)$"
          },
          "url": {"type": "string", "minLength": 1},
          "params": {"$ref": "#/definitions/keyValues"},
          "headers": {"$ref": "#/definitions/keyValues"},
          "body": {"type": "string"}
        }
      }
    },
    "environments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "color": {"type": "string"},
          "variables": {
            "type": "object",
            "additionalProperties": {"type": ["string", "number", "boolean"]}
          },
          "baseUrl": {"type": "string"},
          "token": {"type": "string"},
          "urls": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          },
          "headers": {"$ref": "#/definitions/keyValues"},
          "params": {"$ref": "#/definitions/keyValues"},
          "useProxy": {"type": "boolean"}
        }
      }
    }
  }
}`
