// Package validate provides the JSON-schema backed validator consumed by
// the catalog. One schema is compiled per content category and every
// document is checked against the schema of its category before it is
// admitted.
package validate

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"vigil/core"
)

// Schemas holds the raw JSON schema per content category.
type Schemas struct {
	Asset       []byte
	Policy      []byte
	Integration []byte
}

// Built-in schemas. Deployments can override them with files via the
// configuration; these are the contract every category minimally obeys.
const (
	defaultAssetSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "asset",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"metadata": {"type": "object"},
		"definitions": {"type": "object"},
		"check": {},
		"parse": {},
		"normalize": {"type": "array"}
	}
}`

	defaultPolicySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "policy",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"integrations": {
			"type": "array",
			"items": {"type": "string"}
		},
		"default_parents": {"type": "object"}
	}
}`

	defaultIntegrationSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "integration",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"decoders": {"type": "array", "items": {"type": "string"}},
		"rules": {"type": "array", "items": {"type": "string"}},
		"outputs": {"type": "array", "items": {"type": "string"}},
		"filters": {"type": "array", "items": {"type": "string"}}
	}
}`
)

// DefaultSchemas returns the built-in schema set.
func DefaultSchemas() Schemas {
	return Schemas{
		Asset:       []byte(defaultAssetSchema),
		Policy:      []byte(defaultPolicySchema),
		Integration: []byte(defaultIntegrationSchema),
	}
}

// SchemaValidator validates catalog documents against compiled JSON
// schemas. Compilation happens once at construction; Validate calls are
// read-only and safe for concurrent use.
type SchemaValidator struct {
	asset       *gojsonschema.Schema
	policy      *gojsonschema.Schema
	integration *gojsonschema.Schema
	logger      *zap.SugaredLogger
}

// NewSchemaValidator compiles the given schema set.
func NewSchemaValidator(schemas Schemas, logger *zap.SugaredLogger) (*SchemaValidator, error) {
	asset, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemas.Asset))
	if err != nil {
		return nil, fmt.Errorf("failed to compile asset schema: %w", err)
	}
	policy, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemas.Policy))
	if err != nil {
		return nil, fmt.Errorf("failed to compile policy schema: %w", err)
	}
	integration, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemas.Integration))
	if err != nil {
		return nil, fmt.Errorf("failed to compile integration schema: %w", err)
	}
	return &SchemaValidator{
		asset:       asset,
		policy:      policy,
		integration: integration,
		logger:      logger,
	}, nil
}

// ValidateAsset checks a decoder, rule, filter, output or schema document.
func (v *SchemaValidator) ValidateAsset(doc *core.Document) error {
	return v.validate(v.asset, "asset", doc)
}

// ValidatePolicy checks a policy document.
func (v *SchemaValidator) ValidatePolicy(doc *core.Document) error {
	return v.validate(v.policy, "policy", doc)
}

// ValidateIntegration checks an integration document.
func (v *SchemaValidator) ValidateIntegration(doc *core.Document) error {
	return v.validate(v.integration, "integration", doc)
}

func (v *SchemaValidator) validate(schema *gojsonschema.Schema, category string, doc *core.Document) error {
	data, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize document for %s validation: %w", category, err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%s validation failed: %w", category, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		v.logger.Debugf("validate: %s document rejected: %s", category, strings.Join(msgs, "; "))
		return fmt.Errorf("%s validation failed: %s", category, strings.Join(msgs, "; "))
	}
	return nil
}
