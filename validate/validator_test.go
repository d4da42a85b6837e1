package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigil/core"
)

func newTestValidator(t *testing.T) *SchemaValidator {
	t.Helper()
	v, err := NewSchemaValidator(DefaultSchemas(), zap.NewNop().Sugar())
	require.NoError(t, err)
	return v
}

func parse(t *testing.T, jsonText string) *core.Document {
	t.Helper()
	doc, err := core.DocumentFromJSON([]byte(jsonText))
	require.NoError(t, err)
	return doc
}

func TestNewSchemaValidator_BadSchema(t *testing.T) {
	schemas := DefaultSchemas()
	schemas.Policy = []byte(`{"type": 42}`)

	_, err := NewSchemaValidator(schemas, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestValidateAsset(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"minimal", `{"name":"decoder/syslog/0"}`, false},
		{"full", `{"name":"decoder/syslog/0","metadata":{"author":"ops"},"check":"field==1","parse":"<message>","normalize":[]}`, false},
		{"missing name", `{"parse":"<message>"}`, true},
		{"name not a string", `{"name":7}`, true},
		{"not an object", `["decoder/syslog/0"]`, true},
		{"normalize not an array", `{"name":"decoder/syslog/0","normalize":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAsset(parse(t, tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePolicy(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"minimal", `{"name":"policy/prod/0"}`, false},
		{"with integrations", `{"name":"policy/prod/0","integrations":["integration/endpoint/0"]}`, false},
		{"missing name", `{"integrations":[]}`, true},
		{"integrations not strings", `{"name":"policy/prod/0","integrations":[1,2]}`, true},
		{"integrations not an array", `{"name":"policy/prod/0","integrations":"integration/endpoint/0"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePolicy(parse(t, tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIntegration(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"minimal", `{"name":"integration/endpoint/0"}`, false},
		{"with assets", `{"name":"integration/endpoint/0","decoders":["decoder/syslog/0"],"rules":["rule/auth/0"]}`, false},
		{"missing name", `{"decoders":[]}`, true},
		{"decoders not an array", `{"name":"integration/endpoint/0","decoders":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateIntegration(parse(t, tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ErrorNamesCategory(t *testing.T) {
	v := newTestValidator(t)

	err := v.ValidatePolicy(parse(t, `{"integrations":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy validation failed")
}
