package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	names := Names()
	for _, want := range []string{Analysis, Strategy, Health, Knowledge, AEOStrategy, BattleCard, KeywordGap, DefenseStrategy} {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		doc     string
		wantErr bool
	}{
		{"analysis ok", Analysis, `{"analysis":{"brand_name":"Acme","brand_values":["Speed"]}}`, false},
		{"analysis missing root", Analysis, `{"brand_name":"Acme"}`, true},
		{"analysis wrong list type", Analysis, `{"analysis":{"brand_values":"Speed"}}`, true},
		{"strategy ok", Strategy, `{"personas":[{"role":"CTO"}],"strategy":{"the_wedge":"API"}}`, false},
		{"strategy persona without role", Strategy, `{"personas":[{}],"strategy":{}}`, true},
		{"health ok", Health, `{"overall_health_score":80,"metrics":{"clarity":{"score":70}}}`, false},
		{"health string score", Health, `{"overall_health_score":"80","metrics":{}}`, true},
		{"knowledge ok", Knowledge, `{"products":[{"name":"API"}],"key_terms":[]}`, false},
		{"aeo strategy ok", AEOStrategy, `{"headline_strategy":"Win Reviews","top_3_actions":[{"title":"x"}]}`, false},
		{"aeo strategy missing actions", AEOStrategy, `{"headline_strategy":"x"}`, true},
		{"battle card ok", BattleCard, `{"competitor_name":"B","counter_messages":[{"their_claim":"a","our_response":"b"}]}`, false},
		{"keyword gap ok", KeywordGap, `{"gap_keywords":[{"keyword":"k","opportunity_score":80}]}`, false},
		{"defense ok", DefenseStrategy, `{"headline_strategy":"Own the comparison","tactics":[{"title":"Publish Acme vs Globex"}]}`, false},
		{"defense missing tactics", DefenseStrategy, `{"headline_strategy":"x"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(tt.schema, []byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.schema, ve.Schema)
			assert.NotEmpty(t, ve.Errors)
		})
	}
}

func TestValidateJSON_UnknownSchema(t *testing.T) {
	err := ValidateJSON("nope", []byte(`{}`))
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "schema not found")
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	assert.Error(t, ValidateJSON(Health, []byte("{ invalid json }")))
}

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"name": "test"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"age": 30}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Schema: Health,
		Errors: []FieldError{
			{Field: "overall_health_score", Message: "is required"},
			{Field: "metrics", Message: "must be an object"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation against health failed")
	assert.Contains(t, errorMsg, "overall_health_score")
	assert.Contains(t, errorMsg, "metrics")
}
