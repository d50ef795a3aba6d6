package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "json code block", input: "```json\n{\"key\": \"value\"}\n```", expected: `{"key": "value"}`},
		{name: "generic code block", input: "```\n{\"key\": \"value\"}\n```", expected: `{"key": "value"}`},
		{name: "code block with language", input: "```javascript\n{\"key\": \"value\"}\n```", expected: `{"key": "value"}`},
		{name: "plain JSON", input: `  {"key": "value"} `, expected: `{"key": "value"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractFirstJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "object with trailing commentary", input: `Here you go: {"a": {"b": 1}} hope that helps {x}`, expected: `{"a": {"b": 1}}`},
		{name: "array before object", input: `[1, 2, {"c": 3}] trailing`, expected: `[1, 2, {"c": 3}]`},
		{name: "braces inside strings", input: `{"text": "use } and { freely"}`, expected: `{"text": "use } and { freely"}`},
		{name: "escaped quote in string", input: `{"q": "say \"}\" now"} tail`, expected: `{"q": "say \"}\" now"}`},
		{name: "unbalanced", input: `{"a": 1`, expected: ""},
		{name: "no json", input: "plain prose", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractFirstJSON(tt.input))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	in := `{
  // the brand
  "name": "Acme", /* inline */
  "site": "https://acme.com/path",
  "tags": ["a", "b",],
}`
	out := RepairJSON(in)
	var v map[string]any
	require.NoError(t, ParseJSON(out, &v))
	assert.Equal(t, "Acme", v["name"])
	assert.Equal(t, "https://acme.com/path", v["site"])
	assert.Equal(t, []any{"a", "b"}, v["tags"])
}

func TestParseJSON_Recovery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "wrapper markers", input: "noise START_JSON {\"brand\": \"Linear\"} END_JSON noise", want: "Linear"},
		{name: "fenced block", input: "Sure!\n```json\n{\"brand\": \"Notion\"}\n```", want: "Notion"},
		{name: "trailing comma repaired", input: `{"brand": "Figma",}`, want: "Figma"},
		{name: "comment repaired", input: "{\n\"brand\": \"Vercel\" // host\n}", want: "Vercel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Brand string `json:"brand"`
			}
			require.NoError(t, ParseJSON(tt.input, &v))
			assert.Equal(t, tt.want, v.Brand)
		})
	}
}

func TestParseJSON_List(t *testing.T) {
	var hooks []string
	require.NoError(t, ParseJSON(`Hooks: ["one", "two"]`, &hooks))
	assert.Equal(t, []string{"one", "two"}, hooks)
}

func TestParseJSON_Failure(t *testing.T) {
	var v map[string]any
	assert.ErrorIs(t, ParseJSON("", &v), ErrNoJSON)
	assert.ErrorIs(t, ParseJSON("no structure here", &v), ErrNoJSON)
}
