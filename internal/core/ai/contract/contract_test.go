package contract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecipe = `{"title":"X","ingredients":[],"instructions":["a"],"prep_time":1,"cook_time":1,"servings":1,"category":"c","description":"d"}`

func TestParseGeneration(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		res := ParseGeneration(sampleRecipe)
		require.Nil(t, res.Fallback)
		assert.Equal(t, "X", res.Recipe.Title())
		assert.Equal(t, json.Number("1"), res.Recipe["servings"])
		assert.Equal(t, []any{"a"}, res.Recipe["instructions"])
	})

	t.Run("invalid json keeps raw text", func(t *testing.T) {
		res := ParseGeneration("{not json")
		require.NotNil(t, res.Fallback)
		assert.Nil(t, res.Recipe)
		assert.Equal(t, FallbackMessage, res.Fallback.Error)
		assert.Equal(t, "{not json", res.Fallback.RawResponse)
	})

	t.Run("code fence around object", func(t *testing.T) {
		res := ParseGeneration("```json\n" + sampleRecipe + "\n```")
		require.Nil(t, res.Fallback)
		assert.Equal(t, "X", res.Recipe.Title())
	})

	t.Run("bare code fence around object", func(t *testing.T) {
		res := ParseGeneration("```\n" + sampleRecipe + "\n```\n")
		require.Nil(t, res.Fallback)
		assert.Equal(t, "X", res.Recipe.Title())
	})

	t.Run("object must be the whole completion", func(t *testing.T) {
		for _, raw := range []string{
			`Sure! Here is your recipe: {"title":"X"} Enjoy!`,
			`[1, {"title":"X"}]`,
			"```json\n{\"title\":\"X\"}\n``` and more",
			"```yaml\ntitle: X\n```",
			`{"title":"X"} {"title":"Y"}`,
		} {
			res := ParseGeneration(raw)
			require.NotNil(t, res.Fallback, raw)
			assert.Nil(t, res.Recipe, raw)
			assert.Equal(t, raw, res.Fallback.RawResponse)
		}
	})

	t.Run("non-object values fall back", func(t *testing.T) {
		for _, raw := range []string{"null", "[1,2]", `"text"`, ""} {
			res := ParseGeneration(raw)
			require.NotNil(t, res.Fallback, raw)
			assert.Equal(t, raw, res.Fallback.RawResponse)
		}
	})
}

func TestParseSubstitution(t *testing.T) {
	t.Run("three alternatives", func(t *testing.T) {
		raw := `{"alternatives":[
			{"name":"Flax egg","reason":"binds","texture_impact":"denser"},
			{"name":"Applesauce","reason":"moisture","texture_impact":"softer"},
			{"name":"Aquafaba","reason":"whips","texture_impact":"lighter"}]}`
		res := ParseSubstitution(raw)
		require.Nil(t, res.Fallback)
		require.Len(t, res.Alternatives, 3)
		assert.Equal(t, "Flax egg", res.Alternatives[0].Name)
		assert.Equal(t, "lighter", res.Alternatives[2].TextureImpact)
	})

	t.Run("count other than three is accepted", func(t *testing.T) {
		res := ParseSubstitution(`{"alternatives":[{"name":"Tofu","reason":"protein","texture_impact":"soft"}]}`)
		require.Nil(t, res.Fallback)
		assert.Len(t, res.Alternatives, 1)
	})

	violations := map[string]string{
		"not json":            "{oops",
		"missing key":         `{"substitutes":[{"name":"Tofu"}]}`,
		"empty list":          `{"alternatives":[]}`,
		"list of text":        `{"alternatives":["Tofu"]}`,
		"unnamed alternative": `{"alternatives":[{"name":" ","reason":"r","texture_impact":"t"}]}`,
		"null":                "null",
		"prose around object": `Here you go: {"alternatives":[{"name":"Tofu","reason":"r","texture_impact":"t"}]} Hope it helps`,
		"array of objects":    `[{"alternatives":[{"name":"Tofu","reason":"r","texture_impact":"t"}]}]`,
	}
	for name, raw := range violations {
		t.Run(name, func(t *testing.T) {
			res := ParseSubstitution(raw)
			require.NotNil(t, res.Fallback)
			assert.Equal(t, raw, res.Fallback.RawResponse)
			assert.Nil(t, res.Alternatives)
		})
	}
}

func TestValidate(t *testing.T) {
	gen := Validate(Generation, sampleRecipe)
	assert.Equal(t, Generation, gen.Kind)
	assert.Nil(t, gen.Fallback())
	assert.Equal(t, gen.Generation.Recipe, gen.Generation.Body())

	sub := Validate(Substitution, "{not json")
	assert.Equal(t, Substitution, sub.Kind)
	require.NotNil(t, sub.Fallback())
	assert.Equal(t, sub.Fallback(), sub.Substitution.Body())
}

func TestUnfence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1} `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"upper-case tag", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"other language kept", "```yaml\na: 1\n```", "```yaml\na: 1\n```"},
		{"single line fence kept", "```{}```", "```{}```"},
		{"text after fence kept", "```json\n{}\n``` ok", "```json\n{}\n``` ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unfence(tt.in))
		})
	}
}

func TestFallbackBody(t *testing.T) {
	data, err := json.Marshal(ParseGeneration("oops").Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Failed to parse AI response","raw_response":"oops"}`, string(data))
}
