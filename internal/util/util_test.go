package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("You are {{.Name}} ({{upper .Role}}).", map[string]any{
		"Name": "Ollie",
		"Role": "supervisor",
	})
	require.NoError(t, err)
	assert.Equal(t, "You are Ollie (SUPERVISOR).", out)
}

func TestRenderTemplateFastPath(t *testing.T) {
	out, err := RenderTemplate("no markers here", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers here", out)
}

func TestRenderTemplateDefaultFunc(t *testing.T) {
	out, err := RenderTemplate(`Hello {{default "friend" .Name}}!`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Hello friend!", out)
}

func TestRenderTemplateBadSyntax(t *testing.T) {
	_, err := RenderTemplate("{{.Name", nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "he...", Truncate("hello world", 5))
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer"},
		},
		"required": []string{"name"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"name": "x", "count": float64(3)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"count": float64(3)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"name": "x", "count": 3.5}, schema))
}
