package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmatup/olliebot/internal/util"
)

type sampleArgs struct {
	Query string `json:"query" description:"Search query"`
	Limit *int   `json:"limit" description:"Optional result limit"`
}

func TestCreateSchemaFromStruct(t *testing.T) {
	schema := util.CreateSchema(sampleArgs{})

	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"query"}, req)
}

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sum := NewFunctionTool("native__sum", "Add numbers", params, func(_ *Context, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	tc := NewContext(context.Background(), "req-1", nil)
	result, err := sum.Call(tc, map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tl := NewFunctionTool("native__test", "Test", params, func(_ *Context, _ map[string]any) (any, error) {
		return 0, nil
	})

	tc := NewContext(context.Background(), "req-2", nil)
	_, err := tl.Call(tc, map[string]any{})
	assert.Error(t, err)

	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	tl := NewFunctionTool("native__fail", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *Context, _ map[string]any) (any, error) {
			return nil, errors.New("backend unavailable")
		})

	tc := NewContext(context.Background(), "req-3", nil)
	_, err := tl.Call(tc, map[string]any{})
	assert.Error(t, err)

	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "backend unavailable")
}

func TestFunctionTool_PreservesCustomToolError(t *testing.T) {
	custom := NewToolError("native__quota", "quota exceeded", "QUOTA_EXCEEDED")
	tl := NewFunctionTool("native__quota", "Quota limited",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *Context, _ map[string]any) (any, error) {
			return nil, custom
		})

	tc := NewContext(context.Background(), "req-4", nil)
	_, err := tl.Call(tc, map[string]any{})
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, "QUOTA_EXCEEDED", toolErr.Code)
}
