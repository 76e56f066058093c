package server

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mcp-okta-support/internal/okta"
)

// requestArgs extracts the argument map from a tool request. A request
// without an object argument payload yields an empty map.
func requestArgs(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg reads a string argument, returning "" when absent.
func stringArg(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return v
}

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// boolArg reads a boolean argument with a fallback for absence.
func boolArg(args map[string]interface{}, name string, fallback bool) bool {
	v, ok := args[name].(bool)
	if !ok {
		return fallback
	}
	return v
}

// objectArg reads a nested object argument, returning nil when absent.
func objectArg(args map[string]interface{}, name string) map[string]interface{} {
	v, _ := args[name].(map[string]interface{})
	return v
}

// jsonResult marshals a value as the tool's text result.
func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult converts a typed Okta error into a tool error. Structured
// detail from the API (error code, causes, retry hints) is carried along so
// the calling agent can act on it.
func errorResult(err error) *mcp.CallToolResult {
	if e, ok := okta.AsError(err); ok {
		data, merr := json.Marshal(e.Details())
		if merr == nil {
			return mcp.NewToolResultError(string(data))
		}
	}
	return mcp.NewToolResultError(err.Error())
}
