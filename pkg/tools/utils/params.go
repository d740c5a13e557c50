package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// GetStringParam safely extracts a string parameter from the request
func GetStringParam(req mcp.CallToolRequest, key string, required bool) (string, error) {
	val, exists := req.Params.Arguments[key]
	if !exists || val == nil {
		if required {
			return "", fmt.Errorf("missing required parameter: '%s'", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter '%s' must be a string", key)
	}

	return str, nil
}

// GetRequiredStringParam is a shorthand for GetStringParam with required=true
func GetRequiredStringParam(req mcp.CallToolRequest, key string) (string, error) {
	return GetStringParam(req, key, true)
}

// GetRequiredIntParam extracts a whole number. JSON numbers arrive as float64; models sometimes
// send the digits as a string, which is accepted too.
func GetRequiredIntParam(req mcp.CallToolRequest, key string) (int64, error) {
	val, exists := req.Params.Arguments[key]
	if !exists || val == nil {
		return 0, fmt.Errorf("missing required parameter: '%s'", key)
	}

	switch v := val.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("parameter '%s' must be an integer", key)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter '%s' must be an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("parameter '%s' must be an integer", key)
	}
}
