package graph

import (
	"fmt"

	sdk "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Record is one result row keyed by column name. Nodes and relationships are flattened to
// their property maps so callers never touch driver types.
type Record map[string]any

func fromDriverRecords(records []*sdk.Record) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		row := make(Record, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = plain(record.Values[i])
		}
		out = append(out, row)
	}
	return out
}

func plain(value any) any {
	switch v := value.(type) {
	case sdk.Node:
		return plainMap(v.Props)
	case sdk.Relationship:
		return plainMap(v.Props)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	case map[string]any:
		return plainMap(v)
	default:
		return v
	}
}

func plainMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = plain(value)
	}
	return out
}

// String returns the string at key, or "" when absent or null.
func (r Record) String(key string) string {
	return asString(r[key])
}

// Int returns the integer at key, or 0 when absent or null.
func (r Record) Int(key string) int64 {
	return asInt(r[key])
}

// Float returns the number at key, or 0 when absent or null.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Map returns the map at key, or nil.
func (r Record) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

// Strings returns the list of strings at key, skipping nulls.
func (r Record) Strings(key string) []string {
	list, _ := r[key].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		out = append(out, asString(item))
	}
	return out
}

// Floats returns the list of numbers at key, or nil.
func (r Record) Floats(key string) []float64 {
	list, ok := r[key].([]any)
	if !ok {
		if floats, ok := r[key].([]float64); ok {
			return floats
		}
		return nil
	}

	out := make([]float64, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case float64:
			out = append(out, v)
		case int64:
			out = append(out, float64(v))
		}
	}
	return out
}

// Maps returns the list of maps at key, skipping nulls.
func (r Record) Maps(key string) []map[string]any {
	list, _ := r[key].([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asInt(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// StringValue reads a string property out of a projected map.
func StringValue(m map[string]any, key string) string {
	return asString(m[key])
}

// IntValue reads an integer property out of a projected map.
func IntValue(m map[string]any, key string) int64 {
	return asInt(m[key])
}
