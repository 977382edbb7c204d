package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// CompressTags serializes a tag name list into the form stored in the
// notes.tags column: a JSON array sorted case-insensitively. The input
// slice is not modified.
func CompressTags(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	data, err := json.Marshal(sorted)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ExtractTags decodes a serialized tag list. Malformed or empty input
// yields an empty slice, never nil.
func ExtractTags(serialized string) []string {
	if serialized == "" {
		return []string{}
	}
	var names []string
	if err := json.Unmarshal([]byte(serialized), &names); err != nil || names == nil {
		return []string{}
	}
	return names
}
