package utils

import (
	"fmt"
	"strings"
)

// ExtractJSONObject returns the substring between the first "{" and the last "}".
func ExtractJSONObject(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model output")
	}
	return clean[start : end+1], nil
}
