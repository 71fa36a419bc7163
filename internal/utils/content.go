package utils

import (
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"
)

// TruncationMarker is appended wherever text was cut to fit a budget.
const TruncationMarker = "\n…[truncado]"

func ExtractContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// TruncateRunes cuts text to at most limit runes, marker included.
func TruncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	keep := limit - utf8.RuneCountInString(TruncationMarker)
	if keep <= 0 {
		return string([]rune(text)[:limit])
	}
	return string([]rune(text)[:keep]) + TruncationMarker
}
