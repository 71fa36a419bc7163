package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"google.golang.org/genai"
)

func TestExtractContentText(t *testing.T) {
	content := &genai.Content{Parts: []*genai.Part{{Text: "olá "}, nil, {Text: "mundo"}}}
	if got := ExtractContentText(content); got != "olá mundo" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := ExtractContentText(nil); got != "" {
		t.Fatalf("expected empty text for nil content, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("curto", 100); got != "curto" {
		t.Fatalf("short text should be untouched, got %q", got)
	}
	long := strings.Repeat("ç", 500)
	got := TruncateRunes(long, 100)
	if utf8.RuneCountInString(got) != 100 {
		t.Fatalf("expected 100 runes, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("expected truncation marker, got %q", got[len(got)-20:])
	}
	if got := TruncateRunes(long, 3); got != "ççç" {
		t.Fatalf("tiny budget should cut without marker, got %q", got)
	}
}

func TestExtractJSONObject(t *testing.T) {
	got, err := ExtractJSONObject("```json\n{\"reply\":\"ok\"}\n```")
	if err != nil || got != `{"reply":"ok"}` {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
	if _, err := ExtractJSONObject("sem json aqui"); err == nil {
		t.Fatalf("expected error without JSON object")
	}
}
