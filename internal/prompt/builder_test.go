package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/easeaico/senior-acido/internal/types"
	"github.com/easeaico/senior-acido/internal/utils"
)

func TestBuildOrder(t *testing.T) {
	b := NewBuilder(0)
	out, err := b.Build(BuildContext{
		Persona: "PERSONA-X",
		Profile: types.Profile{InterestsSummary: "Python; IoT"},
		History: []types.HistoryRecord{
			{Question: "q-antiga", Answer: "a-antiga"},
			{Question: "q-nova", Answer: "a-nova"},
		},
		Similar: []types.SimilarRecord{{Question: "q-similar", Answer: "a-similar"}},
		Excerpt: "EXCERTO-ARQUIVO",
		World:   "São Paulo, 23.5°C",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	order := []string{"PERSONA-X", "REGRAS OBRIGATÓRIAS", "São Paulo, 23.5°C", "Interesses: Python; IoT", "q-antiga", "q-nova", "q-similar", "EXCERTO-ARQUIVO"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		if idx < 0 {
			t.Fatalf("missing %q in instruction:\n%s", marker, out)
		}
		if idx <= last {
			t.Fatalf("%q out of order in instruction:\n%s", marker, out)
		}
		last = idx
	}
}

func TestBuildOmitsEmptySections(t *testing.T) {
	out, err := NewBuilder(0).Build(BuildContext{Persona: "P"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, section := range []string{"PERFIL DO MENTORADO", "HISTÓRICO RECENTE", "CONTEXTO DO ARQUIVO", "Dados do mundo agora"} {
		if strings.Contains(out, section) {
			t.Fatalf("unexpected section %q in:\n%s", section, out)
		}
	}
	if !strings.Contains(out, "Nunca diga que não tem acesso") {
		t.Fatalf("behavioural override missing:\n%s", out)
	}
}

func TestBuildFallbackPersona(t *testing.T) {
	out, err := NewBuilder(0).Build(BuildContext{Persona: "   "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(out, FallbackPersona) {
		t.Fatalf("expected fallback persona first, got %q", out[:40])
	}
}

func TestBuildEnforcesBudget(t *testing.T) {
	out, err := NewBuilder(1000).Build(BuildContext{Persona: "P", Excerpt: strings.Repeat("x", 5000)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n := utf8.RuneCountInString(out); n != 1000 {
		t.Fatalf("expected 1000 runes, got %d", n)
	}
	if !strings.HasSuffix(out, utils.TruncationMarker) {
		t.Fatalf("expected truncation marker at the end")
	}
}

func TestPersonaLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persona.txt")
	if err := os.WriteFile(path, []byte("  Persona do arquivo\n"), 0o600); err != nil {
		t.Fatalf("failed to write persona: %v", err)
	}

	l := NewPersonaLoader(path)
	if got := l.Persona(); got != "Persona do arquivo" {
		t.Fatalf("unexpected persona: %q", got)
	}
	if err := os.WriteFile(path, []byte("mudou"), 0o600); err != nil {
		t.Fatalf("failed to rewrite persona: %v", err)
	}
	if got := l.Persona(); got != "Persona do arquivo" {
		t.Fatalf("persona should be cached, got %q", got)
	}

	if got := NewPersonaLoader(filepath.Join(dir, "nao-existe.txt")).Persona(); got != FallbackPersona {
		t.Fatalf("missing file should use fallback, got %q", got)
	}
	empty := filepath.Join(dir, "vazio.txt")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("failed to write empty persona: %v", err)
	}
	if got := NewPersonaLoader(empty).Persona(); got != FallbackPersona {
		t.Fatalf("empty file should use fallback, got %q", got)
	}
}
