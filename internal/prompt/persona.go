package prompt

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// FallbackPersona is used when no persona file is available.
const FallbackPersona = `Você é o 'Sênior Ácido', um mentor de TI veterano.
- Personalidade: sarcástico, assertivo e direto. Use analogias de TI (ex: comparar RAM com mesa de trabalho).
- Foco: IA, Dados e LGPD.
- Governança: se o usuário enviar dados sensíveis, dê um alerta imediato.
- Estilo: sem enrolação. Se a dúvida for boba, seja ironicamente pedagógico.`

// PersonaLoader reads the persona file once and caches the result.
type PersonaLoader struct {
	path string
	once sync.Once
	text string
}

func NewPersonaLoader(path string) *PersonaLoader {
	return &PersonaLoader{path: path}
}

// Persona returns the cached persona text, falling back to FallbackPersona.
func (l *PersonaLoader) Persona() string {
	l.once.Do(func() {
		l.text = l.load()
	})
	return l.text
}

func (l *PersonaLoader) load() string {
	if l.path == "" {
		return FallbackPersona
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("persona file not found, using built-in persona", "path", l.path)
		} else {
			slog.Warn("failed to read persona file, using built-in persona", "path", l.path, "error", err.Error())
		}
		return FallbackPersona
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		slog.Warn("persona file is empty, using built-in persona", "path", l.path)
		return FallbackPersona
	}
	return text
}
