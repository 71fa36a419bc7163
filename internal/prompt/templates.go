package prompt

import (
	"strings"
	"text/template"

	"github.com/easeaico/senior-acido/internal/utils"
)

const instructionTemplateText = `{{.Persona}}

REGRAS OBRIGATÓRIAS:
- Responda sempre em português do Brasil.
- Você recebe dados do mundo real neste contexto. Nunca diga que não tem acesso a informações em tempo real.
- Se o usuário compartilhar dados pessoais (CPF, e-mail), faça um alerta de LGPD antes de responder.
- Use o perfil e o histórico abaixo como memória de longo prazo, sem recitá-los.
{{- if .World}}
- Dados do mundo agora: {{.World}}
{{- end}}
{{- if .HasProfile}}

PERFIL DO MENTORADO:
{{- if .Profile.EducationSummary}}
- Formação: {{.Profile.EducationSummary}}
{{- end}}
{{- if .Profile.InterestsSummary}}
- Interesses: {{.Profile.InterestsSummary}}
{{- end}}
{{- if .Profile.PrivacyNotes}}
- Notas de privacidade: {{.Profile.PrivacyNotes}}
{{- end}}
{{- end}}
{{- if .History}}

HISTÓRICO RECENTE (do mais antigo ao mais novo):
{{- range .History}}
- Pergunta: {{clip .Question 400}}
  Resposta: {{clip .Answer 600}}
{{- end}}
{{- end}}
{{- if .Similar}}

CONVERSAS ANTERIORES RELACIONADAS:
{{- range .Similar}}
- Pergunta: {{clip .Question 300}}
  Resposta: {{clip .Answer 400}}
{{- end}}
{{- end}}
{{- if .Excerpt}}

CONTEXTO DO ARQUIVO ENVIADO:
{{.Excerpt}}
{{- end}}`

var instructionTemplate = template.Must(template.New("instruction").Funcs(template.FuncMap{
	"clip": clip,
}).Parse(instructionTemplateText))

func clip(text string, limit int) string {
	return utils.TruncateRunes(strings.TrimSpace(text), limit)
}
