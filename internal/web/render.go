package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/easeaico/senior-acido/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// markdown renders replies with tables and strikethrough. Raw HTML in replies is dropped.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"markdown": renderMarkdown,
}).ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Turns      []types.Turn
	Forgotten  string
	Persistent bool
	Error      string
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		slog.Warn("failed to render markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}
