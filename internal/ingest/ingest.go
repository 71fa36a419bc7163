// Package ingest turns uploaded files into bounded text excerpts for the prompt.
package ingest

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/easeaico/senior-acido/internal/config"
	"github.com/easeaico/senior-acido/internal/types"
	"github.com/easeaico/senior-acido/internal/utils"
)

// Kind is the detected format of an attachment.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

// Excerpt is the prompt-ready rendering of one attachment.
type Excerpt struct {
	Name string
	Kind Kind
	Text string
	// Content is the whole decoded file, before any row, page or character cap.
	// It is scanned for personal data and never sent to a model.
	Content string
	// Err is set when Text holds a diagnostic instead of file content.
	Err error
}

// Ingestor decodes attachments within the configured limits.
type Ingestor struct {
	limits  config.Limits
	openPDF func(data []byte) (PageSource, error)
}

// NewIngestor returns an Ingestor bounded by limits.
func NewIngestor(limits config.Limits) *Ingestor {
	return &Ingestor{limits: limits, openPDF: openPDF}
}

// Ingest renders att as text. Decode failures produce a diagnostic excerpt, never an error.
func (i *Ingestor) Ingest(att *types.Attachment) Excerpt {
	if att == nil {
		return Excerpt{}
	}
	name := att.Name
	if name == "" {
		name = "anexo"
	}
	kind := Detect(name, att.ContentType, att.Data)
	excerpt := Excerpt{Name: name, Kind: kind}

	var (
		body string
		err  error
	)
	switch kind {
	case KindCSV:
		excerpt.Content = decodeText(att.Data)
		body, err = renderCSV(bytes.NewReader(att.Data), i.limits.RowCap)
	case KindPDF:
		body, excerpt.Content, err = i.renderPDF(att.Data)
	default:
		excerpt.Content = decodeText(att.Data)
		body = excerpt.Content
	}
	if err != nil {
		excerpt.Err = err
		excerpt.Text = Diagnostic(name, err)
		return excerpt
	}

	excerpt.Text = utils.TruncateRunes(header(name, kind, i.limits)+body, i.limits.CharBudget)
	return excerpt
}

// Diagnostic is the excerpt substituted for a file that could not be read.
func Diagnostic(name string, err error) string {
	return fmt.Sprintf("[Falha ao ler o arquivo %s: %v]", name, err)
}

// Detect picks the format from the extension, the declared type and the leading bytes.
func Detect(name, contentType string, data []byte) Kind {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case strings.EqualFold(filepath.Ext(name), ".csv"), mediaType == "text/csv":
		return KindCSV
	case strings.EqualFold(filepath.Ext(name), ".pdf"), mediaType == "application/pdf", bytes.HasPrefix(data, []byte("%PDF-")):
		return KindPDF
	default:
		return KindText
	}
}

func header(name string, kind Kind, limits config.Limits) string {
	switch kind {
	case KindCSV:
		return fmt.Sprintf("Arquivo %s (tabela, até %d linhas):\n", name, limits.RowCap)
	case KindPDF:
		return fmt.Sprintf("Arquivo %s (PDF, até %d páginas):\n", name, limits.PageCap)
	default:
		return fmt.Sprintf("Arquivo %s:\n", name)
	}
}

func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
