package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageSource exposes page-addressed text. Pages are numbered from 1.
type PageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

// renderPDF returns the capped excerpt body and the text of every page.
func (i *Ingestor) renderPDF(data []byte) (body, content string, err error) {
	src, err := i.openPDF(data)
	if err != nil {
		return "", "", err
	}
	body, err = renderPages(src, i.limits.PageCap)
	if err != nil {
		return "", "", err
	}
	return body, allPages(src), nil
}

// renderPages concatenates the text of the first pageCap pages.
func renderPages(src PageSource, pageCap int) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF corrompido: %v", r)
		}
	}()

	total := src.NumPage()
	if total == 0 {
		return "", errors.New("PDF sem páginas")
	}
	last := min(total, pageCap)

	var sb strings.Builder
	for n := 1; n <= last; n++ {
		text, err := src.PageText(n)
		if err != nil {
			return "", fmt.Errorf("página %d: %w", n, err)
		}
		fmt.Fprintf(&sb, "[Página %d]\n%s\n", n, strings.TrimSpace(text))
	}
	if total > last {
		fmt.Fprintf(&sb, "(mostrando %d de %d páginas)\n", last, total)
	}
	return sb.String(), nil
}

// allPages joins the text of every readable page. Unreadable pages are skipped.
func allPages(src PageSource) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()
	var sb strings.Builder
	for n := 1; n <= src.NumPage(); n++ {
		if text, err := src.PageText(n); err == nil {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

type pdfPages struct {
	reader *pdf.Reader
}

func openPDF(data []byte) (src PageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF corrompido: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("PDF inválido: %w", err)
	}
	return &pdfPages{reader: reader}, nil
}

func (p *pdfPages) NumPage() int {
	return p.reader.NumPage()
}

func (p *pdfPages) PageText(n int) (string, error) {
	page := p.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
