package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// renderCSV reads the header and at most rowCap data rows and renders them as a Markdown table.
func renderCSV(r io.Reader, rowCap int) (string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return "", errors.New("arquivo CSV vazio")
	}
	if err != nil {
		return "", fmt.Errorf("cabeçalho CSV inválido: %w", err)
	}

	var sb strings.Builder
	writeRow(&sb, head, len(head))
	sb.WriteString("|")
	for range head {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	rows := 0
	for rows < rowCap {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("linha %d inválida: %w", rows+2, err)
		}
		writeRow(&sb, record, len(head))
		rows++
	}

	if _, err := reader.Read(); err == nil {
		fmt.Fprintf(&sb, "(mostrando apenas as primeiras %d linhas)\n", rowCap)
	}
	return sb.String(), nil
}

func writeRow(sb *strings.Builder, cells []string, width int) {
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(cells) {
			cell = strings.ReplaceAll(strings.TrimSpace(cells[i]), "|", `\|`)
			cell = strings.ReplaceAll(cell, "\n", " ")
		}
		sb.WriteString(" ")
		sb.WriteString(cell)
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}
