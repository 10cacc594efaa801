package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	PDF  = "pdf"
	PNG  = "png"
	JPEG = "jpeg"
	JPG  = "jpg"
	GIF  = "gif"
	WEBP = "webp"
	TXT  = "txt"
	MD   = "md"
	CSV  = "csv"
	XLSX = "xlsx"
	DOCX = "docx"
	DOC  = "doc"
)

const defaultMIME = "application/octet-stream"

var extMIME = map[string]string{
	PDF:  "application/pdf",
	PNG:  "image/png",
	JPEG: "image/jpeg",
	JPG:  "image/jpeg",
	GIF:  "image/gif",
	WEBP: "image/webp",
	TXT:  "text/plain",
	MD:   "text/markdown",
	CSV:  "text/csv",
	XLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	DOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	DOC:  "application/msword",
}

// ResolveMIME picks the declared type, then the extension table, then
// content sniffing.
func ResolveMIME(f models.UploadedFile) string {
	if declared := baseType(f.DeclaredMIME); declared != "" && declared != defaultMIME {
		return declared
	}
	if m, ok := extMIME[f.Ext()]; ok {
		return m
	}
	if len(f.Content) > 0 {
		if sniffed := baseType(mimetype.Detect(f.Content).String()); sniffed != "" {
			return sniffed
		}
	}
	return defaultMIME
}

func baseType(m string) string {
	m, _, _ = strings.Cut(m, ";")
	return strings.ToLower(strings.TrimSpace(m))
}

// Truncate keeps the first limit code points of s. It never splits a UTF-8
// sequence and Truncate(Truncate(s, n), n) == Truncate(s, n).
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func pdfText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i+1, err)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}
	return decodeUTF8([]byte(b.String())), nil
}

// xlsxText renders every sheet as a markdown table.
func xlsxText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		width := 0
		for _, row := range rows {
			width = max(width, len(row))
		}
		if width == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", sheet)

		writeRow(&b, rows[0], width)
		b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		for _, row := range rows[1:] {
			writeRow(&b, row, width)
		}
	}
	return b.String(), nil
}

func writeRow(b *strings.Builder, row []string, width int) {
	cells := make([]string, width)
	for i := range cells {
		if i < len(row) {
			cells[i] = strings.ReplaceAll(row[i], "\n", " ")
		}
	}
	b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
}
