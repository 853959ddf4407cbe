package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	ExtractText(filePath string) (string, error)
	Supports(ext string) bool
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// Supports reports whether ext (with leading dot) can be extracted.
func (p *textExtractor) Supports(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

func (p *textExtractor) ExtractText(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !p.Supports(ext) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	var (
		text string
		err  error
	)
	if ext == ".pdf" {
		text, err = extractPDF(filePath)
	} else {
		var raw []byte
		raw, err = os.ReadFile(filePath)
		text = string(raw)
	}
	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func extractPDF(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		// Unreadable pages are skipped; an all-empty result is reported by the caller.
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// CleanText drops blank lines and trailing whitespace. Leading indentation is
// kept because the resume parser reads it as bullet continuation.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
