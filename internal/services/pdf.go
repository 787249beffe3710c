package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const MaxResumeBytes = 10 * 1024 * 1024

var ErrNotPDF = errors.New("file is not a PDF")

// ExtractPDFText returns the plain text of every readable page.
func ExtractPDFText(data []byte) (text string, err error) {
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return "", ErrNotPDF
	}

	// The parser panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("reading PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}
	return strings.TrimSpace(sb.String()), nil
}
