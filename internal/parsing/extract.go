package parsing

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/oraculo-ai/oraculo/internal/domain"
)

// ExtractText extracts plain text from an uploaded document. PDF bytes are
// parsed page by page; anything else is treated as UTF-8 plain text.
// Malformed or undecodable input fails with ErrUnsupportedDocument.
func ExtractText(data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrUnsupportedDocument
	}

	if isPDF(data, filename) {
		return extractPDF(data)
	}

	if !utf8.Valid(data) {
		return "", domain.ErrUnsupportedDocument
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", domain.ErrUnsupportedDocument
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "unsupported or malformed document", err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "unsupported or malformed document", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "unsupported or malformed document", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", domain.ErrUnsupportedDocument
	}
	return text, nil
}

// isPDF sniffs the magic header first and falls back to the file extension.
func isPDF(data []byte, filename string) bool {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(filenameExt(filename)), ".pdf")
}

func filenameExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
