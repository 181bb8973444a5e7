package parsing

import (
	"errors"
	"testing"

	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainText(t *testing.T) {
	text, err := ExtractText([]byte("  Relatório Focus projeta inflação de 3.9% para 2024.  \n"), "focus.txt")
	require.NoError(t, err)
	assert.Equal(t, "Relatório Focus projeta inflação de 3.9% para 2024.", text)
}

func TestExtractText_Empty(t *testing.T) {
	_, err := ExtractText(nil, "empty.txt")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)

	_, err = ExtractText([]byte("   \n\t "), "blank.txt")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
}

func TestExtractText_CorruptedPDF(t *testing.T) {
	corrupted := []byte("%PDF-1.7 this is not a real pdf body")

	_, err := ExtractText(corrupted, "report.pdf")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)

	// A corrupted document must not poison subsequent calls.
	text, err := ExtractText([]byte("ata do copom"), "copom.txt")
	require.NoError(t, err)
	assert.Equal(t, "ata do copom", text)
}

func TestExtractText_InvalidUTF8(t *testing.T) {
	_, err := ExtractText([]byte{0xff, 0xfe, 0x00, 0x01}, "blob.bin")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF([]byte("%PDF-1.4"), "anything"))
	assert.True(t, isPDF([]byte("no magic"), "report.PDF"))
	assert.False(t, isPDF([]byte("plain"), "notes.txt"))
	assert.False(t, isPDF([]byte("plain"), "README"))
}
