package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"retailetl/internal/encoding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestDetect_UTF8Passthrough(t *testing.T) {
	input := "Country,Continent\nCôte d'Ivoire,Africa\nRéunion,Africa\n"
	r, cs, err := encoding.Detect(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", cs)
	assert.Equal(t, input, readAll(t, r))
}

func TestDetect_StripsUTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, "InvoiceNo,Fournisseur\n"...)
	r, cs, err := encoding.Detect(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", cs)
	assert.Equal(t, "InvoiceNo,Fournisseur\n", readAll(t, r))
}

func TestDetect_UTF16LE(t *testing.T) {
	// "ab\n" in UTF-16LE with BOM.
	input := []byte{0xFF, 0xFE, 'a', 0, 'b', 0, '\n', 0}
	r, cs, err := encoding.Detect(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "utf-16le", cs)
	assert.Equal(t, "ab\n", readAll(t, r))
}

func TestDetect_Windows1252Fallback(t *testing.T) {
	// "Société Générale" with é = 0xE9 in Windows-1252.
	input := []byte("InvoiceNo,Fournisseur\n536365,Soci\xe9t\xe9 G\xe9n\xe9rale\n")
	r, _, err := encoding.Detect(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "InvoiceNo,Fournisseur\n536365,Société Générale\n", readAll(t, r))
}

func TestNewReader_ExplicitCharset(t *testing.T) {
	r, err := encoding.NewReader(bytes.NewReader([]byte("caf\xe9")), "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "café", readAll(t, r))

	r, err = encoding.NewReader(bytes.NewReader([]byte("\xEF\xBB\xBFok")), "utf-8")
	require.NoError(t, err)
	assert.Equal(t, "ok", readAll(t, r))
}

func TestNewReader_UnknownCharset(t *testing.T) {
	_, err := encoding.NewReader(strings.NewReader("x"), "klingon-8")
	assert.Error(t, err)
}

func TestDetect_EmptyInput(t *testing.T) {
	r, cs, err := encoding.Detect(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", cs)
	assert.Equal(t, "", readAll(t, r))
}
