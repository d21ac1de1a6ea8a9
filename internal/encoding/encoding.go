// Package encoding converts text inputs of unknown or configured charset to
// UTF-8 before they reach a parser. Reference extracts of the retail data set
// are commonly exported as Windows-1252 from spreadsheet tools.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Auto requests charset detection.
const Auto = "auto"

// sniffLen is how many bytes are inspected for a BOM and by the detector.
const sniffLen = 8192

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewReader returns a reader yielding r as UTF-8. name is a WHATWG charset
// label such as "windows-1252" or "utf-16le"; "" and Auto detect it.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == Auto {
		rd, _, err := Detect(r)
		return rd, err
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", name, err)
	}
	if enc == unicode.UTF8 {
		return stripUTF8BOM(r)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// Detect sniffs the charset of r and returns a UTF-8 reader with the same
// content, plus the charset it settled on. A UTF-8 BOM is dropped.
//
// Order: BOM, valid UTF-8, chardet's best guess, Windows-1252.
func Detect(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, "utf-8", nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), "utf-16le", nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), "utf-16be", nil
	}

	if validPrefix(buf) {
		return br, "utf-8", nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch res.Charset {
		case "UTF-8":
			return br, "utf-8", nil
		case "ISO-8859-1", "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), "windows-1252", nil
		case "ISO-8859-15":
			return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), "iso-8859-15", nil
		case "ISO-8859-9":
			return transform.NewReader(br, charmap.ISO8859_9.NewDecoder()), "iso-8859-9", nil
		}
	}
	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), "windows-1252", nil
}

// validPrefix is utf8.Valid tolerant of a multi-byte rune cut off at the end
// of the sniffed window.
func validPrefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return !utf8.FullRune(b[len(b)-cut:])
		}
	}
	return false
}

func stripUTF8BOM(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(bomUTF8))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}
	if bytes.Equal(head, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
	}
	return br, nil
}
