// Package encoding turns feed bytes of unknown encoding into UTF-8 text.
package encoding

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Normalize converts a raw byte sequence into a UTF-8 string. It never fails:
// charset detection is tried first, then a byte-for-byte Latin-1 decode, then
// UTF-8 with invalid sequences replaced.
func Normalize(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	if text, ok := decodeDetected(raw); ok {
		return text
	}

	if text, ok := decodeLatin1(raw); ok {
		slog.Warn("Charset detection failed, decoded as Latin-1")
		return text
	}

	slog.Warn("Falling back to lossy UTF-8 decode")
	return strings.ToValidUTF8(string(raw), "�")
}

// decodeDetected runs charset sniffing (BOM, declarations, content
// heuristics) and decodes with the detected encoding. When sniffing is
// uncertain and the bytes already form valid UTF-8, they are kept as is
// instead of trusting the windows-1252 fallback.
func decodeDetected(raw []byte) (string, bool) {
	enc, name, certain := charset.DetermineEncoding(raw, "")
	if !certain && utf8.Valid(raw) {
		return string(raw), true
	}
	if enc == nil {
		return "", false
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		slog.Debug("Detected charset failed to decode", "charset", name, "error", err)
		return "", false
	}

	slog.Debug("Decoded feed bytes", "charset", name, "bytes", len(raw))
	return string(decoded), true
}

// decodeLatin1 maps every byte to its Latin-1 code point. The decode itself
// cannot fail; the bool mirrors the tiered interface above.
func decodeLatin1(raw []byte) (string, bool) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
