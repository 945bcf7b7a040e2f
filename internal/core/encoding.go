package core

// encoding.go detects the character encoding of a source file from a
// leading byte sample.
//
// Detection runs in this order:
//
//  1. A byte order mark decides (UTF-8, UTF-16LE, UTF-16BE).
//  2. A sample that is valid UTF-8 is UTF-8. ASCII files land here too.
//  3. Statistical detection with chardet, resolved to a decoder through the
//     IANA charset registry.
//  4. Anything indeterminate uses the configured fallback encoding.

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultSampleBytes is the size of the leading sample used for detection.
const DefaultSampleBytes = 10000

// DefaultFallbackEncoding is used when detection is indeterminate.
const DefaultFallbackEncoding = "UTF-8"

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// charsetAliases maps detector charset names that the IANA index does not
// know to names it does.
var charsetAliases = map[string]string{
	"gb-18030":     "GB18030",
	"iso-8859-8-i": "ISO-8859-8",
}

// DetectedEncoding is the outcome of encoding detection.
type DetectedEncoding struct {
	Name       string
	Encoding   encoding.Encoding
	Confidence int  // Detector confidence 0-100; 100 for BOM and UTF-8 validation
	Fallback   bool // True when detection was indeterminate
}

// IsUTF8 reports whether the file can be read without transcoding.
func (d DetectedEncoding) IsUTF8() bool {
	return d.Encoding == unicode.UTF8 || d.Encoding == unicode.UTF8BOM
}

// DetectEncoding picks the encoding of sample. It never fails: an
// indeterminate result resolves to fallback, and an unknown fallback name
// resolves to UTF-8.
func DetectEncoding(sample []byte, fallback string) DetectedEncoding {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return DetectedEncoding{Name: "UTF-8", Encoding: unicode.UTF8BOM, Confidence: 100}
	case bytes.HasPrefix(sample, bomUTF16LE):
		return DetectedEncoding{Name: "UTF-16LE", Encoding: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), Confidence: 100}
	case bytes.HasPrefix(sample, bomUTF16BE):
		return DetectedEncoding{Name: "UTF-16BE", Encoding: unicode.UTF16(unicode.BigEndian, unicode.UseBOM), Confidence: 100}
	}

	// The sample may end in the middle of a multi-byte rune.
	trimmed := sample[:len(sample)-incompleteTrailingBytes(sample)]
	if utf8.Valid(trimmed) {
		return DetectedEncoding{Name: "UTF-8", Encoding: unicode.UTF8, Confidence: 100}
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil && result != nil {
		if enc, name, ok := lookupEncoding(result.Charset); ok {
			return DetectedEncoding{Name: name, Encoding: enc, Confidence: result.Confidence}
		}
	}

	return fallbackEncoding(fallback)
}

func fallbackEncoding(name string) DetectedEncoding {
	if enc, canonical, ok := lookupEncoding(name); ok {
		return DetectedEncoding{Name: canonical, Encoding: enc, Fallback: true}
	}
	return DetectedEncoding{Name: "UTF-8", Encoding: unicode.UTF8, Fallback: true}
}

// lookupEncoding resolves a charset name to a decoder. The IANA index
// returns a nil encoding without error for charsets it names but cannot
// decode, which counts as not found.
func lookupEncoding(name string) (encoding.Encoding, string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", false
	}
	if alias, ok := charsetAliases[strings.ToLower(name)]; ok {
		name = alias
	}
	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "UTF-8", "UTF8", "ASCII", "US-ASCII":
		return unicode.UTF8, "UTF-8", true
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, "", false
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil || canonical == "" {
		canonical = name
	}
	return enc, canonical, true
}
