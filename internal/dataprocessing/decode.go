package dataprocessing

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "psconvert/internal/errors"
)

// EncodingAuto sniffs a byte order mark and falls back to UTF-8.
const EncodingAuto = "auto"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw file bytes to text. Supported names are "utf-16"
// (BOM-aware, little-endian without one, as PStouch writes), "utf-16le",
// "utf-16be", "utf-8", "auto" and any WHATWG label such as "windows-1252".
func Decode(raw []byte, name string) (string, error) {
	canonical := normalizeEncodingName(name)

	switch canonical {
	case "utf-8":
		body := bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(body) {
			return "", apperrors.NewDecodeError("input is not valid utf-8", nil).
				WithContext("encoding", name)
		}
		return string(body), nil
	case "utf-16", "utf-16le", "utf-16be":
		if len(raw)%2 != 0 {
			return "", apperrors.NewDecodeError(
				fmt.Sprintf("%s input has odd length %d", canonical, len(raw)), nil).
				WithContext("encoding", name)
		}
	}

	decoder, err := newDecoder(canonical)
	if err != nil {
		return "", apperrors.NewDecodeError(fmt.Sprintf("unsupported encoding %q", name), err).
			WithContext("encoding", name)
	}

	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", apperrors.NewDecodeError(fmt.Sprintf("cannot decode input as %s", canonical), err).
			WithContext("encoding", name)
	}

	text := strings.TrimPrefix(string(out), "\uFEFF")
	if strings.HasPrefix(canonical, "utf-16") && strings.ContainsRune(text, utf8.RuneError) {
		return "", apperrors.NewDecodeError(
			fmt.Sprintf("input contains sequences that are not valid %s", canonical), nil).
			WithContext("encoding", name)
	}
	return text, nil
}

// SupportedEncoding reports whether Decode accepts name.
func SupportedEncoding(name string) bool {
	canonical := normalizeEncodingName(name)
	if canonical == "utf-8" {
		return true
	}
	_, err := newDecoder(canonical)
	return err == nil
}

func normalizeEncodingName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "utf16":
		return "utf-16"
	case "utf16le":
		return "utf-16le"
	case "utf16be":
		return "utf-16be"
	case "utf8", "utf-8-sig":
		return "utf-8"
	}
	return n
}

func newDecoder(canonical string) (transform.Transformer, error) {
	switch canonical {
	case "utf-16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), nil
	case EncodingAuto:
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "":
		return nil, fmt.Errorf("empty encoding name")
	}

	enc, err := htmlindex.Get(canonical)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder(), nil
}
