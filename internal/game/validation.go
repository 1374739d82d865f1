package game

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

// ValidateName returns the display name with collapsed whitespace.
func ValidateName(name string, maxLen int) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return "", invalid("name is required")
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", invalid("name must be %d characters or fewer", maxLen)
	}
	if !isPrintable(trimmed) {
		return "", invalid("name contains unsupported characters")
	}
	return trimmed, nil
}

// ValidateInvention checks invention text without rewriting it; what is stored
// is exactly what the player typed.
func ValidateInvention(text string, maxLen int) error {
	if strings.TrimSpace(text) == "" {
		return invalid("invention is required")
	}
	if !utf8.ValidString(text) {
		return invalid("invention is not valid text")
	}
	if utf8.RuneCountInString(text) > maxLen {
		return invalid("invention must be %d characters or fewer", maxLen)
	}
	return nil
}

func ValidatePitch(text string, maxLen int) error {
	if !utf8.ValidString(text) {
		return invalid("pitch is not valid text")
	}
	if utf8.RuneCountInString(text) > maxLen {
		return invalid("pitch must be %d characters or fewer", maxLen)
	}
	return nil
}

// ValidateDrawing bounds the payload and requires a base64 image data URL, the
// form a canvas export produces and an <img> can show.
func ValidateDrawing(data string, maxBytes int) error {
	if data == "" {
		return invalid("drawing is required")
	}
	if len(data) > maxBytes {
		return invalid("drawing must be %d bytes or fewer", maxBytes)
	}
	if _, err := decodeImageData(data); err != nil {
		return invalid("drawing must be a base64 image data URL")
	}
	return nil
}

func decodeImageData(data string) ([]byte, error) {
	header, payload, ok := strings.Cut(data, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, errors.New("not an image data url")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, errors.New("no image data")
	}
	return decoded, nil
}

func isPrintable(text string) bool {
	for _, r := range text {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
