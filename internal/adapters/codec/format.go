package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bnema/kiro-accounts-cli/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTXT, "text":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, raw)
	}
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", domain.ErrUnsupportedFormat, filepath.Base(path))
	}
	return ParseFormat(ext)
}
