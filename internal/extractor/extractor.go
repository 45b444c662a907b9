package extractor

import (
	"errors"
	"path/filepath"
	"strings"

	"cvlens/internal/logging"
)

// ErrDocumentFormat indicates the underlying parser could not open the
// byte stream (corrupt file or wrong format). Surfaced to HTTP callers as
// a client error, never retried.
var ErrDocumentFormat = errors.New("document format not readable")

// extractFunc converts raw file bytes to plain text
type extractFunc func(data []byte) (string, error)

// Extractor routes a document payload to the correct format-specific
// extraction routine based on the file extension.
type Extractor struct {
	pdf    extractFunc
	docx   extractFunc
	image  extractFunc
	logger logging.Logger
}

// Options configures the format-specific extraction routines
type Options struct {
	// OCRLanguages selects the tesseract language packs used for images
	OCRLanguages []string
}

// New creates an Extractor wired to the real PDF, DOCX and OCR routines
func New(opts Options) *Extractor {
	return &Extractor{
		pdf:    extractPDF,
		docx:   extractDOCX,
		image:  newOCRFunc(opts.OCRLanguages),
		logger: logging.GetGlobalLogger(),
	}
}

// Extract dispatches on the filename suffix and returns the extracted
// plain text, trimmed of leading and trailing whitespace.
//
// Unrecognized suffixes deliberately fall back to PDF extraction. That
// mirrors the historical behavior of this service; a non-PDF payload then
// fails with ErrDocumentFormat instead of being rejected up front.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var err error

	switch ext {
	case ".pdf":
		text, err = e.pdf(data)
	case ".docx":
		text, err = e.docx(data)
	case ".png", ".jpg", ".jpeg":
		text, err = e.image(data)
	default:
		e.logger.Debug("Unrecognized extension, falling back to PDF extraction", map[string]interface{}{
			"filename": filename,
		})
		text, err = e.pdf(data)
	}

	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}
