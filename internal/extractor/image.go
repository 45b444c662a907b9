package extractor

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// newOCRFunc builds an OCR routine bound to the configured tesseract
// language packs. Each call runs a fresh client; the binding is not safe
// for reuse across goroutines.
func newOCRFunc(languages []string) extractFunc {
	return func(data []byte) (string, error) {
		client := gosseract.NewClient()
		defer client.Close()

		if len(languages) > 0 {
			if err := client.SetLanguage(languages...); err != nil {
				return "", fmt.Errorf("failed to set OCR languages: %w", err)
			}
		}

		if err := client.SetImageFromBytes(data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrDocumentFormat, err)
		}

		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDocumentFormat, err)
		}

		return text, nil
	}
}
