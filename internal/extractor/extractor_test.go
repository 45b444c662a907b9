package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlens/internal/logging"
)

func newStubExtractor(pdf, docx, image extractFunc) *Extractor {
	return &Extractor{
		pdf:    pdf,
		docx:   docx,
		image:  image,
		logger: logging.GetGlobalLogger(),
	}
}

func recordingFunc(label string, calls *[]string) extractFunc {
	return func(data []byte) (string, error) {
		*calls = append(*calls, label)
		return label + " text", nil
	}
}

func TestExtractDispatchesOnExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"pdf", "resume.pdf", "pdf"},
		{"pdf uppercase", "RESUME.PDF", "pdf"},
		{"docx", "resume.docx", "docx"},
		{"png", "scan.png", "image"},
		{"jpg", "scan.jpg", "image"},
		{"jpeg", "scan.jpeg", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			e := newStubExtractor(
				recordingFunc("pdf", &calls),
				recordingFunc("docx", &calls),
				recordingFunc("image", &calls),
			)

			text, err := e.Extract(tt.filename, []byte("payload"))
			require.NoError(t, err)
			assert.Equal(t, tt.want+" text", text)
			assert.Equal(t, []string{tt.want}, calls)
		})
	}
}

func TestExtractUnknownExtensionFallsBackToPDF(t *testing.T) {
	for _, filename := range []string{"resume.txt", "resume", "resume.rtf"} {
		var calls []string
		e := newStubExtractor(
			recordingFunc("pdf", &calls),
			recordingFunc("docx", &calls),
			recordingFunc("image", &calls),
		)

		_, err := e.Extract(filename, []byte("payload"))
		require.NoError(t, err)
		assert.Equal(t, []string{"pdf"}, calls, "filename %q should route to pdf", filename)
	}
}

func TestExtractTrimsWhitespace(t *testing.T) {
	e := newStubExtractor(func(data []byte) (string, error) {
		return "\n  Jane Doe\nEngineer  \n\n", nil
	}, nil, nil)

	text, err := e.Extract("resume.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nEngineer", text)
}

func TestExtractPropagatesFormatError(t *testing.T) {
	e := newStubExtractor(func(data []byte) (string, error) {
		return "", ErrDocumentFormat
	}, nil, nil)

	_, err := e.Extract("broken.pdf", []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrDocumentFormat)
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	// The real PDF routine must degrade to ErrDocumentFormat on bytes
	// that are not a PDF, never panic
	_, err := extractPDF([]byte("definitely not a pdf"))
	assert.ErrorIs(t, err, ErrDocumentFormat)
}
