package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"cvlens/internal/extractor"
	"cvlens/internal/llm/processors"
	"cvlens/internal/llm/prompts"
	"cvlens/internal/logging"
	"cvlens/pkg/models"
	"cvlens/pkg/utils"
)

// TextExtractor is the narrow extraction contract the handler depends on
type TextExtractor interface {
	Extract(filename string, data []byte) (string, error)
}

// Generator is the narrow LLM contract the handler depends on
type Generator interface {
	Generate(ctx context.Context, req *models.GenerateRequest) (*models.ModelReply, error)
}

// ExtractResumeHandler handles the POST /extract-resume endpoint: validate
// the upload, extract raw text, ask the model for the structured resume,
// normalize, and respond.
func ExtractResumeHandler(generator Generator, textExtractor TextExtractor) echo.HandlerFunc {
	builder := prompts.NewBuilder()
	normalizer := processors.NewResponseNormalizer()

	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)
		c.Set("request_id", requestID)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ExtractErrorResponse{
				Error: "No file in request",
			})
		}

		if fileHeader.Filename == "" {
			return utils.NewBadRequestError("No selected file")
		}

		file, err := fileHeader.Open()
		if err != nil {
			logger.WithField("error", err.Error()).Error("Failed to open uploaded file")
			return utils.NewInternalServerError("could not read uploaded file")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.WithField("error", err.Error()).Error("Failed to read uploaded file")
			return utils.NewInternalServerError("could not read uploaded file")
		}

		logger.Info("Processing resume extraction request", map[string]interface{}{
			"filename": fileHeader.Filename,
			"size":     len(data),
		})

		rawText, err := textExtractor.Extract(fileHeader.Filename, data)
		if err != nil {
			if errors.Is(err, extractor.ErrDocumentFormat) {
				logger.WithField("error", err.Error()).Warn("Document could not be parsed")
				return c.JSON(http.StatusBadRequest, models.ExtractErrorResponse{
					Error: "Could not extract text",
				})
			}

			logger.WithField("error", err.Error()).Error("Extraction failed")
			return c.JSON(http.StatusInternalServerError, models.ExtractErrorResponse{
				Error:   "Server error",
				Details: err.Error(),
			})
		}

		if rawText == "" {
			return c.JSON(http.StatusBadRequest, models.ExtractErrorResponse{
				Error: "Could not extract text",
			})
		}

		reply, err := generator.Generate(c.Request().Context(), &models.GenerateRequest{
			Parts: builder.ResumePrompt(rawText),
		})
		if err != nil {
			logger.WithField("error", err.Error()).Error("LLM call failed")
			return c.JSON(http.StatusInternalServerError, models.ExtractErrorResponse{
				Error:   "Server error",
				Details: "model request failed",
			})
		}

		result := normalizer.NormalizeResumeJSON(reply.Text)
		if result.Failure != nil {
			// Malformed model output is recovered, not an error; the
			// caller branches on the embedded error field
			return c.JSON(http.StatusOK, result.Failure)
		}

		logger.Info("Resume extraction completed", map[string]interface{}{
			"missing_fields":   len(result.MissingFields),
			"malformed_fields": len(result.MalformedFields),
		})

		return c.JSON(http.StatusOK, models.ParsedResumeResponse{
			ParsedResume:    result.Resume,
			MissingFields:   result.MissingFields,
			MalformedFields: result.MalformedFields,
		})
	}
}

// RootHandler reports that the service is up
func RootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Resume Parser Server Running",
	})
}
