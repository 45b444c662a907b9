package routes

import (
	"errors"
	"net/http"

	"cvlens/internal/api/handlers"
	"cvlens/internal/api/middleware"
	"cvlens/internal/config"
	"cvlens/internal/extractor"
	"cvlens/internal/llm"
	"cvlens/pkg/models"
	"cvlens/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, llmManager *llm.Manager, textExtractor *extractor.Extractor) {
	e.HTTPErrorHandler = errorHandler

	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit("10M"))
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation(cfg))
	// Extraction calls the model and carries its own deadline; everything
	// else gets the server read timeout
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(llmManager))
		health.GET("/live", handlers.LivenessHandler)
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(llmManager))

	// Resume extraction route
	e.POST("/extract-resume", handlers.ExtractResumeHandler(llmManager, textExtractor))

	// Root route
	e.GET("/", handlers.RootHandler)
}

// errorHandler converts every error escaping a handler into the JSON error
// envelope. Callers only ever see a short message, never a stack trace.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := models.ExtractErrorResponse{Error: "Server error"}

	var customErr *utils.CustomError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &customErr):
		code = customErr.Code
		if code >= http.StatusInternalServerError {
			body.Details = customErr.Message
		} else {
			body.Error = customErr.Message
		}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && code < http.StatusInternalServerError {
			body.Error = msg
		}
	}

	_ = c.JSON(code, body)
}
