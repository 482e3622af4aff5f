package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
	}
	fields = append(fields, additionalFields...)
	h.logger.Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)
	h.logger.LogError(err, message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{Message: message}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.logger.Warn(message, "status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Message: message, Data: data})
}

// handleServiceError maps service-layer errors to HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Resource not found", err, err.Error())
	case services.IsRejection(err):
		// local input-validation rejection: the session state is unchanged
		h.RespondWithError(c, http.StatusUnprocessableEntity, "Answer rejected", nil, err.Error())
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Invalid session state", err, err.Error())
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
