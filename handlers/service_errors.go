package handlers

import (
	"net/http"

	"github.com/upb/quote-gateway/services"
	"github.com/upb/quote-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps service and carrier errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	domainErr := services.FromError(err)
	details := domainErr.Details
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, domainErr.Message)

	case services.ErrorTypeValidation:
		writeErr = utils.WriteBadRequest(w, domainErr.Message, details)

	case services.ErrorTypeConflict:
		writeErr = utils.WriteConflict(w, domainErr.Message, details)

	case services.ErrorTypeRateLimit:
		writeErr = utils.WriteTooManyRequests(w, domainErr.Message, details)

	case services.ErrorTypeUnavailable:
		writeErr = utils.WriteServiceUnavailable(w, domainErr.Message, details)

	case services.ErrorTypeTimeout:
		writeErr = utils.WriteGatewayTimeout(w, domainErr.Message, details)

	case services.ErrorTypeExternal:
		// Carrier failures are mapped to 502 Bad Gateway
		writeErr = utils.WriteBadGateway(w, domainErr.Message, details)

	default:
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")
	}
	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}

	logger.Debug("handled service error",
		zap.String("type", string(domainErr.Type)),
		zap.String("message", domainErr.Message),
		zap.Any("details", domainErr.Details))
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
