package handlers

import (
	"errors"
	"net/http"

	"heartgram/internal/common"
	"heartgram/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HTTPErrorHandler renders framework errors (unknown route, body limit, bind
// failures) in the same shape as domain errors.
func HTTPErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			if sendErr := common.SendError(c, err); sendErr != nil {
				log.Error("failed to write error response", zap.Error(sendErr))
			}
			return
		}

		code := "HTTP_ERROR"
		switch he.Code {
		case http.StatusNotFound:
			code = "NOT_FOUND"
		case http.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case http.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		case http.StatusUnauthorized:
			code = "UNAUTHENTICATED"
		case http.StatusTooManyRequests:
			code = "RATE_LIMITED"
		}
		if he.Code >= http.StatusInternalServerError {
			log.WithContext(c.Request().Context()).Error("request failed", zap.Error(err), zap.String("path", c.Path()))
			code = "INTERNAL_ERROR"
		}

		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
			message = m
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(he.Code)
		} else {
			writeErr = c.JSON(he.Code, common.CreateErrorResponse(code, message, nil))
		}
		if writeErr != nil {
			log.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
