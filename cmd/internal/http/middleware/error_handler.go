package middleware

import (
	"cnpjapi/cmd/internal/utils"
	"cnpjapi/cmd/internal/utils/apierror"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// ErrorHandler is the single place errors become responses. Handlers and
// services return errors up to here instead of writing bodies themselves.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apierr := toAPIError(err)
	logError(c, err, apierr)

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(apierr.Status)
	} else {
		werr = c.JSON(apierr.Status, apierr)
	}
	if werr != nil {
		log.Errorf("failed to write error response: %v", werr)
	}
}

func toAPIError(err error) *apierror.APIError {
	var apierr *apierror.APIError
	if errors.As(err, &apierr) {
		return apierr
	}

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		return fromHTTPError(herr)
	}

	if valerr := apierror.FromValidationError(err); valerr != nil {
		return valerr
	}
	return apierror.InternalServerError
}

// fromHTTPError covers errors raised by echo itself: routing, binding and
// the body limit.
func fromHTTPError(herr *echo.HTTPError) *apierror.APIError {
	switch herr.Code {
	case http.StatusNotFound:
		return apierror.RouteNotFoundError
	case http.StatusMethodNotAllowed:
		return apierror.MethodNotAllowedError
	case http.StatusRequestEntityTooLarge:
		return apierror.NewSimple(herr.Code, "Request body too large")
	case http.StatusBadRequest:
		return apierror.InvalidDataError.WithDetails(fmt.Sprint(herr.Message))
	}

	if herr.Code >= http.StatusInternalServerError {
		return apierror.InternalServerError
	}
	return apierror.NewSimple(herr.Code, fmt.Sprint(herr.Message))
}

func logError(c echo.Context, err error, apierr *apierror.APIError) {
	req := c.Request()
	entry := log.JSON{
		"request_id": utils.RequestID(c),
		"method":     req.Method,
		"uri":        req.RequestURI,
		"remote_ip":  c.RealIP(),
		"user_agent": req.UserAgent(),
		"status":     apierr.Status,
		"kind":       apierr.Kind.String(),
		"error":      fmt.Sprintf("%+v", err),
	}

	if apierr.Status >= http.StatusInternalServerError {
		log.Errorj(entry)
		return
	}
	log.Warnj(entry)
}
