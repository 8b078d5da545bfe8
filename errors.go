package postapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/postapi/store"
)

// ValidationError reports malformed or missing client input. Field names
// the offending JSON field and is empty when the body as a whole is bad.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// httpErrorHandler maps the error taxonomy onto status codes. Server
// errors are logged in full and reported generically.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		err = c.JSON(http.StatusBadRequest, errorResponse{Message: ve.Error(), Field: ve.Field})
	case errors.Is(err, store.ErrNotFound):
		err = c.JSON(http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.As(err, &he) && he.Code < 500:
		a.Echo.DefaultHTTPErrorHandler(he, c)
		return
	default:
		c.Logger().Errorf("server error: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		err = c.JSON(http.StatusInternalServerError, errorResponse{Message: http.StatusText(http.StatusInternalServerError)})
	}
	if err != nil {
		c.Logger().Errorf("write error response: %v", err)
	}
}
