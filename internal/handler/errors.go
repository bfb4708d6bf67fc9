package handler

import (
    "errors"
    "fmt"
    "log/slog"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
)

// ErrRoutingFailure means no route or path variable matched the request.
// The error handler turns it into a 404 response.
var ErrRoutingFailure = errors.New("routing failure")

// ErrRequiredParameterMissing covers a mandatory query parameter or path
// variable that is absent and a request body that cannot be decoded.  The
// error handler turns it into a 400 response.
var ErrRequiredParameterMissing = errors.New("required parameter missing")

// RequestError attaches the offending parameter (and the underlying cause,
// if any) to one of the two error kinds above.
type RequestError struct {
    Kind  error  // ErrRoutingFailure or ErrRequiredParameterMissing
    Param string // name of the parameter, path variable or "body"
    Err   error  // optional cause, e.g. a JSON syntax error
}

func (e *RequestError) Error() string {
    msg := fmt.Sprintf("%s: %s", e.Kind, e.Param)
    if e.Err != nil {
        msg += ": " + e.Err.Error()
    }
    return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *RequestError) Unwrap() []error {
    if e.Err == nil {
        return []error{e.Kind}
    }
    return []error{e.Kind, e.Err}
}

func missing(param string, cause error) error {
    return &RequestError{Kind: ErrRequiredParameterMissing, Param: param, Err: cause}
}

func notRouted(param string) error {
    return &RequestError{Kind: ErrRoutingFailure, Param: param}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

// ErrorHandler maps request errors and echo's own HTTP errors onto JSON error
// responses.  Anything it does not recognise becomes a 500 with a generic
// message; the cause is logged, not returned.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }

        status, body := classify(err)
        if status >= http.StatusInternalServerError {
            log.Error("unhandled request error", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
        }

        var writeErr error
        if c.Request().Method == http.MethodHead {
            writeErr = c.NoContent(status)
        } else {
            writeErr = c.JSON(status, body)
        }
        if writeErr != nil {
            log.Warn("write error response", "error", writeErr)
        }
    }
}

func classify(err error) (int, errorBody) {
    var reqErr *RequestError
    switch {
    case errors.As(err, &reqErr) && errors.Is(reqErr.Kind, ErrRoutingFailure):
        return http.StatusNotFound, errorBody{Error: "not_found", Message: fmt.Sprintf("no route for %s", reqErr.Param)}
    case errors.As(err, &reqErr) && errors.Is(reqErr.Kind, ErrRequiredParameterMissing):
        msg := fmt.Sprintf("required parameter '%s' is not present", reqErr.Param)
        if reqErr.Param == bodyParam {
            msg = "request body is missing or malformed"
        }
        return http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg}
    }

    var he *echo.HTTPError
    if errors.As(err, &he) {
        return he.Code, errorBody{Error: statusSlug(he.Code), Message: strings.ToLower(http.StatusText(he.Code))}
    }
    return http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "internal server error"}
}

// statusSlug turns a status code into a snake_case identifier, e.g. 405 ->
// "method_not_allowed".
func statusSlug(code int) string {
    text := http.StatusText(code)
    if text == "" {
        return "error"
    }
    return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
