package handler

import (
    "net/url"
    "strings"

    "github.com/labstack/echo/v4"
)

// bodyParam names the request body in RequestError values.
const bodyParam = "body"

// RequiredQuery returns the value of a mandatory query parameter.  A present
// but empty value ("?keyword=") is still present.
func RequiredQuery(c echo.Context, key string) (string, error) {
    v, ok := OptionalQuery(c, key)
    if !ok {
        return "", missing(key, nil)
    }
    return v, nil
}

// QueryOrDefault returns the query parameter, or def when it is absent or empty.
func QueryOrDefault(c echo.Context, key, def string) string {
    if v, ok := OptionalQuery(c, key); ok && v != "" {
        return v
    }
    return def
}

// OptionalQuery reports whether the query parameter was sent and its value.
// Repeated keys are joined with commas ("?k=a&k=b" is "a,b").
func OptionalQuery(c echo.Context, key string) (string, bool) {
    vals, ok := c.QueryParams()[key]
    if !ok || len(vals) == 0 {
        return "", false
    }
    return strings.Join(vals, ","), true
}

// PathParam returns the unescaped value of a path variable.  An empty segment
// means the route did not really match, so it is reported as a routing failure.
func PathParam(c echo.Context, key string) (string, error) {
    raw := c.Param(key)
    if raw == "" {
        return "", notRouted(c.Request().URL.Path)
    }
    // echo matches on RawPath when the client used non-canonical escapes,
    // leaving the segment escaped.
    if c.Request().URL.RawPath == "" {
        return raw, nil
    }
    if v, err := url.PathUnescape(raw); err == nil {
        return v, nil
    }
    return raw, nil
}
