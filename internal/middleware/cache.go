package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/greeter-api/internal/config"
)

// captureWriter tees the response body into a bounded buffer while it is
// written to the client.
type captureWriter struct {
    http.ResponseWriter
    buf       bytes.Buffer
    limit     int64
    truncated bool
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
            cw.truncated = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds a stable key honoring prefix and strategy.  Keys use
// the concrete request path, never the route template, so /api/greeting/Bob
// and /api/greeting/Eve get separate entries.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    path := r.URL.EscapedPath()
    query := r.URL.Query().Encode() // sorted, so ?a=1&b=2 and ?b=2&a=1 share an entry

    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "path":
        parts = []string{"path", path}
    case "method_path_query":
        parts = []string{"method", r.Method, "path", path, "q", query}
    default: // "path_query"
        parts = []string{"path", path, "q", query}
    }

    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// perRequestHeaders describe the request that produced a response rather
// than the response itself; replaying them from the cache would hand a
// client stale rate-limit counters or another request's ID.
var perRequestHeaders = []string{
    echo.HeaderContentLength,
    echo.HeaderXRequestID,
    "Retry-After",
    "X-Cache",
}

// cacheableHeaders copies h without per-request headers.
func cacheableHeaders(h http.Header) http.Header {
    out := h.Clone()
    for _, k := range perRequestHeaders {
        out.Del(k)
    }
    for k := range out {
        if strings.HasPrefix(k, "X-Ratelimit-") {
            delete(out, k)
        }
    }
    return out
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache caches successful responses in Redis, headers included, and
// replays them with X-Cache: HIT.  Every greeting endpoint is a pure function
// of its request, so a replay is indistinguishable from a fresh call.  With
// caching disabled or no client it is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if !cfg.Methods[strings.ToUpper(req.Method)] || strings.Contains(req.Header.Get("Cache-Control"), "no-cache") {
                return next(c)
            }

            key := cacheKeyFrom(cfg, c)
            bs, err := rdb.Get(req.Context(), key).Bytes()
            switch {
            case err == nil:
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range cacheableHeaders(hdr) {
                        c.Response().Header()[k] = vals
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, err := c.Response().Write(body)
                    return err
                }
            case err != redis.Nil:
                log.Warn("cache lookup failed", "key", key, "error", err)
            }

            orig := c.Response().Writer
            cw := &captureWriter{ResponseWriter: orig, limit: int64(cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            defer func() { c.Response().Writer = orig }()

            if err := next(c); err != nil {
                return err
            }
            if c.Response().Status != http.StatusOK || cw.truncated {
                return nil
            }

            payload, err := encodePayload(http.StatusOK, cacheableHeaders(c.Response().Header()), cw.buf.Bytes())
            if err != nil {
                log.Warn("cache encode failed", "key", key, "error", err)
                return nil
            }
            if err := rdb.SetEx(context.Background(), key, payload, ttl).Err(); err != nil {
                log.Warn("cache store failed", "key", key, "error", err)
            }
            return nil
        }
    }
}
