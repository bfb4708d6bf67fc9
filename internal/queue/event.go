// Package queue defines message payloads exchanged over the message broker.
package queue

// GreetingServedEvent is published after the API answers a request with a
// 2xx status.  Consumers use it for access logging and analytics; it never
// feeds back into a response.
type GreetingServedEvent struct {
    RequestID string `json:"request_id"`
    Method    string `json:"method"`
    Route     string `json:"route"`  // route template, e.g. /api/greeting/:name
    URI       string `json:"uri"`    // request URI as received
    Status    int    `json:"status"`
    Bytes     int64  `json:"bytes"`
    ServedAt  string `json:"served_at"` // RFC3339 UTC
}
