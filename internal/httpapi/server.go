package httpapi

import (
	"net/http"
	"time"
)

// NewServer wraps handler with request IDs and access logging. There is no
// write timeout: a search waits on the weather API for as long as the
// client's own timeout allows.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           requestID(requestLogger(handler)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
