package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Handler timeouts are enforced by middleware;
// the header timeout here guards against slow-loris connections.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
