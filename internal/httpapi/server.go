package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"climate-server/internal/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// Handler wraps mux with the request middleware chain. Recoverer sits inside
// the logger so a recovered panic is still logged with its 500 status.
func Handler(mux http.Handler) http.Handler {
	return middleware.RequestID(requestLogger(middleware.Recoverer(mux)))
}

func NewServer(config config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           Handler(mux),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
