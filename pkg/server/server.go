package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
)

type HTTPServer interface {
	Run() error
	Shutdown() error
}

type Option func(s *httpServer)

func WithAddr(host string, port uint16) Option {
	return func(s *httpServer) {
		s.srv.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	}
}

func WithTimeout(read, write, idle time.Duration) Option {
	return func(s *httpServer) {
		if read > 0 {
			s.srv.ReadTimeout = read
		}

		if write > 0 {
			s.srv.WriteTimeout = write
		}

		if idle > 0 {
			s.srv.IdleTimeout = idle
		}
	}
}

func WithHandler(h http.Handler) Option {
	return func(s *httpServer) {
		s.srv.Handler = h
	}
}

type httpServer struct {
	srv *http.Server
}

func NewHTTPServer(opts ...Option) HTTPServer {
	s := &httpServer{
		srv: &http.Server{
			Addr:              ":8080",
			ReadTimeout:       defaultReadTimeout,
			ReadHeaderTimeout: defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run blocks until the server stops. A graceful Shutdown is not reported as an error.
func (s *httpServer) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server on %s: %w", s.srv.Addr, err)
	}

	return nil
}

func (s *httpServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
