package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/connmgr"
	"github.com/provkit/provisiond/internal/display"
	"github.com/provkit/provisiond/internal/logging"
)

// Config holds the provisioning endpoint configuration
type Config struct {
	// ListenAddr is the address the HTTP server binds, e.g. ":80"
	ListenAddr string
}

// Server is the provisioning HTTP boundary. It validates and decrypts
// inbound payloads, acknowledges them, and hands validated credentials to
// the connection manager as detached work. It never blocks a request on
// the radio.
type Server struct {
	config  *Config
	manager *connmgr.Manager
	sink    display.Sink

	httpServer *http.Server
	hub        *statusHub
}

// New creates a provisioning server. Transitions of the connection manager
// are forwarded to /status WebSocket subscribers.
func New(config *Config, manager *connmgr.Manager, sink display.Sink) *Server {
	s := &Server{
		config:  config,
		manager: manager,
		sink:    sink,
		hub:     newStatusHub(),
	}

	manager.OnTransition(s.hub.broadcast)

	s.httpServer = &http.Server{
		Addr:              config.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/set_wifi", s.handleSetWifi)
	mux.HandleFunc("/display", s.handleDisplay)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Start begins serving and blocks until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}

	logging.Info("Provisioning endpoint listening",
		zap.String("addr", listener.Addr().String()),
	)

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully: the listener closes, in-flight
// requests finish, and WebSocket subscribers are disconnected.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down provisioning endpoint...")

	s.hub.close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}
