package cli

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/themizzi/storecheck/internal/config"
)

// ServerDependencies holds the handlers the watch server exposes
type ServerDependencies struct {
	ServerConfig   config.ServerConfig
	HealthHandler  http.Handler
	MetricsHandler http.Handler
	RunsHandler    http.Handler
	RunHandler     http.Handler
}

// RunWatch serves the status endpoints and runs the suite on the watcher's
// schedule until SIGINT or SIGTERM. An in-flight run gets the shutdown
// timeout to finish before it is cancelled.
func RunWatch(deps ServerDependencies, watcher *Watcher, runNow bool) error {
	listener, server, err := StartServer(deps)
	if err != nil {
		return err
	}
	defer listener.Close()

	watcher.Start(context.Background(), runNow)
	shutdownErr := WaitForShutdown(server, nil)
	watcher.Stop(30 * time.Second)
	return shutdownErr
}

// StartServer creates and starts the HTTP server, returning the listener and server
func StartServer(deps ServerDependencies) (net.Listener, *http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/healthz", deps.HealthHandler)
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", deps.MetricsHandler)
	}
	if deps.RunsHandler != nil {
		mux.Handle("/runs", deps.RunsHandler)
	}
	if deps.RunHandler != nil {
		mux.Handle("/runs/{id}", deps.RunHandler)
	}

	listener, err := net.Listen("tcp", deps.ServerConfig.Addr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create listener: %w", err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", listener.Addr().String())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return listener, server, nil
}

// WaitForShutdown waits for a shutdown signal and gracefully shuts down the server
// If shutdown channel is nil, a new channel will be created and registered with signal.Notify
func WaitForShutdown(server *http.Server, shutdown chan os.Signal) error {
	return WaitForShutdownWithTimeout(server, shutdown, 30*time.Second)
}

// WaitForShutdownWithTimeout allows specifying a custom shutdown timeout (primarily for testing)
func WaitForShutdownWithTimeout(server *http.Server, shutdown chan os.Signal, shutdownTimeout time.Duration) error {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(shutdown)
	}

	sig := <-shutdown
	log.Printf("Received signal: %v, shutting down server...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		// http.Server.Close does not surface listener close errors, so this
		// only fails when the server cannot be closed at all
		if err := server.Close(); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
