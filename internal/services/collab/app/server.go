// Package server wires the collaboration runtime with its HTTP and health
// listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	platformgrpc "github.com/louisbranch/crosspromo/internal/platform/grpc"
	"github.com/louisbranch/crosspromo/internal/platform/timeouts"
	collabhttp "github.com/louisbranch/crosspromo/internal/services/collab/api/http"
	"github.com/louisbranch/crosspromo/internal/services/collab/lifecycle"
	"github.com/louisbranch/crosspromo/internal/services/collab/notify"
	"github.com/louisbranch/crosspromo/internal/services/collab/room"
	collabsqlite "github.com/louisbranch/crosspromo/internal/services/collab/storage/sqlite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// HealthService is the gRPC health service name reported as SERVING.
const HealthService = "crosspromo.collab"

// Config describes listener addresses and storage for one collab server.
type Config struct {
	HTTPAddr   string
	HealthAddr string
	DBPath     string
	Routes     lifecycle.Routes
}

func (c Config) normalized() Config {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = filepath.Join("data", "collab.db")
	}
	if c.Routes == (lifecycle.Routes{}) {
		c.Routes = lifecycle.DefaultRoutes
	}
	return c
}

// Server hosts the collaboration HTTP API and the gRPC health endpoint.
type Server struct {
	httpListener   net.Listener
	healthListener net.Listener
	httpServer     *http.Server
	grpcServer     *grpc.Server
	health         *health.Server
	store          *collabsqlite.Store
}

// New opens storage, builds the lifecycle service, and binds both listeners.
func New(cfg Config) (*Server, error) {
	cfg = cfg.normalized()

	store, err := openCollabStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	service, err := lifecycle.New(lifecycle.Config{
		Store:    store,
		Rooms:    room.NewProvisioner(store),
		Notifier: notify.NewLogSender(),
		Routes:   cfg.Routes,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build lifecycle service: %w", err)
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	healthListener, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
	}

	grpcServer, healthServer := platformgrpc.NewHealthServer(HealthService)
	httpServer := &http.Server{
		Handler:           collabhttp.NewHandler(service, cfg.Routes.Login),
		ReadHeaderTimeout: timeouts.ReadHeader,
		IdleTimeout:       timeouts.Idle,
	}

	return &Server{
		httpListener:   httpListener,
		healthListener: healthListener,
		httpServer:     httpServer,
		grpcServer:     grpcServer,
		health:         healthServer,
		store:          store,
	}, nil
}

// HTTPAddr returns the bound HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the bound gRPC health listener address.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Run creates and serves a collab server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both listeners until ctx ends or either one fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("collab http listening at %v", s.httpListener.Addr())
	log.Printf("collab health listening at %v", s.healthListener.Addr())

	httpErr := make(chan error, 1)
	grpcErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	go func() {
		grpcErr <- s.grpcServer.Serve(s.healthListener)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown(httpErr, grpcErr)
	case err := <-httpErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-grpcErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve health: %w", err)
	}
}

func (s *Server) shutdown(httpErr, grpcErr <-chan error) error {
	s.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	var shutdownErr error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("shutdown http: %w", err)
	}
	s.grpcServer.GracefulStop()

	if err := <-httpErr; err != nil && !errors.Is(err, http.ErrServerClosed) && shutdownErr == nil {
		shutdownErr = fmt.Errorf("serve http: %w", err)
	}
	if err := <-grpcErr; err != nil && !errors.Is(err, grpc.ErrServerStopped) && shutdownErr == nil {
		shutdownErr = fmt.Errorf("serve health: %w", err)
	}
	return shutdownErr
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.healthListener != nil {
		_ = s.healthListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close collab store: %v", err)
		}
	}
}

func openCollabStore(path string) (*collabsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := collabsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open collab sqlite store: %w", err)
	}
	return store, nil
}
