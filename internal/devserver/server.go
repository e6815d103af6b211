// SPDX-License-Identifier: MPL-2.0

// Package devserver serves a build's output root over HTTP while the
// repository is being developed, and exposes build metrics.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mochi/mochi-cli/pkg/types"
)

const (
	// DefaultHost listens on every interface so devices on the LAN can load
	// modules.
	DefaultHost = "0.0.0.0"

	defaultStartupTimeout  = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

type (
	// Config configures a Server.
	Config struct {
		// Root is the output root to serve.
		Root string
		Host string
		Port types.ListenPort
		// Logger receives one line per request. Nil disables request logging.
		Logger *log.Logger
		// Metrics is served at MetricsPath. Nil creates a fresh set.
		Metrics *Metrics

		StartupTimeout  time.Duration
		ShutdownTimeout time.Duration
	}

	// Server is a single-use static file server.
	Server struct {
		lifecycle

		cfg     Config
		metrics *Metrics
		handler http.Handler

		mu       sync.Mutex
		srv      *http.Server
		listener net.Listener
		addr     string
	}

	statusRecorder struct {
		http.ResponseWriter
		status int
	}
)

// New validates cfg and builds the request handler. Nothing is bound until
// Start.
func New(cfg Config) (*Server, error) {
	if cfg.Root == "" {
		return nil, errors.New("dev server: root is required")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if ok, errs := cfg.Port.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{cfg: cfg, metrics: metrics}
	s.init()

	mux := http.NewServeMux()
	mux.Handle(MetricsPath, metrics.Handler())
	mux.Handle("/", staticHandler{root: cfg.Root})
	s.handler = s.logRequests(mux)
	return s, nil
}

// Handler returns the request handler, including request logging.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the metrics served by s.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start binds the listener and serves in the background. It returns once
// the server accepts connections, or with the startup error. Serve errors
// after that are delivered on Err.
func (s *Server) Start(ctx context.Context) error {
	if err := s.toStarting(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port.String())
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.toFailed(fmt.Errorf("listen on %s: %w", addr, err))
		return s.LastError()
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	s.wg.Add(1)
	go s.serve(srv, listener)

	select {
	case <-s.startedCh:
		return nil
	case <-startupCtx.Done():
		s.toFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		_ = listener.Close()
		return s.LastError()
	}
}

func (s *Server) serve(srv *http.Server, listener net.Listener) {
	defer s.wg.Done()
	s.toRunning()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.sendError(fmt.Errorf("serve: %w", err))
	}
}

// Stop shuts the server down gracefully. It is safe to call more than once.
func (s *Server) Stop() error {
	if !s.toStopping() {
		s.wg.Wait()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var err error
	s.mu.Lock()
	if s.srv != nil {
		err = s.srv.Shutdown(ctx)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.toStopped()
	return err
}

// Addr returns the bound host:port, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// URLs returns the addresses to print for the running server: localhost
// first, then the first non-loopback IPv4 address when listening on all
// interfaces.
func (s *Server) URLs() []string {
	port := strconv.Itoa(s.Port())
	host := s.cfg.Host
	if host == DefaultHost || host == "" || host == "::" {
		urls := []string{"http://" + net.JoinHostPort("localhost", port)}
		if ip := LocalIP(); ip != "" {
			urls = append(urls, "http://"+net.JoinHostPort(ip, port))
		}
		return urls
	}
	return []string{"http://" + net.JoinHostPort(host, port)}
}

// LocalIP returns the first non-loopback IPv4 address of this host, or "".
func LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.observeRequest(rec.status)
		if s.cfg.Logger == nil {
			return
		}
		fields := []any{"method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start).Round(time.Microsecond)}
		switch {
		case rec.status >= 500:
			s.cfg.Logger.Error("request", fields...)
		case rec.status >= 400:
			s.cfg.Logger.Warn("request", fields...)
		default:
			s.cfg.Logger.Info("request", fields...)
		}
	})
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
