package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ruteri/simple-artefact-registry/common"
	"github.com/ruteri/simple-artefact-registry/interfaces"
	"github.com/ruteri/simple-artefact-registry/metrics"
	"go.uber.org/atomic"
)

// ErrReservedPath is returned when an artefact would shadow a built-in endpoint.
var ErrReservedPath = errors.New("artefact path collides with a built-in endpoint")

// readinessTimeout bounds the storage probes made by /readyz.
const readinessTimeout = 5 * time.Second

// reservedPaths are served by the registry itself. Paths below /debug/ are
// reserved as well.
var reservedPaths = map[string]struct{}{
	"/livez":   {},
	"/readyz":  {},
	"/drain":   {},
	"/undrain": {},
}

type HTTPServerConfig struct {
	ListenAddr  string
	MetricsAddr string
	EnablePprof bool
	Log         *slog.Logger

	DrainDuration            time.Duration
	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
}

type Server struct {
	cfg     *HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
	handlers   []*ArtefactHandler

	// allowed maps every registered path to its Allow header value.
	allowed map[string]string
}

// New creates one ArtefactHandler per route, resolving each route's base
// directory through stores, and wires them into the router.
func New(cfg *HTTPServerConfig, routes []interfaces.Route, stores interfaces.ArtefactStoreFactory) (srv *Server, err error) {
	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		return nil, err
	}

	srv = &Server{
		cfg:        cfg,
		log:        cfg.Log,
		srv:        nil,
		metricsSrv: metricsSrv,
		allowed:    make(map[string]string, len(routes)+len(reservedPaths)),
	}
	srv.isReady.Store(true)

	for _, route := range routes {
		if isReserved(route.URLPath) {
			return nil, fmt.Errorf("%w: %s", ErrReservedPath, route.URLPath)
		}
		if _, dup := srv.allowed[route.URLPath]; dup {
			return nil, fmt.Errorf("duplicate artefact path: %s", route.URLPath)
		}

		store, err := stores.BackendFor(route.BaseDirectory())
		if err != nil {
			return nil, fmt.Errorf("storage for %s: %w", route.URLPath, err)
		}

		srv.handlers = append(srv.handlers, NewArtefactHandler(route, store, metricsSrv.Artefacts, cfg.Log))
		srv.allowed[route.URLPath] = "GET, PUT"
		cfg.Log.Debug("Registered artefact", slog.String("route", route.String()), slog.String("backend", store.Name()))
	}

	if len(srv.handlers) == 0 {
		cfg.Log.Warn("No artefacts configured")
	}

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.getRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

func (srv *Server) getRouter() http.Handler {
	mux := chi.NewRouter()
	mux.NotFound(srv.handleNotFound)
	mux.MethodNotAllowed(srv.handleMethodNotAllowed)

	// One GET and one PUT endpoint per artefact, at its exact path
	for _, h := range srv.handlers {
		path := h.Route().URLPath
		mux.With(srv.artefactLogger).Get(path, h.HandleGet)
		mux.With(srv.artefactLogger).Put(path, h.HandlePut)
	}

	// Health and diagnostic endpoints
	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)
	mux.With(srv.httpLogger).Get("/drain", srv.handleDrain)
	mux.With(srv.httpLogger).Get("/undrain", srv.handleUndrain)
	for path := range reservedPaths {
		srv.allowed[path] = "GET"
	}

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

// Handler returns the router, for use with httptest.
func (srv *Server) Handler() http.Handler {
	return srv.srv.Handler
}

// Routes returns the routes being served, in configuration order.
func (srv *Server) Routes() []interfaces.Route {
	res := make([]interfaces.Route, 0, len(srv.handlers))
	for _, h := range srv.handlers {
		res = append(res, h.Route())
	}
	return res
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

// artefactLogger logs artefact requests like httpLogger, but through chi's
// response writer proxy, which keeps http.Flusher available to the handler.
func (srv *Server) artefactLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		srv.log.Info(fmt.Sprintf("http: %s %s %d", r.Method, r.URL.EscapedPath(), ww.Status()),
			"status", ww.Status(),
			"method", r.Method,
			"path", r.URL.EscapedPath(),
			"bytes", ww.BytesWritten(),
			"duration", fmt.Sprintf("%f", time.Since(start).Seconds()),
		)
	})
}

func (srv *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound)
}

func (srv *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if allow, ok := srv.allowed[r.URL.Path]; ok {
		w.Header().Set("Allow", allow)
	}
	WriteError(w, http.StatusMethodNotAllowed)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":%q}`, status)
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "alive")
}

// handleReadinessCheck reports 503 while draining or while any artefact
// backend is unreachable.
func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := srv.checkStorage(ctx); err != nil {
		srv.log.Warn("Readiness check failed", "err", err)
		writeStatus(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	writeStatus(w, http.StatusOK, "ready")
}

// checkStorage probes every distinct backend once. The first unreachable one
// is reported wrapped in ErrBackendUnavailable.
func (srv *Server) checkStorage(ctx context.Context) error {
	checked := make(map[interfaces.ArtefactStore]struct{}, len(srv.handlers))
	for _, h := range srv.handlers {
		if _, ok := checked[h.store]; ok {
			continue
		}
		checked[h.store] = struct{}{}

		if !h.store.Available(ctx) {
			return fmt.Errorf("%w: %s", interfaces.ErrBackendUnavailable, h.store.LocationURI())
		}
	}
	return nil
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Swap(false) {
		writeStatus(w, http.StatusOK, "already draining")
		return
	}

	srv.log.Info("Server marked as not ready")
	writeStatus(w, http.StatusOK, "draining")
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Swap(true) {
		writeStatus(w, http.StatusOK, "already ready")
		return
	}

	srv.log.Info("Server marked as ready")
	writeStatus(w, http.StatusOK, "ready")
}

func (srv *Server) RunInBackground() {
	// metrics
	if srv.cfg.MetricsAddr != "" {
		go func() {
			srv.log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			err := srv.metricsSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Error("HTTP server failed", "err", err)
			}
		}()
	}

	// api
	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr, "artefacts", len(srv.handlers))
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

// Shutdown fails readiness, waits DrainDuration so load balancers stop
// sending traffic, then stops the listeners. The wait is skipped if the
// server was already drained through /drain.
func (srv *Server) Shutdown() {
	if srv.isReady.Swap(false) && srv.cfg.DrainDuration > 0 {
		srv.log.Info("Draining before shutdown", "duration", srv.cfg.DrainDuration)
		time.Sleep(srv.cfg.DrainDuration)
	}

	// api
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	// metrics
	if len(srv.cfg.MetricsAddr) != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		defer cancel()

		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
}

func isReserved(path string) bool {
	if _, ok := reservedPaths[path]; ok {
		return true
	}
	return path == "/debug" || strings.HasPrefix(path, "/debug/")
}
