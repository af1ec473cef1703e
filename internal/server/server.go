// Package server is the local preview server: it builds the site, serves the
// output with live reload and rebuilds when sources change or posts come due.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/frontedward/dictator/internal/build"
	"github.com/frontedward/dictator/internal/config"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/git"
	"github.com/frontedward/dictator/internal/logfields"
	"github.com/frontedward/dictator/internal/metrics"
	"github.com/frontedward/dictator/internal/server/middleware"
	"github.com/frontedward/dictator/internal/site"
)

// MetricsPath serves the Prometheus registry of the server.
const MetricsPath = "/metrics"

const shutdownTimeout = 5 * time.Second

// Options configure a preview server.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	// OutputDir receives builds. Empty uses a temporary directory removed on shutdown.
	OutputDir string
	// RebuildEvery schedules periodic rebuilds. Zero disables them.
	RebuildEvery  time.Duration
	IncludeDrafts bool
	Debounce      time.Duration
}

// buildStatus tracks the current build state for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool // true if at least one successful build exists
	report       *build.Report
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess(r *build.Report) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
	bs.report = r
}

func (bs *buildStatus) get() (hasGoodBuild bool, err error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.hasGoodBuild, bs.lastError
}

func (bs *buildStatus) lastReport() *build.Report {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.report
}

// Server builds and serves one site.
type Server struct {
	opts      Options
	outputDir string
	tempDir   bool

	mu      sync.RWMutex
	cfg     *config.SiteConfig
	builder *build.Builder
	history *git.History

	buildMu  sync.Mutex
	status   buildStatus
	hub      *LiveReloadHub
	registry *prom.Registry
	recorder *metrics.PrometheusRecorder
	queue    *rebuildQueue
	sched    *scheduler
	watch    *watcher
}

// New loads the configuration and prepares the server. Nothing is built until Run or Rebuild.
func New(opts Options) (*Server, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultPath
	}
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		outputDir: opts.OutputDir,
		hub:       NewLiveReloadHub(),
		registry:  prom.NewRegistry(),
		queue:     newRebuildQueue(),
	}
	if s.outputDir == "" {
		dir, err := os.MkdirTemp("", "dictator-preview-*")
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create preview directory").Build()
		}
		s.outputDir, s.tempDir = filepath.Join(dir, "site"), true
	}
	s.recorder = metrics.NewPrometheusRecorder(s.registry)
	s.setConfig(cfg)
	return s, nil
}

func (s *Server) setConfig(cfg *config.SiteConfig) {
	history := openHistory(cfg)
	b := build.New(cfg, build.Options{
		OutputDir:     s.outputDir,
		IncludeDrafts: s.opts.IncludeDrafts,
		Recorder:      s.recorder,
		History:       history,
		Cache:         build.NewRenderCache(),
	})
	s.mu.Lock()
	s.cfg, s.builder, s.history = cfg, b, history
	s.mu.Unlock()
}

// openHistory keeps one repository handle across rebuilds when docs show
// last-update info. Nil lets each build report why history is unavailable.
func openHistory(cfg *config.SiteConfig) *git.History {
	if !cfg.DocsEnabled() || !(cfg.Classic.Docs.ShowLastUpdateTime || cfg.Classic.Docs.ShowLastUpdateAuthor) {
		return nil
	}
	h, err := git.Open(cfg.Dir)
	if err != nil {
		slog.Debug("Git history unavailable for preview", logfields.Path(cfg.Dir), logfields.Error(err))
		return nil
	}
	return h
}

func (s *Server) siteConfig() *config.SiteConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// OutputDir is where builds are published.
func (s *Server) OutputDir() string { return s.outputDir }

// LastReport is the report of the last successful build, nil before the first one.
func (s *Server) LastReport() *build.Report { return s.status.lastReport() }

func (s *Server) currentWatcher() *watcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watch
}

// Rebuild runs one build for the given triggers. A config trigger reloads the
// configuration first; when that fails the previous configuration stays active.
func (s *Server) Rebuild(ctx context.Context, triggers ...string) (*build.Report, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	for _, t := range triggers {
		s.recorder.IncRebuild(t)
	}
	if slices.Contains(triggers, TriggerConfig) {
		cfg, err := config.Load(s.opts.ConfigPath)
		if err != nil {
			slog.Error("Configuration reload failed; keeping previous configuration", logfields.Error(err))
			s.status.setError(err)
			return nil, err
		}
		s.setConfig(cfg)
		if w := s.currentWatcher(); w != nil {
			if err := w.update(newWatchSet(s.opts.ConfigPath, cfg)); err != nil {
				slog.Warn("Failed to update watched paths", logfields.Error(err))
			}
		}
		slog.Info("Configuration reloaded", logfields.Path(s.opts.ConfigPath))
	}

	s.mu.RLock()
	b, history := s.builder, s.history
	s.mu.RUnlock()
	if history != nil {
		history.Invalidate()
	}
	slog.Info("Rebuilding site", logfields.Trigger(strings.Join(triggers, ",")))
	report, err := b.Build(ctx)
	if err != nil {
		s.status.setError(err)
		return report, err
	}
	s.status.setSuccess(report)
	s.hub.Broadcast(report.BuildID)
	if s.sched != nil {
		if err := s.sched.dueAt(report.NextDue); err != nil {
			slog.Warn("Failed to schedule due-post rebuild", logfields.Error(err))
		}
	}
	return report, nil
}

// Handler serves the site, live reload endpoints and metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(LiveReloadPath, s.hub)
	mux.HandleFunc(LiveReloadScript, serveLiveReloadScript)
	mux.Handle(MetricsPath, metrics.HTTPHandler(s.registry))
	mux.Handle("/", injectLiveReload(http.HandlerFunc(s.serveSite)))
	return middleware.Chain(slog.Default())(mux)
}

// Run builds the site, starts watching and serves until ctx is canceled.
// A failing initial build does not stop the server; the error page is served instead.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.cleanup()

	sched, err := newScheduler(func(trigger string) { s.queue.request(trigger) })
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to start scheduler").Build()
	}
	s.sched = sched
	if s.opts.RebuildEvery > 0 {
		if err := sched.every(s.opts.RebuildEvery); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to schedule rebuilds").Build()
		}
	}
	sched.start()

	if _, err := s.Rebuild(ctx, TriggerInitial); err != nil {
		slog.Error("Initial build failed; serving error page until the next successful build", logfields.Error(err))
	}

	cfg := s.siteConfig()
	deb := newDebouncer(s.opts.Debounce, func(triggers []string) { s.queue.request(triggers...) })
	defer deb.stop()
	w, err := newWatcher(newWatchSet(s.opts.ConfigPath, cfg), deb.trigger)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to watch sources").Build()
	}
	s.mu.Lock()
	s.watch = w
	s.mu.Unlock()
	go w.run(ctx)
	go s.rebuildWorker(ctx)

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to bind preview server").
			WithContext("addr", addr).
			Build()
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("Preview server listening",
		slog.String("url", fmt.Sprintf("http://%s%s", ln.Addr().String(), cfg.BaseURL)),
		logfields.Path(s.outputDir))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "preview server stopped").Build()
	case <-ctx.Done():
	}

	slog.Info("Shutting down preview server")
	s.hub.Shutdown()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "preview server shutdown").Build()
	}
	return nil
}

func (s *Server) rebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.queue.signal:
			triggers := s.queue.take()
			if len(triggers) == 0 {
				continue
			}
			if _, err := s.Rebuild(ctx, triggers...); err != nil && ctx.Err() == nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (s *Server) cleanup() {
	if w := s.currentWatcher(); w != nil {
		if err := w.close(); err != nil {
			slog.Debug("Failed to close watcher", logfields.Error(err))
		}
	}
	if s.sched != nil {
		if err := s.sched.stop(); err != nil {
			slog.Debug("Failed to stop scheduler", logfields.Error(err))
		}
	}
	if s.tempDir {
		if err := os.RemoveAll(filepath.Dir(s.outputDir)); err != nil {
			slog.Warn("Failed to remove preview directory", logfields.Path(s.outputDir), logfields.Error(err))
		}
	}
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Build failed</title></head>
<body><h1>Build failed</h1><pre>{{.}}</pre><p>Fix the problem and save; the page reloads after the next successful build.</p></body></html>
`))

func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	good, buildErr := s.status.get()
	if !good {
		msg := "The site has not been built yet."
		if buildErr != nil {
			msg = buildErr.Error()
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := errorPage.Execute(w, msg); err != nil {
			slog.Debug("Failed to write error page", logfields.Error(err))
		}
		return
	}

	cfg := s.siteConfig()
	p := r.URL.Path
	if cfg.BaseURL != "/" && p+"/" == cfg.BaseURL {
		http.Redirect(w, r, cfg.BaseURL, http.StatusMovedPermanently)
		return
	}
	if !strings.HasPrefix(p, cfg.BaseURL) {
		s.serveNotFound(w, r)
		return
	}
	rel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(p, cfg.BaseURL)), "/")
	for _, candidate := range []string{rel, path.Join(rel, "index.html"), rel + ".html"} {
		if s.serveFile(w, r, candidate) {
			return
		}
	}
	s.serveNotFound(w, r)
}

// serveFile serves rel from the output directory when it is a regular file.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	full := filepath.Join(s.outputDir, filepath.FromSlash(rel))
	// #nosec G304 - rel is cleaned and rooted inside the output directory
	f, err := os.Open(full)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		return false
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	return true
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	// #nosec G304 - fixed file name inside the output directory
	data, err := os.ReadFile(filepath.Join(s.outputDir, site.NotFoundFile))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if _, err := w.Write(data); err != nil {
		slog.Debug("Failed to write not found page", logfields.Error(err))
	}
}
