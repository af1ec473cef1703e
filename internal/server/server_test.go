package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"github.com/frontedward/dictator/internal/config"
	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/site"
	helpers "github.com/frontedward/dictator/internal/testutil/testutils"
)

const previewConfig = `title: %TITLE%
url: https://preview.example.com
baseUrl: %BASE%
presets:
  - name: classic
landing:
  hero:
    subtitle:
      - {text: Docs, href: docs/intro}
    cta: {label: Go, to: docs/intro}
  features:
    - {title: Fast}
`

func writeSite(t *testing.T, title, baseURL string) string {
	t.Helper()
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"config.yaml":   renderConfig(title, baseURL),
		"docs/intro.md": "# Intro\n\nHello\n",
	})
	return filepath.Join(root, "config.yaml")
}

func renderConfig(title, baseURL string) string {
	return strings.NewReplacer("%TITLE%", title, "%BASE%", baseURL).Replace(previewConfig)
}

func newTestServer(t *testing.T, configPath string) *Server {
	t.Helper()
	s, err := New(Options{ConfigPath: configPath, OutputDir: filepath.Join(t.TempDir(), "out")})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, target string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestHandler_ServesBuiltSite(t *testing.T) {
	s := newTestServer(t, writeSite(t, "Preview", "/"))
	report, err := s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)
	require.Same(t, report, s.LastReport())
	h := s.Handler()

	res, body := get(t, h, "/docs/intro")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Hello")
	require.Contains(t, body, `<script src="/livereload.js" async></script></body>`)

	res, body = get(t, h, "/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Preview")

	res, body = get(t, h, "/"+site.ThemeStylesheet)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotContains(t, body, "livereload.js")

	res, _ = get(t, h, "/missing/page")
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = get(t, h, LiveReloadScript)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "EventSource")

	res, body = get(t, h, MetricsPath)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `dictator_rebuilds_total{trigger="initial"} 1`)
	require.Contains(t, body, "dictator_build_outcomes_total")
}

func TestHandler_BaseURL(t *testing.T) {
	s := newTestServer(t, writeSite(t, "Preview", "/site/"))
	_, err := s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)
	h := s.Handler()

	res, _ := get(t, h, "/site/docs/intro")
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = get(t, h, "/site")
	require.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	require.Equal(t, "/site/", res.Header.Get("Location"))

	res, _ = get(t, h, "/docs/intro")
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = get(t, h, "/site/../config.yaml")
	require.NotEqual(t, http.StatusOK, res.StatusCode)
}

func TestHandler_ErrorPageBeforeFirstGoodBuild(t *testing.T) {
	configPath := writeSite(t, "Preview", "/")
	require.NoError(t, os.RemoveAll(filepath.Join(filepath.Dir(configPath), "docs")))
	s := newTestServer(t, configPath)

	_, err := s.Rebuild(t.Context(), TriggerInitial)
	require.Error(t, err)

	res, body := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	require.Contains(t, body, "Build failed")
	require.Contains(t, body, "livereload.js")
	require.Nil(t, s.LastReport())
}

func TestRebuild_ReloadsConfiguration(t *testing.T) {
	configPath := writeSite(t, "Before", "/")
	s := newTestServer(t, configPath)
	_, err := s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(configPath, []byte(renderConfig("After", "/")), 0o600))
	_, err = s.Rebuild(t.Context(), TriggerConfig)
	require.NoError(t, err)
	_, body := get(t, s.Handler(), "/")
	require.Contains(t, body, "After")

	require.NoError(t, os.WriteFile(configPath, []byte("title: [broken\n"), 0o600))
	_, err = s.Rebuild(t.Context(), TriggerConfig)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	cfg := s.siteConfig()
	require.Equal(t, "After", cfg.Title)
	res, body := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "After")
}

func TestRebuild_RefreshesLastUpdateFromGit(t *testing.T) {
	_, wt, root := helpers.SetupTestGitRepo(t)
	cfgText := strings.Replace(renderConfig("Preview", "/"), "  - name: classic\n",
		"  - name: classic\n    options:\n      docs:\n        showLastUpdateAuthor: true\n", 1)
	helpers.WriteTree(t, root, map[string]string{"config.yaml": cfgText})
	when := time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC)
	helpers.CommitFile(t, wt, root, "docs/intro.md", "# Intro\n", "edward", when)

	s := newTestServer(t, filepath.Join(root, "config.yaml"))
	report, err := s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
	_, body := get(t, s.Handler(), "/docs/intro")
	require.Contains(t, body, "by <b>edward</b>")

	helpers.CommitFile(t, wt, root, "docs/intro.md", "# Intro\n\nMore\n", "frontedward", when.Add(time.Hour))
	_, err = s.Rebuild(t.Context(), TriggerContent)
	require.NoError(t, err)
	_, body = get(t, s.Handler(), "/docs/intro")
	require.Contains(t, body, "by <b>frontedward</b>")
}

func TestRebuild_CanceledContext(t *testing.T) {
	s := newTestServer(t, writeSite(t, "Preview", "/"))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := s.Rebuild(ctx, TriggerInitial)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
}

func TestNew_MissingConfig(t *testing.T) {
	_, err := New(Options{ConfigPath: filepath.Join(t.TempDir(), "config.yaml")})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestNew_TemporaryOutputRemovedOnCleanup(t *testing.T) {
	s, err := New(Options{ConfigPath: writeSite(t, "Preview", "/")})
	require.NoError(t, err)
	_, err = s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)
	require.DirExists(t, s.OutputDir())

	s.cleanup()
	require.NoDirExists(t, filepath.Dir(s.OutputDir()))
}

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"docs/intro.md", false},
		{"docs/.intro.md.swp", true},
		{"docs/intro.md~", true},
		{"docs/intro.md.swx", true},
		{"docs/#intro.md#", true},
		{"docs/.#intro.md", true},
		{"static/.DS_Store", true},
		{"static/Thumbs.db", true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, shouldIgnoreEvent(tt.path), tt.path)
	}
}

func TestWatchSet_Classify(t *testing.T) {
	configPath := writeSite(t, "Preview", "/")
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	ws := newWatchSet(configPath, cfg)
	root := cfg.Dir

	tests := []struct {
		path    string
		trigger string
		ok      bool
	}{
		{filepath.Join(root, "config.yaml"), TriggerConfig, true},
		{filepath.Join(root, ".env"), TriggerConfig, true},
		{filepath.Join(root, "docs", "guide", "new.md"), TriggerContent, true},
		{filepath.Join(root, "blog", "2022-01-01-post.md"), TriggerContent, true},
		{filepath.Join(root, "static", "img", "logo.png"), TriggerContent, true},
		{filepath.Join(root, "docs", "intro.md.swp"), "", false},
		{filepath.Join(root, "README.md"), "", false},
		{filepath.Join(root, "docsextra", "a.md"), "", false},
	}
	for _, tt := range tests {
		trigger, ok := ws.classify(tt.path)
		require.Equal(t, tt.ok, ok, tt.path)
		require.Equal(t, tt.trigger, trigger, tt.path)
	}
}

func TestWatcher_TriggersOnContentChange(t *testing.T) {
	configPath := writeSite(t, "Preview", "/")
	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	got := make(chan string, 16)
	w, err := newWatcher(newWatchSet(configPath, cfg), func(reason string) { got <- reason })
	require.NoError(t, err)
	defer func() { _ = w.close() }()
	go w.run(t.Context())

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "docs", "intro.md"), []byte("# Changed\n"), 0o600))
	select {
	case reason := <-got:
		require.Equal(t, TriggerContent, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild trigger for content change")
	}
}

func TestWatcher_IgnoresChmod(t *testing.T) {
	called := false
	w := &watcher{
		set:     watchSet{trees: []string{"/site/docs"}, files: map[string]string{}},
		trigger: func(string) { called = true },
	}
	w.handle(fsnotify.Event{Name: "/site/docs/a.md", Op: fsnotify.Chmod})
	require.False(t, called)
	w.handle(fsnotify.Event{Name: "/site/docs/a.md", Op: fsnotify.Write})
	require.True(t, called)
}

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	var mu sync.Mutex
	var fired [][]string
	d := newDebouncer(20*time.Millisecond, func(triggers []string) {
		sort.Strings(triggers)
		mu.Lock()
		fired = append(fired, triggers)
		mu.Unlock()
	})
	defer d.stop()

	d.trigger(TriggerContent)
	d.trigger(TriggerContent)
	d.trigger(TriggerConfig)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fired, 1)
	require.Equal(t, []string{TriggerConfig, TriggerContent}, fired[0])
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	fired := make(chan struct{}, 1)
	d := newDebouncer(10*time.Millisecond, func([]string) { fired <- struct{}{} })
	d.trigger(TriggerContent)
	d.stop()
	select {
	case <-fired:
		t.Fatal("debouncer fired after stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRebuildQueue_Coalesces(t *testing.T) {
	q := newRebuildQueue()
	q.request(TriggerContent)
	q.request(TriggerSchedule, TriggerContent)

	select {
	case <-q.signal:
	default:
		t.Fatal("expected a pending signal")
	}
	require.Equal(t, []string{TriggerContent, TriggerSchedule}, q.take())
	require.Empty(t, q.take())

	select {
	case <-q.signal:
		t.Fatal("signal should be consumed once")
	default:
	}
}

func TestScheduler_DueAtRequestsRebuild(t *testing.T) {
	got := make(chan string, 1)
	s, err := newScheduler(func(trigger string) { got <- trigger })
	require.NoError(t, err)
	s.start()
	defer func() { _ = s.stop() }()

	require.NoError(t, s.dueAt(time.Now().Add(100*time.Millisecond)))
	select {
	case trigger := <-got:
		require.Equal(t, TriggerSchedule, trigger)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled rebuild did not run")
	}
}

func TestScheduler_DueAtReplacesPendingJob(t *testing.T) {
	s, err := newScheduler(func(string) {})
	require.NoError(t, err)
	defer func() { _ = s.stop() }()

	first := time.Now().Add(time.Hour)
	require.NoError(t, s.dueAt(first))
	id := s.dueJob
	require.NoError(t, s.dueAt(first))
	require.Equal(t, id, s.dueJob)

	require.NoError(t, s.dueAt(first.Add(time.Hour)))
	require.NotEqual(t, id, s.dueJob)
	require.Len(t, s.scheduler.Jobs(), 1)

	require.NoError(t, s.dueAt(time.Time{}))
	require.Empty(t, s.scheduler.Jobs())
}
