package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/frontedward/dictator/internal/logfields"
)

// Live reload endpoints, served at the root regardless of baseUrl.
const (
	LiveReloadPath   = "/livereload"
	LiveReloadScript = "/livereload.js"
)

const heartbeatInterval = 30 * time.Second

// LiveReloadHub manages SSE clients for build-change broadcasts.
type LiveReloadHub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*lrClient
	closed   bool
	lastHash string
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub creates a hub with no clients.
func NewLiveReloadHub() *LiveReloadHub {
	return &LiveReloadHub{clients: map[int]*lrClient{}}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastHash
	h.mu.Unlock()

	// The first event carries the current build so clients get a baseline.
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("livereload write", logfields.Error(err))
		h.removeClient(client.id)
		return
	}
	if current != "" {
		_, _ = bw.WriteString(event(current))
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				slog.Debug("livereload ping write", logfields.Error(err))
				continue
			}
			if err := bw.Flush(); err == nil {
				flusher.Flush()
			}
		case hash := <-client.ch:
			if _, err := bw.WriteString(event(hash)); err != nil {
				slog.Debug("livereload broadcast write", logfields.Error(err))
				continue
			}
			if err := bw.Flush(); err == nil {
				flusher.Flush()
			}
		}
	}
}

func event(hash string) string {
	return "data: {\"hash\":\"" + hash + "\"}\n\n"
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients returns the number of connected clients.
func (h *LiveReloadHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a new build hash to all clients, dropping clients whose buffers are full.
func (h *LiveReloadHub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", slog.String("hash", hash), slog.Int("clients", len(snapshot)), slog.Int("dropped", dropped))
}

// Shutdown closes all clients and prevents future broadcasts.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// liveReloadJS reconnects on errors and reloads the page when the build hash changes.
const liveReloadJS = `(() => {
  if (window.__DICTATOR_LR__) return;
  window.__DICTATOR_LR__ = true;
  function connect() {
    const es = new EventSource('` + LiveReloadPath + `');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.hash; return; }
        if (p.hash && p.hash !== current) {
          console.log('[dictator] change detected, reloading');
          location.reload();
        }
      } catch (_) {}
    };
    es.onerror = () => {
      console.warn('[dictator] livereload error - retrying');
      es.close();
      setTimeout(connect, 2000);
    };
  }
  connect();
})();
`

func serveLiveReloadScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write([]byte(liveReloadJS)); err != nil {
		slog.Debug("failed to write livereload script", logfields.Error(err))
	}
}

const maxInjectSize = 512 * 1024

// injectLiveReload adds the live reload client script to HTML responses before </body>.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		injector := &liveReloadInjector{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// liveReloadInjector buffers HTML bodies up to maxInjectSize; anything else
// or anything larger passes through unchanged.
type liveReloadInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	buffering     bool
	headerWritten bool
	passthrough   bool
}

func (l *liveReloadInjector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *liveReloadInjector) Write(data []byte) (int, error) {
	if !l.buffering && !l.passthrough {
		if !strings.Contains(l.Header().Get("Content-Type"), "text/html") {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}
		l.buffering = true
	}
	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}
	if len(l.buffer)+len(data) > maxInjectSize {
		l.passthrough = true
		l.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true
		if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
			return 0, err
		}
		return l.ResponseWriter.Write(data)
	}
	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

// finalize must be called after the handler completes to write the buffered body.
func (l *liveReloadInjector) finalize() {
	if l.passthrough {
		return
	}
	if !l.buffering {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}
	body := strings.Replace(string(l.buffer), "</body>",
		`<script src="`+LiveReloadScript+`" async></script></body>`, 1)
	l.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	_, _ = l.ResponseWriter.Write([]byte(body))
}
