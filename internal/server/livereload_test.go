package server

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func connectSSE(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func readUntil(r *bufio.Reader, needle string) bool {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return false
		}
		if strings.Contains(line, needle) {
			return true
		}
	}
}

func TestLiveReload_InitialConnectReceivesCurrentHash(t *testing.T) {
	hub := NewLiveReloadHub()
	defer hub.Shutdown()
	hub.Broadcast("abc123")

	srv := httptest.NewServer(hub)
	defer srv.Close()

	reader := connectSSE(t, srv.URL)
	require.True(t, readUntil(reader, `"hash":"abc123"`))
}

func TestLiveReload_BroadcastSendsEvent(t *testing.T) {
	hub := NewLiveReloadHub()
	defer hub.Shutdown()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	reader := connectSSE(t, srv.URL)
	require.True(t, readUntil(reader, ": connected"))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("newhash")
	require.True(t, readUntil(reader, "newhash"))
}

func TestLiveReload_DuplicateBroadcastIgnored(t *testing.T) {
	hub := NewLiveReloadHub()
	defer hub.Shutdown()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	reader := connectSSE(t, srv.URL)
	require.True(t, readUntil(reader, ": connected"))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("hash1")
	require.True(t, readUntil(reader, "hash1"))
	hub.Broadcast("hash1")
	hub.Broadcast("hash2")

	line, err := reader.ReadString('\n')
	for err == nil && strings.TrimSpace(line) == "" {
		line, err = reader.ReadString('\n')
	}
	require.NoError(t, err)
	require.Contains(t, line, "hash2")
}

func TestLiveReload_ShutdownRejectsClients(t *testing.T) {
	hub := NewLiveReloadHub()
	hub.Shutdown()

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LiveReloadPath, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInjectLiveReload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{
			name:        "html",
			contentType: "text/html; charset=utf-8",
			body:        "<html><body><p>hi</p></body></html>",
			want:        `<p>hi</p><script src="/livereload.js" async></script></body></html>`,
		},
		{
			name:        "css untouched",
			contentType: "text/css; charset=utf-8",
			body:        "body { color: red } </body>",
			want:        "body { color: red } </body>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := injectLiveReload(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Header().Set("Content-Length", "999")
				w.WriteHeader(http.StatusTeapot)
				_, _ = io.WriteString(w, tt.body)
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusTeapot, rec.Code)
			require.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestInjectLiveReload_LargeBodyPassesThrough(t *testing.T) {
	big := strings.Repeat("a", maxInjectSize) + "</body>"
	h := injectLiveReload(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, big[:10])
		_, _ = io.WriteString(w, big[10:])
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, big, rec.Body.String())
}

func TestLiveReloadScript(t *testing.T) {
	rec := httptest.NewRecorder()
	serveLiveReloadScript(rec, httptest.NewRequest(http.MethodGet, LiveReloadScript, nil))
	require.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	require.Contains(t, rec.Body.String(), "new EventSource('/livereload')")
}
