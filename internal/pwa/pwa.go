// Package pwa generates the offline support of the site: head tags, the
// service worker with its precache manifest and the registration script.
package pwa

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/frontedward/dictator/internal/config"
)

// Output file names, relative to the site root.
const (
	WorkerFile   = "sw.js"
	RegisterFile = "registerSW.js"
)

var precacheExt = map[string]bool{
	".html": true, ".css": true, ".js": true, ".json": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true,
}

// Entry is one precached URL with its content revision.
type Entry struct {
	URL      string `json:"url"`
	Revision string `json:"revision"`
}

// Revision is the content hash used to version a precached file.
func Revision(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// HeadTags renders the configured pwaHead tags.
func HeadTags(tags []config.HeadTag) template.HTML {
	var b strings.Builder
	for _, t := range tags {
		b.WriteByte('<')
		b.WriteString(t.TagName)
		for _, a := range t.Attributes {
			fmt.Fprintf(&b, ` %s="%s"`, template.HTMLEscapeString(a.Name), template.HTMLEscapeString(a.Value))
		}
		b.WriteString(">\n")
	}
	return template.HTML(b.String()) //nolint:gosec // names and values are escaped
}

// Precache lists every cacheable published file as a URL under baseURL,
// sorted by URL. Files are keyed by slash-separated output path.
func Precache(baseURL string, files map[string][]byte) []Entry {
	entries := make([]Entry, 0, len(files))
	for rel, data := range files {
		if rel == WorkerFile || !precacheExt[strings.ToLower(path.Ext(rel))] {
			continue
		}
		url := baseURL + rel
		if rel == "index.html" || strings.HasSuffix(rel, "/index.html") {
			// Pages are requested by directory URL.
			url = baseURL + strings.TrimSuffix(rel, "index.html")
		}
		entries = append(entries, Entry{URL: url, Revision: Revision(data)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })
	return entries
}

// ServiceWorker renders sw.js. The worker precaches the manifest only when the
// page registered it in offline mode, and serves cached responses first.
func ServiceWorker(opts *config.PWAOptions, entries []Entry) ([]byte, error) {
	manifest, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode precache manifest: %w", err)
	}
	cacheName := "dictator-precache-" + Revision(manifest)[:8]
	return []byte(fmt.Sprintf(workerTemplate, opts.Debug, cacheName, manifest)), nil
}

// RegisterScript renders the script that evaluates the offline mode
// activation strategies and registers the worker.
func RegisterScript(cfg *config.SiteConfig) ([]byte, error) {
	strategies := make([]string, 0, len(cfg.PWA.OfflineModeActivationStrategies))
	for _, s := range cfg.PWA.OfflineModeActivationStrategies {
		strategies = append(strategies, string(s))
	}
	list, err := json.Marshal(strategies)
	if err != nil {
		return nil, fmt.Errorf("encode activation strategies: %w", err)
	}
	workerURL, err := json.Marshal(cfg.WithBaseURL(WorkerFile))
	if err != nil {
		return nil, err
	}
	scope, err := json.Marshal(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(registerTemplate, cfg.PWA.Debug, list, workerURL, scope)), nil
}

const workerTemplate = `/* generated by dictator */
const DEBUG = %t;
const CACHE = %q;
const PRECACHE = %s;
const OFFLINE = new URL(self.location).searchParams.get('offlineMode') === 'true';

function log(...args) { if (DEBUG) console.log('[dictator-sw]', ...args); }

self.addEventListener('install', (event) => {
  log('install', { offline: OFFLINE, entries: PRECACHE.length });
  if (!OFFLINE) { self.skipWaiting(); return; }
  event.waitUntil(
    caches.open(CACHE)
      .then((cache) => cache.addAll(PRECACHE.map((e) => e.url + '?__rev=' + e.revision)))
      .then(() => self.skipWaiting())
  );
});

self.addEventListener('activate', (event) => {
  event.waitUntil(
    caches.keys()
      .then((keys) => Promise.all(keys.filter((k) => k !== CACHE).map((k) => caches.delete(k))))
      .then(() => self.clients.claim())
  );
});

const REVISIONS = new Map(PRECACHE.map((e) => [new URL(e.url, self.location).pathname, e.revision]));

self.addEventListener('fetch', (event) => {
  if (!OFFLINE || event.request.method !== 'GET') return;
  const url = new URL(event.request.url);
  let pathname = url.pathname;
  if (!REVISIONS.has(pathname) && REVISIONS.has(pathname + '/')) pathname += '/';
  const revision = REVISIONS.get(pathname);
  if (!revision) return;
  event.respondWith(
    caches.open(CACHE)
      .then((cache) => cache.match(pathname + '?__rev=' + revision))
      .then((cached) => {
        log(cached ? 'cache hit' : 'cache miss', pathname);
        return cached || fetch(event.request);
      })
  );
});
`

const registerTemplate = `/* generated by dictator */
(function () {
  const DEBUG = %t;
  const STRATEGIES = %s;
  const WORKER = %s;
  const SCOPE = %s;
  const KEY = 'dictator.pwa.appInstalled';

  if (!('serviceWorker' in navigator)) return;

  window.addEventListener('appinstalled', () => { try { localStorage.setItem(KEY, 'true'); } catch (e) {} });

  const checks = {
    appInstalled: () => { try { return localStorage.getItem(KEY) === 'true'; } catch (e) { return false; } },
    standalone: () => window.matchMedia('(display-mode: standalone)').matches || navigator.standalone === true,
    queryString: () => new URLSearchParams(window.location.search).get('offlineMode') === 'true',
    mobile: () => window.innerWidth <= 996,
    saveData: () => !!(navigator.connection && navigator.connection.saveData),
    always: () => true,
  };

  const enabled = STRATEGIES.filter((s) => checks[s] && checks[s]());
  const offline = enabled.length > 0;
  if (DEBUG) console.log('[dictator-pwa]', { strategies: STRATEGIES, enabled: enabled, offline: offline });

  window.addEventListener('load', () => {
    navigator.serviceWorker
      .register(WORKER + '?offlineMode=' + offline, { scope: SCOPE })
      .then((reg) => { if (DEBUG) console.log('[dictator-pwa] registered', reg.scope); })
      .catch((err) => console.error('[dictator-pwa] registration failed', err));
  });
})();
`
