package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyDocID      = "doc_id"
	KeyHref       = "href"
	KeyPolicy     = "policy"
	KeyCount      = "count"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyTrigger    = "trigger"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func DocID(id string) slog.Attr       { return slog.String(KeyDocID, id) }
func Href(h string) slog.Attr         { return slog.String(KeyHref, h) }
func Policy(p string) slog.Attr       { return slog.String(KeyPolicy, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
