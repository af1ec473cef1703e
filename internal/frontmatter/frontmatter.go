// Package frontmatter splits YAML frontmatter from Markdown sources and exposes typed field access.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a Markdown source split into its frontmatter and body.
type Document struct {
	Raw    []byte // frontmatter without delimiters, LF newlines
	Fields map[string]any
	Body   []byte
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// CRLF input is normalized to LF first. If the document does not start with a
// delimiter, had is false and body is the full input.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, content, false, nil
	}
	rest := content[len("---\n"):]
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return []byte{}, rest[len("---\n"):], true, nil
	}
	idx := bytes.Index(rest, []byte("\n---\n"))
	if idx < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return rest[:len(rest)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+1], rest[idx+len("\n---\n"):], true, nil
}

// Parse splits content and decodes the frontmatter into a field map.
func Parse(content []byte) (*Document, error) {
	fm, body, _, err := Split(content)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if len(fm) > 0 {
		if err := yaml.Unmarshal(fm, &fields); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	return &Document{Raw: fm, Fields: fields, Body: body}, nil
}

// String returns a scalar field rendered as a string.
func (d *Document) String(key string) string {
	switch v := d.Fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}

// Int returns an integer field; ok is false when absent or not numeric.
func (d *Document) Int(key string) (int, bool) {
	switch v := d.Fields[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// Bool returns a boolean field, false when absent.
func (d *Document) Bool(key string) bool {
	b, _ := d.Fields[key].(bool)
	return b
}

// Time parses a date field. YAML timestamps and YYYY-MM-DD strings are accepted.
func (d *Document) Time(key string) (time.Time, bool) {
	switch v := d.Fields[key].(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Strings returns a list field; a single scalar becomes a one-element list.
func (d *Document) Strings(key string) []string {
	switch v := d.Fields[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s := strings.TrimSpace(fmt.Sprint(e)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return nil
}
