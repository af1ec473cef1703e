package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		require.Equal(t, CategoryConfig, err.Category())
		require.Equal(t, SeverityFatal, err.Severity())
		require.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		require.Equal(t, "config.yaml", file)
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", ConfigError("bad policy").Build())

		require.True(t, IsClassified(err))
		require.True(t, HasCategory(err, CategoryConfig))
		require.Equal(t, CategoryConfig, GetCategory(err))
		require.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := LinkError("broken link").Build()
		derived := base.WithContext("href", "/docs/missing")

		_, ok := base.Context().Get("href")
		require.False(t, ok)
		href, ok := derived.Context().GetString("href")
		require.True(t, ok)
		require.Equal(t, "/docs/missing", href)
	})

	t.Run("Unwrap exposes cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "write output").Build()
		require.ErrorIs(t, err, cause)
		require.Contains(t, err.Error(), "disk full")
	})
}

func TestDescribe(t *testing.T) {
	err := ConfigError("invalid value").
		WithContext("value", "explode").
		WithContext("key", "onBrokenLinks").
		Build()
	require.Equal(t, "invalid value key=onBrokenLinks value=explode", err.Describe())
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "broken links", err: LinkError("dead link").Build(), expected: 11},
		{name: "runtime", err: RuntimeError("server").Build(), expected: 12},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "plain", err: errors.New("plain"), expected: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)

	err := ConfigError("title must not be empty").WithContext("key", "title").Build()
	require.Equal(t, "Configuration error: title must not be empty key=title", quiet.FormatError(err))
	require.Equal(t, err.Error(), verbose.FormatError(err))
	require.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(InternalError("x").Build()))
	require.Equal(t, "Error: boom", quiet.FormatError(errors.New("boom")))
}
