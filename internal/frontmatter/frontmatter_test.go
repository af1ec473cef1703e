package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_EmptyFrontmatter(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("body\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_IsNormalized(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestParse_TypedAccessors(t *testing.T) {
	doc, err := Parse([]byte(`---
id: intro-guide
title: "  Введение  "
sidebar_position: 2
draft: true
date: 2022-03-14
authors: [edward, guest]
tags: react
---
Body
`))
	require.NoError(t, err)
	require.Equal(t, "intro-guide", doc.String("id"))
	require.Equal(t, "Введение", doc.String("title"))
	require.Equal(t, "", doc.String("missing"))

	pos, ok := doc.Int("sidebar_position")
	require.True(t, ok)
	require.Equal(t, 2, pos)
	_, ok = doc.Int("title")
	require.False(t, ok)

	require.True(t, doc.Bool("draft"))
	require.False(t, doc.Bool("missing"))

	date, ok := doc.Time("date")
	require.True(t, ok)
	require.Equal(t, time.Date(2022, 3, 14, 0, 0, 0, 0, time.UTC), date)
	require.Equal(t, "2022-03-14", doc.String("date"))

	require.Equal(t, []string{"edward", "guest"}, doc.Strings("authors"))
	require.Equal(t, []string{"react"}, doc.Strings("tags"))
	require.Equal(t, []byte("Body\n"), doc.Body)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.Error(t, err)
}
