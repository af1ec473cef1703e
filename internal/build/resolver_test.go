package build

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frontedward/dictator/internal/config"
)

func TestSourceResolver(t *testing.T) {
	cfg := &config.SiteConfig{BaseURL: "/site/"}
	targets := linkTargets{
		"docs/guide/intro-guide.md": "/docs/guide/intro-guide",
		"docs/img/diagram.png":      "/docs/img/diagram.png",
		"blog/2022-03-14-hello.md":  "/blog/2022/03/14/hello",
	}
	r := targets.forFile(cfg, "docs/guide/react.md")

	tests := []struct {
		dest string
		md   bool
		want string
		ok   bool
	}{
		{"intro-guide.md", true, "/site/docs/guide/intro-guide", true},
		{"./intro-guide.md", true, "/site/docs/guide/intro-guide", true},
		{"../img/diagram.png", false, "/site/docs/img/diagram.png", true},
		{"../../blog/2022-03-14-hello.md", true, "/site/blog/2022/03/14/hello", true},
		{"/docs/guide/intro-guide.md", true, "/site/docs/guide/intro-guide", true},
		{"/img/logo.png", false, "/site/img/logo.png", true},
		{"missing.md", true, "", false},
		{"img/unknown.png", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			got, ok := r.ResolveLink(tt.dest, tt.md)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLinkDigestTracksTargets(t *testing.T) {
	a := linkDigest("/", map[string]string{"docs/a.md": "/docs/a"})
	b := linkDigest("/", map[string]string{"docs/a.md": "/docs/a"})
	c := linkDigest("/", map[string]string{"docs/a.md": "/docs/renamed"})
	d := linkDigest("/site/", map[string]string{"docs/a.md": "/docs/a"})
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotEqual(t, a, d)
}
