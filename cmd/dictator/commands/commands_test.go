package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	helpers "github.com/frontedward/dictator/internal/testutil/testutils"
)

const siteConfig = `title: Dictator
url: https://dictator.example.com
presets:
  - name: classic
landing:
  hero:
    subtitle:
      - {text: Руководства, href: docs/intro}
    cta: {label: Поехали!, to: docs/intro}
  features:
    - {title: JavaScript}
`

// run parses args like the real binary and executes the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	g := &Global{Out: &out}
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("dictator"),
		kong.Vars{"version": "test"},
		Vars(),
		kong.Bind(g),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = kctx.Run(cli)
	return out.String(), err
}

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"config.yaml":                    siteConfig,
		"docs/intro.md":                  "# Введение\n\nТекст\n",
		"blog/2022-03-14-hello.md":       "---\ntitle: Привет\n---\nПервый пост\n",
		"blog/2022-03-15-draft.md":       "---\ndraft: true\n---\nЧерновик\n",
		"static/img/logo.png":            "png",
		"docs/_category_.yml":            "label: Документация\n",
	})
	return filepath.Join(root, "config.yaml")
}

func TestBuildCommand_PublishesSite(t *testing.T) {
	cfgPath := writeSite(t)
	outDir := filepath.Join(t.TempDir(), "build")

	out, err := run(t, "-c", cfgPath, "build", "-o", outDir)
	require.NoError(t, err)
	require.Contains(t, out, "success: ")
	require.Contains(t, out, "Site written to "+outDir)

	helpers.NewFileAssertions(t, outDir).
		AssertFileExists("index.html").
		AssertFileExists("docs/intro/index.html").
		AssertFileExists("blog/2022/03/14/hello/index.html").
		AssertFileMissing("blog/2022/03/15/draft/index.html").
		AssertFileExists("img/logo.png").
		AssertFileContains("index.html", "Dictator")
}

func TestBuildCommand_Drafts(t *testing.T) {
	cfgPath := writeSite(t)
	outDir := filepath.Join(t.TempDir(), "build")

	_, err := run(t, "-c", cfgPath, "build", "-o", outDir, "--drafts")
	require.NoError(t, err)
	helpers.NewFileAssertions(t, outDir).AssertFileExists("blog/2022/03/15/draft/index.html")
}

func TestBuildCommand_MissingConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "config.yaml"), "build")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, "-c", writeSite(t), "check")
	require.NoError(t, err)
	require.Contains(t, out, "Configuration OK: Dictator (https://dictator.example.com/)")
	require.Contains(t, out, "docs: docs -> /docs")
	require.Contains(t, out, "blog: blog -> /blog")
}

func TestCheckCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: Dictator\n"), 0o600))
	_, err := run(t, "-c", path, "check")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := run(t, "-c", path, "init")
	require.NoError(t, err)
	require.Contains(t, out, "Initialized successfully")
	require.FileExists(t, path)

	_, err = run(t, "-c", path, "init")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = run(t, "-c", path, "init", "--force")
	require.NoError(t, err)
}
