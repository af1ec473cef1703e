package docs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "github.com/frontedward/dictator/internal/foundation/errors"
	"github.com/frontedward/dictator/internal/git"
	helpers "github.com/frontedward/dictator/internal/testutil/testutils"
)

func loadTree(t *testing.T, files map[string]string) *Set {
	t.Helper()
	root := t.TempDir()
	helpers.WriteTree(t, root, files)
	set, err := (&Loader{Root: root, RouteBasePath: "docs"}).Load()
	require.NoError(t, err)
	return set
}

func TestLoad_IDsTitlesAndRoutes(t *testing.T) {
	set := loadTree(t, map[string]string{
		"guide/intro-guide.md":           "# Руководства\n\nText\n",
		"guide/02-react.md":              "---\ntitle: React\nsidebar_label: React basics\n---\nBody\n",
		"cheatsheet/intro-cheatsheet.md": "---\nid: start\n---\n```\n# not a title\n```\n",
		"other/index.mdx":                "# Other\n",
		"slugged.md":                     "---\nslug: /custom/place\n---\n",
		"img/diagram.png":                "png",
		".hidden.md":                     "# hidden",
	})

	require.Len(t, set.Docs, 5)

	intro, ok := set.ByID("guide/intro-guide")
	require.True(t, ok)
	require.Equal(t, "Руководства", intro.Title)
	require.Equal(t, "/docs/guide/intro-guide", intro.Route)
	require.NotEmpty(t, intro.Fingerprint)

	react, ok := set.ByID("guide/react")
	require.True(t, ok)
	require.Equal(t, "React", react.Title)
	require.Equal(t, "React basics", react.Label)
	require.True(t, react.HasPos)
	require.Equal(t, 2, react.Position)
	require.Equal(t, "/docs/guide/react", react.Route)

	cheat, ok := set.ByID("cheatsheet/start")
	require.True(t, ok)
	require.Equal(t, "start", cheat.Title)
	require.Equal(t, "/docs/cheatsheet/start", cheat.Route)

	other, ok := set.BySource("other/index.mdx")
	require.True(t, ok)
	require.Equal(t, "/docs/other", other.Route)

	slugged, ok := set.ByID("slugged")
	require.True(t, ok)
	require.Equal(t, "/docs/custom/place", slugged.Route)

	require.Equal(t, []Asset{{
		Source:  set.Assets[0].Source,
		RelPath: "img/diagram.png",
		Route:   "/docs/img/diagram.png",
	}}, set.Assets)
}

func TestLoad_FingerprintTracksContent(t *testing.T) {
	a := loadTree(t, map[string]string{"a.md": "---\ntitle: A\n---\nbody\n"})
	b := loadTree(t, map[string]string{"a.md": "---\ntitle: A\n---\nbody\n"})
	c := loadTree(t, map[string]string{"a.md": "---\ntitle: A\n---\nchanged\n"})
	require.Equal(t, a.Docs[0].Fingerprint, b.Docs[0].Fingerprint)
	require.NotEqual(t, a.Docs[0].Fingerprint, c.Docs[0].Fingerprint)
}

func TestLoad_DraftsSkipped(t *testing.T) {
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"a.md": "# A\n",
		"b.md": "---\ndraft: true\n---\n# B\n",
	})
	set, err := (&Loader{Root: root, RouteBasePath: "docs"}).Load()
	require.NoError(t, err)
	require.Len(t, set.Docs, 1)

	set, err = (&Loader{Root: root, RouteBasePath: "docs", IncludeDrafts: true}).Load()
	require.NoError(t, err)
	require.Len(t, set.Docs, 2)
}

func TestLoad_DuplicateIDIsContentError(t *testing.T) {
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"a.md": "---\nid: same\n---\n",
		"b.md": "---\nid: same\n---\n",
	})
	_, err := (&Loader{Root: root, RouteBasePath: "docs"}).Load()
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := (&Loader{Root: filepath.Join(t.TempDir(), "nope"), RouteBasePath: "docs"}).Load()
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestAutogeneratedSidebar_OrderAndCategories(t *testing.T) {
	set := loadTree(t, map[string]string{
		"intro.md":                      "---\nsidebar_position: 1\n---\n# Intro\n",
		"zeta.md":                       "# Zeta\n",
		"alpha.md":                      "# Alpha\n",
		"node_js/server.md":             "# Server\n",
		"02-react-hooks/use-state.md":   "---\nsidebar_position: 2\n---\n# useState\n",
		"02-react-hooks/use-memo.md":    "---\nsidebar_position: 1\n---\n# useMemo\n",
		"02-react-hooks/_category_.yml": "label: Хуки\ncollapsed: false\n",
	})

	require.Len(t, set.Sidebars, 1)
	sb := set.Sidebars[0]
	require.Equal(t, DefaultSidebarName, sb.Name)

	var labels []string
	for _, it := range sb.Items {
		labels = append(labels, it.Label)
	}
	require.Equal(t, []string{"Intro", "Хуки", "Alpha", "Node Js", "Zeta"}, labels)

	hooks := sb.Items[1]
	require.Equal(t, ItemCategory, hooks.Type)
	require.False(t, hooks.IsCollapsed())
	require.Equal(t, "useMemo", hooks.Items[0].Label)
	require.Equal(t, "useState", hooks.Items[1].Label)
	require.True(t, sb.Items[3].IsCollapsed())

	memo, _ := set.ByID("react-hooks/use-memo")
	require.Equal(t, DefaultSidebarName, memo.Sidebar)
	require.Equal(t, "intro", memo.Prev.ID)
	require.Equal(t, "react-hooks/use-state", memo.Next.ID)
	require.True(t, hooks.Contains(memo))
}

func TestSidebarFile_ExplicitItems(t *testing.T) {
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"docs/guide/intro-guide.md": "# Guide\n",
		"docs/guide/react.md":       "# React\n",
		"docs/other/intro-other.md": "# Other\n",
		"sidebars.yaml": `guideSidebar:
  - guide/intro-guide
  - type: category
    label: Библиотеки
    items:
      - guide/react
otherSidebar:
  - type: autogenerated
    dirName: other
  - type: link
    label: GitHub
    href: https://github.com/frontedward
`,
	})
	l := &Loader{Root: filepath.Join(root, "docs"), RouteBasePath: "docs", SidebarFile: filepath.Join(root, "sidebars.yaml")}
	set, err := l.Load()
	require.NoError(t, err)
	require.Len(t, set.Sidebars, 2)
	require.Equal(t, "guideSidebar", set.Sidebars[0].Name)
	require.Equal(t, "otherSidebar", set.Sidebars[1].Name)

	react, _ := set.ByID("guide/react")
	require.Equal(t, "guideSidebar", react.Sidebar)
	require.Equal(t, "guide/intro-guide", react.Prev.ID)
	require.Nil(t, react.Next)

	other, _ := set.ByID("other/intro-other")
	require.Same(t, set.Sidebars[1], set.SidebarFor(other))
	require.Equal(t, ItemLink, set.Sidebars[1].Items[1].Type)
}

func TestSidebarFile_UnknownDocID(t *testing.T) {
	root := t.TempDir()
	helpers.WriteTree(t, root, map[string]string{
		"docs/a.md":     "# A\n",
		"sidebars.yaml": "main:\n  - missing/doc\n",
	})
	l := &Loader{Root: filepath.Join(root, "docs"), RouteBasePath: "docs", SidebarFile: filepath.Join(root, "sidebars.yaml")}
	_, err := l.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing/doc")
}

func TestCategoryLabel(t *testing.T) {
	require.Equal(t, "Node Js", categoryLabel("node_js"))
	require.Equal(t, "React Hooks", categoryLabel("03-react-hooks"))
	require.Equal(t, "Шпаргалки", categoryLabel("шпаргалки"))
}

func TestLoad_LastUpdateFromGit(t *testing.T) {
	_, wt, root := helpers.SetupTestGitRepo(t)
	when := time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC)
	helpers.CommitFile(t, wt, root, "docs/intro.md", "# Intro\n", "edward", when)

	hist, err := git.Open(root)
	require.NoError(t, err)
	l := &Loader{Root: filepath.Join(root, "docs"), RouteBasePath: "docs", History: hist, WithHistory: true}
	set, err := l.Load()
	require.NoError(t, err)

	doc, _ := set.ByID("intro")
	require.NotNil(t, doc.LastUpdate)
	require.Equal(t, "edward", doc.LastUpdate.Author)
	require.True(t, when.Equal(doc.LastUpdate.Time))
}

func TestDocEditURL(t *testing.T) {
	d := &Doc{RelPath: "guide/intro-guide.md"}
	require.Equal(t, "https://github.com/frontedward/dictator/docs/guide/intro-guide.md",
		d.EditURL("https://github.com/frontedward/dictator/", "docs"))
	require.Empty(t, d.EditURL("", "docs"))
}
