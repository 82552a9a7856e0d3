package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderBasics(t *testing.T) {
	engine := NewEngine(Options{})

	html, err := engine.Render([]byte("# Title\n\nHello **world**.\n"))
	require.NoError(t, err)

	out := string(html)
	require.Contains(t, out, "<h1 id=\"title\">Title</h1>")
	require.Contains(t, out, "<strong>world</strong>")
}

func TestRenderGFMTable(t *testing.T) {
	engine := NewEngine(Options{})

	src := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	html, err := engine.Render([]byte(src))
	require.NoError(t, err)
	require.Contains(t, string(html), "<table>")
}

func TestRenderPassesRawHTML(t *testing.T) {
	engine := NewEngine(Options{})

	html, err := engine.Render([]byte("before\n\n<aside>kept</aside>\n"))
	require.NoError(t, err)
	require.Contains(t, string(html), "<aside>kept</aside>")
}

func TestRenderDeterministic(t *testing.T) {
	engine := NewEngine(Options{})
	src := []byte("# A\n\nSome *body* with [a link](x.md) and `code`.\n\n- one\n- two\n")

	first, err := engine.Render(src)
	require.NoError(t, err)
	second, err := engine.Render(src)
	require.NoError(t, err)

	require.Equal(t, first, second, "same input must produce byte-identical output")
}

func TestRenderResolvedRewritesDestinations(t *testing.T) {
	engine := NewEngine(Options{})

	src := []byte("See [other](other.md) and ![pic](hero.png).\n\nAlso [ref][r].\n\n[r]: sibling.md\n")
	html, err := engine.RenderResolved(src, func(dest string, kind RefKind) (string, error) {
		switch dest {
		case "other.md":
			require.Equal(t, RefKindInline, kind)
			return "/posts/other/", nil
		case "hero.png":
			require.Equal(t, RefKindImage, kind)
			return dest, nil
		case "sibling.md":
			return "/posts/sibling/", nil
		}
		return dest, nil
	})
	require.NoError(t, err)

	out := string(html)
	require.Contains(t, out, `<a href="/posts/other/">other</a>`)
	require.Contains(t, out, `<a href="/posts/sibling/">ref</a>`)
	require.Contains(t, out, `<img src="hero.png"`)
}

func TestRenderResolvedPropagatesResolverError(t *testing.T) {
	engine := NewEngine(Options{})

	_, err := engine.RenderResolved([]byte("![x](missing.png)"), func(dest string, kind RefKind) (string, error) {
		return "", errTestResolver
	})
	require.ErrorIs(t, err, errTestResolver)
}

var errTestResolver = errTest("resolver failed")

type errTest string

func (e errTest) Error() string { return string(e) }

func TestRenderHardWraps(t *testing.T) {
	soft := NewEngine(Options{})
	hard := NewEngine(Options{HardWraps: true})

	src := []byte("line one\nline two\n")

	softHTML, err := soft.Render(src)
	require.NoError(t, err)
	hardHTML, err := hard.Render(src)
	require.NoError(t, err)

	require.False(t, strings.Contains(string(softHTML), "<br"))
	require.Contains(t, string(hardHTML), "<br")
}
