package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRefs_InlineLink(t *testing.T) {
	refs, err := ExtractRefs([]byte("See [the follow-up](follow-up.md) for details."))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, RefKindInline, refs[0].Kind)
	require.Equal(t, "follow-up.md", refs[0].Destination)
}

func TestExtractRefs_Image(t *testing.T) {
	refs, err := ExtractRefs([]byte("![Hero shot](hero.png)"))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, RefKindImage, refs[0].Kind)
	require.Equal(t, "hero.png", refs[0].Destination)
}

func TestExtractRefs_AutoLink(t *testing.T) {
	refs, err := ExtractRefs([]byte("<https://example.com/path>"))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, RefKindAuto, refs[0].Kind)
	require.Equal(t, "https://example.com/path", refs[0].Destination)
}

func TestExtractRefs_ReferenceUsageAndDefinition(t *testing.T) {
	src := []byte("See [the appendix][ref].\n\n[ref]: appendix.md\n")
	refs, err := ExtractRefs(src)
	require.NoError(t, err)

	// One resolved link (Goldmark represents reference links as Link nodes
	// with a Destination) plus the definition itself.
	require.Len(t, refs, 2)
	require.Equal(t, RefKindInline, refs[0].Kind)
	require.Equal(t, "appendix.md", refs[0].Destination)
	require.Equal(t, RefKindReferenceDefinition, refs[1].Kind)
	require.Equal(t, "appendix.md", refs[1].Destination)
}

func TestExtractRefs_SkipsInlineCodeAndCodeBlocks(t *testing.T) {
	src := []byte("" +
		"Inline code: `![img](./ignored-inline.png)`\n" +
		"\n" +
		"```\n" +
		"![img](./ignored-fence.png)\n" +
		"```\n" +
		"\n" +
		"Real: ![ok](./real.png)\n")

	refs, err := ExtractRefs(src)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "./real.png", refs[0].Destination)
}

func TestRefIsLocal(t *testing.T) {
	tests := []struct {
		dest  string
		local bool
	}{
		{"hero.png", true},
		{"./hero.png", true},
		{"../shared/logo.svg", true},
		{"https://example.com/x.png", false},
		{"mailto:someone@example.com", false},
		{"/absolute/path.png", false},
		{"#section", false},
		{"", false},
	}

	for _, test := range tests {
		t.Run(test.dest, func(t *testing.T) {
			ref := Ref{Kind: RefKindInline, Destination: test.dest}
			require.Equal(t, test.local, ref.IsLocal())
		})
	}
}

func TestLocalRefs(t *testing.T) {
	refs := []Ref{
		{Kind: RefKindImage, Destination: "hero.png"},
		{Kind: RefKindInline, Destination: "https://example.com"},
		{Kind: RefKindImage, Destination: "hero.png"},
		{Kind: RefKindInline, Destination: "notes.md#part-two"},
		{Kind: RefKindInline, Destination: "#anchor"},
	}

	got := LocalRefs(refs)
	require.Equal(t, []string{"hero.png", "notes.md"}, got)
}
