package markdown

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type RefKind string

const (
	RefKindInline              RefKind = "inline"
	RefKindImage               RefKind = "image"
	RefKindAuto                RefKind = "auto"
	RefKindReferenceDefinition RefKind = "reference_definition"
)

// Ref is a link-like construct found in a Markdown body.
type Ref struct {
	Kind        RefKind
	Destination string
}

// IsLocal reports whether the destination points at a co-located file
// rather than an external URL, an anchor, or an absolute path.
func (r Ref) IsLocal() bool {
	dest := r.Destination
	if dest == "" {
		return false
	}
	if strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return false
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") {
		return false
	}
	return true
}

// ExtractRefs parses a Markdown body and extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractRefs(body []byte) ([]Ref, error) {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	refs := make([]Ref, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			refs = append(refs, Ref{Kind: RefKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			refs = append(refs, Ref{Kind: RefKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			refs = append(refs, Ref{Kind: RefKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	defs := ctx.References()
	sort.Slice(defs, func(i, j int) bool {
		return string(defs[i].Label()) < string(defs[j].Label())
	})
	for _, def := range defs {
		refs = append(refs, Ref{Kind: RefKindReferenceDefinition, Destination: string(def.Destination())})
	}

	return refs, nil
}

// LocalRefs filters refs down to co-located file references, deduplicated
// in first-seen order.
func LocalRefs(refs []Ref) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ref := range refs {
		if !ref.IsLocal() {
			continue
		}
		dest := stripFragment(ref.Destination)
		if dest == "" {
			continue
		}
		if _, dup := seen[dest]; dup {
			continue
		}
		seen[dest] = struct{}{}
		out = append(out, dest)
	}
	return out
}

// stripFragment removes a trailing #fragment or ?query from a destination.
func stripFragment(dest string) string {
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	return dest
}
