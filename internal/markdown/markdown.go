package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Options controls how Markdown is rendered.
//
// For now this is intentionally small; it exists so we can evolve rendering
// behavior (extensions/settings) without rewriting call sites.
type Options struct {
	HardWraps bool
}

// Engine renders Markdown bodies into HTML fragments. The engine is
// stateless, so one instance can be shared across goroutines without
// additional locking.
type Engine struct {
	md goldmark.Markdown
}

// NewEngine constructs an engine with the house defaults: GFM extensions,
// auto heading IDs, raw HTML passed through.
func NewEngine(opts Options) *Engine {
	engineOptions := []goldmark.Option{
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	}
	if opts.HardWraps {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()))
	} else {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	return &Engine{md: goldmark.New(engineOptions...)}
}

// Render converts a Markdown body (front matter already removed) into an
// HTML fragment.
func (e *Engine) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

// DestinationResolver rewrites link and image destinations during rendering.
// Returning an error aborts the render of this body.
type DestinationResolver func(dest string, kind RefKind) (string, error)

// RenderResolved renders a body like Render but passes every link and image
// destination through resolve first. Reference-style links are already
// resolved to their definitions by the parser, so they are rewritten too.
func (e *Engine) RenderResolved(body []byte, resolve DestinationResolver) ([]byte, error) {
	root := e.md.Parser().Parse(text.NewReader(body))

	var walkErr error
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			dest, err := resolve(string(node.Destination), RefKindInline)
			if err != nil {
				walkErr = err
				return gmast.WalkStop, nil
			}
			node.Destination = []byte(dest)
		case *gmast.Image:
			dest, err := resolve(string(node.Destination), RefKindImage)
			if err != nil {
				walkErr = err
				return gmast.WalkStop, nil
			}
			node.Destination = []byte(dest)
		}
		return gmast.WalkContinue, nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	var buf bytes.Buffer
	if err := e.md.Renderer().Render(&buf, body, root); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}
