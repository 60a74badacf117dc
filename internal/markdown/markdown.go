// Package markdown parses and renders markdown bodies with goldmark.
package markdown

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	xhtml "golang.org/x/net/html"
)

func newGoldmark(opts Options) goldmark.Markdown {
	gmOpts := []goldmark.Option{
		// Embedded components must survive rendering.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	}
	if opts.GFM {
		gmOpts = append(gmOpts, goldmark.WithExtensions(extension.GFM))
	}
	return goldmark.New(gmOpts...)
}

// ParseBody parses a Markdown body (frontmatter already removed) into a Goldmark AST.
func ParseBody(body []byte, opts Options) (gmast.Node, error) {
	root := newGoldmark(opts).Parser().Parse(text.NewReader(body))
	return root, nil
}

// Render converts a Markdown body to HTML.
func Render(body []byte, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := newGoldmark(opts).Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExtractLinks parses a Markdown body and extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractLinks(body []byte, opts Options) ([]Link, error) {
	ctx := parser.NewContext()
	root := newGoldmark(opts).Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Reference-style links resolve to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST.
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}

	return links, nil
}

// ExtractAttributes returns the attributes of every HTML or component tag
// embedded in the body. Tags inside code spans and fenced code are ignored.
// Attribute names are lowercased.
func ExtractAttributes(body []byte, opts Options) ([]Attribute, error) {
	root, err := ParseBody(body, opts)
	if err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.HTMLBlock:
			lines := node.Lines()
			for i := range lines.Len() {
				seg := lines.At(i)
				raw.Write(seg.Value(body))
			}
			if node.HasClosure() {
				raw.Write(node.ClosureLine.Value(body))
			}
			raw.WriteByte('\n')
		case *gmast.RawHTML:
			segs := node.Segments
			for i := range segs.Len() {
				seg := segs.At(i)
				raw.Write(seg.Value(body))
			}
			raw.WriteByte('\n')
		}
		return gmast.WalkContinue, nil
	})

	return tagAttributes(&raw)
}

func tagAttributes(r io.Reader) ([]Attribute, error) {
	attrs := make([]Attribute, 0)
	z := xhtml.NewTokenizer(r)
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return attrs, nil
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			tok := z.Token()
			for _, a := range tok.Attr {
				attrs = append(attrs, Attribute{
					Tag:   tok.Data,
					Name:  strings.ToLower(a.Key),
					Value: a.Val,
				})
			}
		}
	}
}
