package markdown

// Options controls how Markdown is parsed and rendered.
type Options struct {
	// GFM enables GitHub Flavored Markdown (tables, strikethrough, autolinks).
	GFM bool
}

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// Attribute is a single attribute found on an embedded HTML or component tag.
type Attribute struct {
	Tag   string
	Name  string
	Value string
}
