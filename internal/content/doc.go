// Package content finds site content that references a manifest and loads
// the markdown overlay shared by every works page.
//
// Both collaborators read markdown files (.md, .mdx) below a content root.
// Their failures are soft: callers substitute empty values and continue.
package content
