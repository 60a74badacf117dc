// Package iiif reads IIIF Presentation manifests and resolves page slugs to them.
package iiif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Field is one top-level manifest property with its undecoded value.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Manifest is a IIIF manifest kept as an ordered list of top-level fields.
//
// Only the properties the works page reads are decoded on access; everything
// else passes through byte for byte, in document order.
type Manifest struct {
	fields []Field
}

// LanguageMap is a IIIF language map, e.g. {"en": ["Title"]}.
type LanguageMap map[string][]string

// MetadataItem is a label/value pair from metadata or requiredStatement.
type MetadataItem struct {
	Label LanguageMap `json:"label"`
	Value LanguageMap `json:"value"`
}

// Reference is a linking property entry (partOf, rendering, seeAlso, homepage, provider).
type Reference struct {
	ID     string      `json:"id"`
	Type   string      `json:"type,omitempty"`
	Label  LanguageMap `json:"label,omitempty"`
	Format string      `json:"format,omitempty"`
}

// Well-known manifest keys.
const (
	KeyID                = "id"
	KeyType              = "type"
	KeyLabel             = "label"
	KeyMetadata          = "metadata"
	KeySummary           = "summary"
	KeyRequiredStatement = "requiredStatement"
	KeyPartOf            = "partOf"
	KeyRendering         = "rendering"
	KeySeeAlso           = "seeAlso"
	KeyHomepage          = "homepage"
	KeyProvider          = "provider"
)

// NewManifest builds a manifest from fields in order.
func NewManifest(fields ...Field) *Manifest {
	return &Manifest{fields: slices.Clone(fields)}
}

// Fields returns a copy of the manifest's fields in document order.
func (m *Manifest) Fields() []Field {
	return slices.Clone(m.fields)
}

// Keys returns the top-level keys in document order.
func (m *Manifest) Keys() []string {
	keys := make([]string, len(m.fields))
	for i, f := range m.fields {
		keys[i] = f.Key
	}
	return keys
}

// Raw returns the undecoded value of key.
func (m *Manifest) Raw(key string) (json.RawMessage, bool) {
	for _, f := range m.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (m *Manifest) Has(key string) bool {
	_, ok := m.Raw(key)
	return ok
}

// Without returns a copy of the manifest with key removed. The receiver is
// left untouched.
func (m *Manifest) Without(key string) *Manifest {
	out := &Manifest{fields: make([]Field, 0, len(m.fields))}
	for _, f := range m.fields {
		if f.Key != key {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

func decodeField[T any](m *Manifest, key string) (T, bool) {
	var v T
	raw, ok := m.Raw(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// ID returns the manifest id.
func (m *Manifest) ID() string {
	id, _ := decodeField[string](m, KeyID)
	return id
}

// Type returns the manifest type, normally "Manifest".
func (m *Manifest) Type() string {
	t, _ := decodeField[string](m, KeyType)
	return t
}

// Label returns the manifest label, or nil when absent.
func (m *Manifest) Label() LanguageMap {
	l, _ := decodeField[LanguageMap](m, KeyLabel)
	return l
}

// Summary returns the manifest summary, or nil when absent.
func (m *Manifest) Summary() LanguageMap {
	s, _ := decodeField[LanguageMap](m, KeySummary)
	return s
}

// Metadata returns the descriptive label/value pairs in document order.
func (m *Manifest) Metadata() []MetadataItem {
	items, _ := decodeField[[]MetadataItem](m, KeyMetadata)
	return items
}

// RequiredStatement returns nil when the manifest carries none.
func (m *Manifest) RequiredStatement() *MetadataItem {
	item, ok := decodeField[MetadataItem](m, KeyRequiredStatement)
	if !ok {
		return nil
	}
	return &item
}

// PartOf returns the collections the manifest belongs to.
func (m *Manifest) PartOf() []Reference { return m.references(KeyPartOf) }

// Rendering returns alternative renderings such as PDF downloads.
func (m *Manifest) Rendering() []Reference { return m.references(KeyRendering) }

// SeeAlso returns related machine-readable descriptions.
func (m *Manifest) SeeAlso() []Reference { return m.references(KeySeeAlso) }

// Homepage returns the web pages about the object.
func (m *Manifest) Homepage() []Reference { return m.references(KeyHomepage) }

func (m *Manifest) references(key string) []Reference {
	refs, _ := decodeField[[]Reference](m, key)
	return refs
}

// MarshalJSON writes the fields in document order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. A repeated key keeps
// its first position and its last value, like encoding/json.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("manifest must be a JSON object")
	}

	fields := make([]Field, 0, 16)
	pos := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected manifest token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("manifest field %q: %w", key, err)
		}
		if i, dup := pos[key]; dup {
			fields[i].Value = value
			continue
		}
		pos[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	m.fields = fields
	return nil
}
