package schema

import (
	"bytes"
	"encoding/json"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/schemacache/internal/errs"
)

// Format selects a serialized form of a Document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied name to a Format. The empty string is JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", &errs.Error{Kind: errs.ErrKindInvalidInput, Op: "schema.format", Message: "unknown document format " + s}
	}
}

// JSON returns the compact JSON form that is persisted and served. Field
// order follows the struct declarations and tables are sorted, so equal
// documents encode to equal bytes. Check and index definitions are written
// without HTML escaping.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, &errs.Error{Kind: errs.ErrKindUnknown, Op: "schema.encode", Message: "encode document", Cause: err}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// YAML renders the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, &errs.Error{Kind: errs.ErrKindUnknown, Op: "schema.encode", Message: "encode document as yaml", Cause: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &errs.Error{Kind: errs.ErrKindUnknown, Op: "schema.encode", Message: "encode document as yaml", Cause: err}
	}
	return buf.Bytes(), nil
}

// Encode serializes d in format f.
func (d *Document) Encode(f Format) ([]byte, error) {
	if f == FormatYAML {
		return d.YAML()
	}
	return d.JSON()
}

// Parse decodes a JSON document produced by Document.JSON.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &errs.Error{Kind: errs.ErrKindMalformedResult, Op: "schema.parse", Message: "decode document", Cause: err}
	}
	if d.Tables == nil {
		d.Tables = []FlatTable{}
	}
	return &d, nil
}

// Render re-encodes a persisted JSON document in format f. JSON input is
// returned as is.
func Render(data []byte, f Format) ([]byte, error) {
	if f != FormatYAML {
		return data, nil
	}
	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return d.YAML()
}
