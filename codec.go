package formts

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec decodes raw source bytes into the untyped tree a form is reset
// to. Objects must decode to map[string]any and arrays to []any.
type Codec interface {
	Unmarshal(data []byte, v any) error

	// ContentType is reported with source signals.
	ContentType() string
}

// JSONCodec decodes JSON documents.
type JSONCodec struct{}

// Unmarshal decodes data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType returns "application/json".
func (JSONCodec) ContentType() string {
	return "application/json"
}

var _ Codec = JSONCodec{}

// YAMLCodec decodes YAML documents. Mappings with non-string keys are
// rejected by the form decoder.
type YAMLCodec struct{}

// Unmarshal decodes data into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ContentType returns "application/x-yaml".
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

var _ Codec = YAMLCodec{}

// CodecFor picks a codec from a file name's extension. Unknown
// extensions fall back to JSON.
func CodecFor(name string) Codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	default:
		return JSONCodec{}
	}
}
