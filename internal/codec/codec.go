// Package codec reads and writes templates, judgments, transcripts and
// audit results as JSON or YAML.
//
// Decoders accept the field spellings produced by earlier scorecard tools
// (template_name, guidance, status) alongside the canonical ones.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// Encoding is a serialisation syntax.
type Encoding string

// Supported encodings.
const (
	JSON Encoding = "json"
	YAML Encoding = "yaml"
)

// EncodingFor picks the encoding from a file name, falling back to
// sniffing the content. Anything that does not start like JSON is YAML.
func EncodingFor(name string, data []byte) Encoding {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return JSON
	}
	return YAML
}

func unmarshal(data []byte, enc Encoding, v any) error {
	var err error
	if enc == JSON {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, enc, err)
	}
	return nil
}

// isSequence reports whether the document root is a list.
func isSequence(data []byte, enc Encoding) bool {
	if enc == JSON {
		trimmed := bytes.TrimSpace(data)
		return len(trimmed) > 0 && trimmed[0] == '['
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind == yaml.SequenceNode
}

// Encode writes v in the given encoding. JSON is indented by two spaces.
func Encode(v any, enc Encoding) ([]byte, error) {
	if enc == YAML {
		var buf bytes.Buffer
		e := yaml.NewEncoder(&buf)
		e.SetIndent(2)
		if err := e.Encode(v); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := e.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(data, '\n'), nil
}
