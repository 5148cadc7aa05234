// Package output encodes scan results in machine-readable formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/phpattr/attrs/reader"
)

// Format is an output encoding.
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatMsgpack:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json, yaml or msgpack)", s)
	}
}

// Binary reports whether f should not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatMsgpack
}

// Encode writes annotations to w. JSON keeps named arguments in source
// order; YAML and msgpack encode the exported plain values.
func Encode(w io.Writer, f Format, annotations []*reader.Annotation) error {
	if annotations == nil {
		annotations = []*reader.Annotation{}
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(annotations)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(export(annotations)); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(export(annotations))
	default:
		return fmt.Errorf("format %q cannot be encoded", f)
	}
}

func export(annotations []*reader.Annotation) []map[string]any {
	out := make([]map[string]any, len(annotations))
	for i, a := range annotations {
		out[i] = a.Export()
	}
	return out
}
