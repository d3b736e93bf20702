package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/erdkit/schema"
)

// ErrUnsupportedFormat is returned for file extensions no codec handles.
var ErrUnsupportedFormat = errors.New("unsupported diagram format")

type Format string

const (
	YAML    Format = "yaml"
	JSON    Format = "json"
	MsgPack Format = "msgpack"
)

// FormatOf picks the codec for a file from its extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	case ".msgpack", ".mpk":
		return MsgPack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// LoadDiagram reads a diagram file. The result is not normalized; callers
// that need a consistent graph go through Diagram.Graph or schema.NewStore.
func LoadDiagram(filename string) (schema.Diagram, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return schema.Diagram{}, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return schema.Diagram{}, fmt.Errorf("reading diagram file: %w", err)
	}
	return Decode(data, format)
}

// SaveDiagram writes d to filename in the format its extension names.
func SaveDiagram(filename string, d schema.Diagram) error {
	format, err := FormatOf(filename)
	if err != nil {
		return err
	}
	data, err := Encode(d, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing diagram file: %w", err)
	}
	return nil
}

func Decode(data []byte, format Format) (schema.Diagram, error) {
	var d schema.Diagram
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return d, fmt.Errorf("unmarshalling YAML: %w", err)
		}
	case JSON:
		if err := json.Unmarshal(data, &d); err != nil {
			return d, fmt.Errorf("unmarshalling JSON: %w", err)
		}
	case MsgPack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&d); err != nil {
			return d, fmt.Errorf("unmarshalling msgpack: %w", err)
		}
	default:
		return d, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return d, nil
}

func Encode(d schema.Diagram, format Format) ([]byte, error) {
	switch format {
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("marshalling YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshalling YAML: %w", err)
		}
		return buf.Bytes(), nil
	case JSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling JSON: %w", err)
		}
		return append(data, '\n'), nil
	case MsgPack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("marshalling msgpack: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
