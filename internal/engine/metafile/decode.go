package metafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	coreerrors "radar/internal/core/errors"
)

type rawImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
	Original string `json:"original"`
}

type rawInput struct {
	Bytes   int64       `json:"bytes"`
	Imports []rawImport `json:"imports"`
}

type rawOutput struct {
	Bytes      int64           `json:"bytes"`
	EntryPoint string          `json:"entryPoint"`
	Imports    []rawImport     `json:"imports"`
	Exports    []string        `json:"exports"`
	Inputs     json.RawMessage `json:"inputs"`
}

type rawContribution struct {
	BytesInOutput int64 `json:"bytesInOutput"`
}

// Load reads, decodes and validates a metafile from disk.
func Load(path string) (*Graph, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, coreerrors.Wrap(err, coreerrors.CodeNotFound, "metafile does not exist")
		}
		return nil, nil, fmt.Errorf("read metafile %q: %w", path, err)
	}
	g, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode metafile")
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	return g, data, nil
}

// Parse decodes an esbuild metafile. Object key order of "inputs", "outputs"
// and each output's "inputs" is preserved. Missing byte counts decode as 0
// and missing import lists as empty. Parse does not validate; call Validate.
func Parse(r io.Reader) (*Graph, error) {
	dec := json.NewDecoder(r)
	g := NewGraph()

	err := decodeObject(dec, func(key string) error {
		switch key {
		case "inputs":
			return decodeObject(dec, func(path string) error {
				var raw rawInput
				if err := dec.Decode(&raw); err != nil {
					return fmt.Errorf("input %q: %w", path, err)
				}
				g.AddInput(path, &Input{
					Bytes:   raw.Bytes,
					Imports: convertImports(raw.Imports),
				})
				return nil
			})
		case "outputs":
			return decodeObject(dec, func(path string) error {
				out, err := decodeOutput(dec)
				if err != nil {
					return fmt.Errorf("output %q: %w", path, err)
				}
				g.AddOutput(path, out)
				return nil
			})
		default:
			var skip json.RawMessage
			return dec.Decode(&skip)
		}
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func decodeOutput(dec *json.Decoder) (*Output, error) {
	var raw rawOutput
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	out := &Output{
		Bytes:      raw.Bytes,
		EntryPoint: raw.EntryPoint,
		Imports:    convertImports(raw.Imports),
		Exports:    append([]string(nil), raw.Exports...),
		Inputs:     []Contribution{},
	}
	if len(raw.Inputs) == 0 || string(raw.Inputs) == "null" {
		return out, nil
	}

	inner := json.NewDecoder(bytes.NewReader(raw.Inputs))
	err := decodeObject(inner, func(path string) error {
		var c rawContribution
		if err := inner.Decode(&c); err != nil {
			return fmt.Errorf("contribution %q: %w", path, err)
		}
		out.Inputs = append(out.Inputs, Contribution{Path: path, BytesInOutput: c.BytesInOutput})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func convertImports(raw []rawImport) []Import {
	imports := make([]Import, 0, len(raw))
	for _, imp := range raw {
		imports = append(imports, Import{
			Path:     imp.Path,
			Kind:     KindFromEsbuild(imp.Kind),
			External: imp.External,
			Original: imp.Original,
		})
	}
	return imports
}

// decodeObject walks a JSON object key by key, leaving the decoder positioned
// at each value when fn is called. fn must consume exactly that value. A JSON
// null is treated as an empty object.
func decodeObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
