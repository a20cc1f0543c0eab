package definition

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSpec []byte

// Default returns a fresh copy of the built-in bulletin specification.
func Default() *Specification {
	s, err := Load(bytes.NewReader(defaultSpec))
	if err != nil {
		panic(fmt.Sprintf("definition: built-in specification: %v", err))
	}
	return s
}

// Load decodes a YAML specification. Unknown fields are rejected.
func Load(r io.Reader) (*Specification, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Specification
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML: empty document")
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &s, nil
}

// LoadFile reads and validates a specification file.
func LoadFile(path string) (*Specification, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Check(s); err != nil {
		return nil, fmt.Errorf("%s: invalid specification: %w", path, err)
	}
	return s, nil
}

// Marshal encodes s as YAML.
func Marshal(s *Specification) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}
