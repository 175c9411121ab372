package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoExecutable is returned when a persisted script lacks its executable.
var ErrNoExecutable = errors.New("script: missing executable")

// Persisted layout shared by the JSON and YAML codecs. Only the executable
// is mandatory.
type persisted struct {
	Executable          string   `json:"executable" yaml:"executable"`
	Arguments           string   `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	TransferExecutable  bool     `json:"transfer_executable" yaml:"transfer_executable"`
	Options             Options  `json:"options,omitempty" yaml:"options,omitempty"`
	TransferInputFiles  []string `json:"transfer_input_files,omitempty" yaml:"transfer_input_files,omitempty"`
	TransferOutputFiles []string `json:"transfer_output_files,omitempty" yaml:"transfer_output_files,omitempty"`
}

func (s *Script) persisted() persisted {
	return persisted{
		Executable:          s.Executable,
		Arguments:           s.Arguments,
		TransferExecutable:  s.TransferExecutable,
		Options:             s.Options,
		TransferInputFiles:  s.TransferInputFiles,
		TransferOutputFiles: s.TransferOutputFiles,
	}
}

func (s *Script) fromPersisted(p persisted) error {
	if strings.TrimSpace(p.Executable) == "" {
		return ErrNoExecutable
	}
	*s = Script{
		Executable:          p.Executable,
		Arguments:           p.Arguments,
		TransferExecutable:  p.TransferExecutable,
		Options:             p.Options,
		TransferInputFiles:  p.TransferInputFiles,
		TransferOutputFiles: p.TransferOutputFiles,
	}
	return nil
}

func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.persisted())
}

func (s *Script) UnmarshalJSON(data []byte) error {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return s.fromPersisted(p)
}

func (s Script) MarshalYAML() (interface{}, error) {
	return s.persisted(), nil
}

func (s *Script) UnmarshalYAML(value *yaml.Node) error {
	var p persisted
	if err := value.Decode(&p); err != nil {
		return err
	}
	return s.fromPersisted(p)
}

// MarshalJSON writes the directives as a JSON object in insertion order.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(opt.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. Scalar values that are
// not strings (e.g. "ntasks": 1) keep their literal text.
func (o *Options) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("script: options must be an object, got %v", tok)
	}
	var opts Options
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("script: invalid option key %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		var value string
		switch v := valTok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = fmt.Sprint(v)
		case nil:
			value = ""
		default:
			return fmt.Errorf("script: option %q must be a scalar", key)
		}
		opts.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = opts
	return nil
}

// MarshalYAML writes the directives as a mapping node in insertion order.
func (o Options) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, opt := range o {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: opt.Value},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node keeping key order.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("script: options must be a mapping (line %d)", value.Line)
	}
	var opts Options
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("script: option %q must be a scalar (line %d)", k.Value, v.Line)
		}
		opts.Set(k.Value, v.Value)
	}
	*o = opts
	return nil
}

// Load reads a script description from path. The format follows the file
// extension: .json, .yaml or .yml.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Script{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("script: unsupported format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("script: decode %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path in the format picked by the file extension.
func Save(path string, s *Script) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(s, "", "    ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	default:
		return fmt.Errorf("script: unsupported format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("script: encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
